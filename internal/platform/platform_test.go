package platform

import "testing"

func TestOptionsTimeout(t *testing.T) {
	if got := (Options{}).timeout(); got != defaultTimeout {
		t.Fatalf("default timeout = %d", got)
	}
	if got := (Options{Timeout: 1200}).timeout(); got != 1200 {
		t.Fatalf("timeout = %d", got)
	}
}
