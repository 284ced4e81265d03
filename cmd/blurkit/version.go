package main

import (
	"fmt"
	"strings"
)

type versionCmd struct{ r *root }

func (v *versionCmd) Run() error {
	fmt.Fprintln(stdout, versionString(v.r.program))
	return nil
}

func versionString(program string) string {
	parts := []string{fmt.Sprintf("%s version %s", program, version)}
	if commit != "" {
		parts = append(parts, "commit "+commit)
	}
	if date != "" {
		parts = append(parts, "built "+date)
	}
	return strings.Join(parts, ", ")
}
