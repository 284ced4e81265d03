package quota

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store persists the counter.
type Store interface {
	Load() (Stats, error)
	Save(Stats) error
}

// FileStore keeps the counter in a small RC file:
//
//	date = 2006-01-02
//	count = 3
type FileStore struct {
	Path string
}

// DefaultPath is ~/.config/blurkit/usage.rc.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "blurkit", "usage.rc"), nil
}

// Load returns zero stats when the file does not exist. A malformed file is
// logged and treated as empty.
func (f FileStore) Load() (Stats, error) {
	file, err := os.Open(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Stats{}, nil
	}
	if err != nil {
		return Stats{}, err
	}
	defer file.Close()
	s, err := parseStats(file)
	if err != nil {
		log.Printf("ignoring usage file %s: %v", f.Path, err)
		return Stats{}, nil
	}
	return s, nil
}

// Save writes s, creating the parent directory as needed.
func (f FileStore) Save(s Stats) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return err
	}
	data := fmt.Sprintf("# blurkit daily usage\ndate = %s\ncount = %d\n", s.LastResetDate, s.BlursToday)
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, []byte(data), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}

func parseStats(r io.Reader) (Stats, error) {
	var s Stats
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return Stats{}, fmt.Errorf("malformed line %q", line)
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "date":
			if _, err := time.Parse(time.DateOnly, value); err != nil {
				return Stats{}, fmt.Errorf("invalid date: %w", err)
			}
			s.LastResetDate = value
		case "count":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return Stats{}, fmt.Errorf("invalid count %q", value)
			}
			s.BlursToday = n
		}
	}
	return s, scanner.Err()
}

// MemoryStore holds the counter in memory.
type MemoryStore struct {
	Stats Stats
}

func (m *MemoryStore) Load() (Stats, error) { return m.Stats, nil }

func (m *MemoryStore) Save(s Stats) error {
	m.Stats = s
	return nil
}
