// Package urlstore persists collected venue links as an append-only text
// log, one URL per line. The log spans runs until someone clears it.
package urlstore

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Store is a single-process, single-writer URL log.
type Store struct {
	path string
}

// New creates a store backed by the file at path. The file is created on
// first append.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Append writes each link on its own line at the end of the log.
func (s *Store) Append(links []string) error {
	// 0600: owner-only read/write
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open url log: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, link := range links {
		if _, err := w.WriteString(link + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("failed to write url log: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write url log: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close url log: %w", err)
	}

	return nil
}

// ReadAll returns every non-empty line of the log, trimmed, in order. A log
// that doesn't exist yet reads as empty.
func (s *Store) ReadAll() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to open url log: %w", err)
	}
	defer f.Close()

	links := []string{}
	scanner := bufio.NewScanner(f)
	// Venue URLs carry long data parameters
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			links = append(links, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read url log: %w", err)
	}

	return links, nil
}
