// Package file implements a throttle store on a line-delimited text file.
//
// Each line is "key|RFC3339Nano". The file is loaded once into a map; later
// lines override earlier ones and unparseable lines are skipped. Every Put
// rewrites the compacted file atomically (temp file + rename).
package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"setup-scanner/internal/throttle"
)

// Store is a file-backed throttle.Store.
type Store struct {
	mu         sync.Mutex
	path       string
	pruneAfter time.Duration
	last       map[string]time.Time
}

// Open loads path. A missing file is an empty store. Records older than
// pruneAfter (relative to the newest write) are dropped on rewrite; zero
// disables pruning.
func Open(path string, pruneAfter time.Duration) *Store {
	s := &Store{path: path, pruneAfter: pruneAfter, last: make(map[string]time.Time)}
	if err := s.load(); err != nil {
		log.Printf("[throttle-file] read %s failed, starting empty: %v", path, err)
	}
	return s
}

func (s *Store) load() error {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	skipped := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, at, ok := parseLine(sc.Text())
		if !ok {
			skipped++
			continue
		}
		s.last[key] = at
	}
	if skipped > 0 {
		log.Printf("[throttle-file] skipped %d corrupt lines in %s", skipped, s.path)
	}
	return sc.Err()
}

func parseLine(line string) (string, time.Time, bool) {
	line = strings.TrimSpace(line)
	i := strings.LastIndexByte(line, '|')
	if i <= 0 {
		return "", time.Time{}, false
	}
	at, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(line[i+1:]))
	if err != nil {
		return "", time.Time{}, false
	}
	return line[:i], at, true
}

// LastSent implements throttle.Store. An unreadable file reads as empty.
func (s *Store) LastSent(_ context.Context, key string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.last[key]
	return at, ok, nil
}

// Put implements throttle.Store.
func (s *Store) Put(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[key] = at
	s.prune(at)
	if err := s.flush(); err != nil {
		return fmt.Errorf("%w: file: write %s: %v", throttle.ErrStore, s.path, err)
	}
	return nil
}

func (s *Store) prune(now time.Time) {
	if s.pruneAfter <= 0 {
		return
	}
	for k, at := range s.last {
		if now.Sub(at) > s.pruneAfter {
			delete(s.last, k)
		}
	}
}

// flush writes every record, sorted by key, to a temp file and renames it
// over the target.
func (s *Store) flush() error {
	keys := make([]string, 0, len(s.last))
	for k := range s.last {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".throttle-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, k := range keys {
		fmt.Fprintf(w, "%s|%s\n", k, s.last[k].UTC().Format(time.RFC3339Nano))
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.last)
}

// Close implements throttle.Store.
func (s *Store) Close() error { return nil }
