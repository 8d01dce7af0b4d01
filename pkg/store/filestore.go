// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/telekom/pathmon/internal/logger"
	"github.com/telekom/pathmon/pkg/session"
)

const (
	// autoSaveName is the base name of the automatically saved session.
	autoSaveName = "last_session"
	recentName   = "recent_targets.json"
	maxRecent    = 10
	nameLayout   = "20060102_150405"
)

// Entry describes a saved session file.
type Entry struct {
	Name    string    `json:"name"`
	ModTime time.Time `json:"modTime"`
	Size    int64     `json:"size"`
}

// FileStore keeps saved sessions as documents in a directory,
// together with the most recently used targets.
type FileStore struct {
	dir    string
	fsys   fs.FS
	format Format

	mu     sync.Mutex
	recent []string
}

// NewFileStore creates the directory if needed and loads the recent targets.
func NewFileStore(ctx context.Context, dir string, f Format) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	s := &FileStore{
		dir:    dir,
		fsys:   os.DirFS(dir),
		format: f,
	}
	s.loadRecent(ctx)
	return s, nil
}

// Dir returns the directory of the store.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes the session under a name derived from its target and the
// current time and returns that name.
func (s *FileStore) Save(ctx context.Context, sess *session.Snapshot) (string, error) {
	name := fmt.Sprintf("%s_%s%s", fileSafe(sess.Target), now().Format(nameLayout), s.format.Ext())
	if err := s.write(ctx, name, sess); err != nil {
		return "", err
	}
	s.addRecent(ctx, sess.Target)
	return name, nil
}

// AutoSave overwrites the automatically saved session.
func (s *FileStore) AutoSave(ctx context.Context, sess *session.Snapshot) error {
	return s.write(ctx, autoSaveName+s.format.Ext(), sess)
}

// LoadAutoSave loads the automatically saved session.
// It returns [ErrNotFound] if there is none.
func (s *FileStore) LoadAutoSave(ctx context.Context) (*session.Snapshot, error) {
	return s.Load(ctx, autoSaveName+s.format.Ext())
}

// Load reads and validates a saved session.
func (s *FileStore) Load(ctx context.Context, name string) (*session.Snapshot, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: invalid name %q", ErrNotFound, name)
	}

	b, err := s.read(ctx, name)
	if err != nil {
		return nil, err
	}

	sess, err := Load(b, formatOf(name))
	if err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "Failed to load session", "name", name, "error", err)
		return nil, err
	}
	s.addRecent(ctx, sess.Target)
	return sess, nil
}

func (s *FileStore) read(ctx context.Context, name string) (b []byte, err error) {
	log := logger.FromContext(ctx).With("name", name)
	file, err := s.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		log.ErrorContext(ctx, "Failed to open session file", "error", err)
		return nil, fmt.Errorf("%w: failed to open session file: %w", ErrPersistence, err)
	}
	defer func() {
		cerr := file.Close()
		if cerr != nil {
			log.ErrorContext(ctx, "Failed to close session file", "error", cerr)
			b = nil
		}
		err = errors.Join(cerr, err)
	}()

	b, err = io.ReadAll(file)
	if err != nil {
		log.ErrorContext(ctx, "Failed to read session file", "error", err)
		return nil, fmt.Errorf("%w: failed to read session file: %w", ErrPersistence, err)
	}
	return b, nil
}

// List returns the saved sessions, most recent first.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	dirEntries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "Failed to list session directory", "error", err)
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	entries := []Entry{}
	for _, de := range dirEntries {
		if de.IsDir() || de.Name() == recentName || !isDocument(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: de.Name(), ModTime: info.ModTime(), Size: info.Size()})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := b.ModTime.Compare(a.ModTime); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return entries, nil
}

// Recent returns the most recently used targets, most recent first.
func (s *FileStore) Recent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.recent)
}

// write serializes the session and atomically replaces the file name.
func (s *FileStore) write(ctx context.Context, name string, sess *session.Snapshot) error {
	log := logger.FromContext(ctx).With("name", name)
	b, err := Save(sess, s.format)
	if err != nil {
		return err
	}
	if err := writeFile(s.dir, name, b); err != nil {
		log.ErrorContext(ctx, "Failed to write session file", "error", err)
		return err
	}
	log.DebugContext(ctx, "Session saved", "target", sess.Target)
	return nil
}

// addRecent moves target to the front of the recent targets and persists them.
func (s *FileStore) addRecent(ctx context.Context, target string) {
	if target == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent = slices.DeleteFunc(s.recent, func(t string) bool { return t == target })
	s.recent = slices.Insert(s.recent, 0, target)
	if len(s.recent) > maxRecent {
		s.recent = s.recent[:maxRecent]
	}

	b, err := json.Marshal(s.recent)
	if err == nil {
		err = writeFile(s.dir, recentName, b)
	}
	if err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "Failed to save recent targets", "error", err)
	}
}

func (s *FileStore) loadRecent(ctx context.Context) {
	b, err := fs.ReadFile(s.fsys, recentName)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.FromContext(ctx).ErrorContext(ctx, "Failed to read recent targets", "error", err)
		}
		return
	}
	var recent []string
	if err := json.Unmarshal(b, &recent); err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "Failed to parse recent targets", "error", err)
		return
	}
	if len(recent) > maxRecent {
		recent = recent[:maxRecent]
	}
	s.recent = recent
}

func writeFile(dir, name string, b []byte) (err error) {
	tmp, err := os.CreateTemp(dir, ".tmp-"+name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err = os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// fileSafe replaces every character of a target that is not safe in file names.
func fileSafe(target string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, target)
}

func validName(name string) bool {
	return fs.ValidPath(name) && !strings.Contains(name, "/") && name != "." && isDocument(name)
}

func isDocument(name string) bool {
	switch path.Ext(name) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func formatOf(name string) Format {
	switch path.Ext(name) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}
