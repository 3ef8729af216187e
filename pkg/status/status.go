// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package status

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 SectionStatus represents the outcome of rewriting a section file
type SectionStatus int

const (
	StatusUnknown   SectionStatus = iota
	StatusModified                // Content changed and was written
	StatusUnchanged               // No rule matched
	StatusPending                 // Content would change but the run is a dry run
	StatusFailed                  // Section could not be read, transformed or written
)

// String returns a string representation of SectionStatus
func (s SectionStatus) String() string {
	switch s {
	case StatusModified:
		return "modified"
	case StatusUnchanged:
		return "unchanged"
	case StatusPending:
		return "would modify"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 📄 SectionInfo contains the result of processing one section file
type SectionInfo struct {
	Path         string        // Path relative to the book directory
	Status       SectionStatus // Current status
	Replacements int           // Substitutions made
	SkippedRules []string      // Ids of rules skipped for this section
	Checksum     string        // Hash of the content left on disk
	Error        error         // Any error associated with this section
}

// 📈 Summary totals an apply run
type Summary struct {
	Sections     int
	Modified     int
	Pending      int
	Failed       int
	Replacements int
}

// 🔧 Manager reads and writes section files under a book directory and tracks their status
type Manager struct {
	baseDir   string          // Base directory for all operations
	logger    *zerolog.Logger // Logger for status updates
	formatter FileFormatter   // Formatter for status messages

	mu       sync.RWMutex
	sections map[string]SectionInfo

	total     int
	processed int
}

// 🏭 New creates a new status manager
func New(baseDir string, logger *zerolog.Logger) *Manager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Manager{
		baseDir:   filepath.Clean(baseDir),
		logger:    logger,
		formatter: NewDefaultFileFormatter(),
		sections:  make(map[string]SectionInfo),
	}
}

// 🔒 getAbsPath returns the absolute path for a given relative path
func (m *Manager) getAbsPath(path string) string {
	return filepath.Join(m.baseDir, path)
}

// Checksum generates a SHA-256 hash of the content.
func Checksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func (m *Manager) ReadFile(ctx context.Context, path string) ([]byte, error) {
	content, err := os.ReadFile(m.getAbsPath(path))
	if err != nil {
		return nil, errors.Errorf("reading file: %w", err)
	}
	return content, nil
}

// WriteFileAtomic replaces a section file, keeping its permissions.
func (m *Manager) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	absPath := m.getAbsPath(path)

	perm := fs.FileMode(0644)
	if info, err := os.Stat(absPath); err == nil {
		perm = info.Mode().Perm()
	}

	return WriteFileAtomic(absPath, content, perm)
}

// 💾 WriteFileAtomic writes content to a temp file next to path and renames it into place
func WriteFileAtomic(path string, content []byte, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// BackupFile copies a section to <path>.bak before it is rewritten.
func (m *Manager) BackupFile(ctx context.Context, path string) error {
	absPath := m.getAbsPath(path)

	content, err := os.ReadFile(absPath)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Errorf("reading file for backup: %w", err)
	}

	if err := WriteFileAtomic(absPath+".bak", content, 0644); err != nil {
		return errors.Errorf("creating backup: %w", err)
	}

	return nil
}

func (m *Manager) RestoreFile(ctx context.Context, path string) error {
	absPath := m.getAbsPath(path)
	backupPath := absPath + ".bak"

	content, err := os.ReadFile(backupPath)
	if os.IsNotExist(err) {
		return errors.Errorf("backup file does not exist: %s", path)
	} else if err != nil {
		return errors.Errorf("reading backup: %w", err)
	}

	if err := m.WriteFileAtomic(ctx, path, content); err != nil {
		return errors.Errorf("restoring from backup: %w", err)
	}

	if err := os.Remove(backupPath); err != nil {
		return errors.Errorf("removing backup: %w", err)
	}

	return nil
}

// TrackSection records the outcome for a section.
func (m *Manager) TrackSection(ctx context.Context, info SectionInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sections[info.Path] = info
	msg := m.formatter.FormatSectionOperation(info)
	if info.Error != nil {
		msg = m.formatter.FormatError(info.Error)
	}
	m.logger.Debug().Str("section", info.Path).Msg(msg)
}

func (m *Manager) GetSectionInfo(ctx context.Context, path string) (SectionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.sections[path]
	if !ok {
		return SectionInfo{}, errors.Errorf("section not tracked: %s", path)
	}
	return info, nil
}

// ListSections returns every tracked section ordered by path.
func (m *Manager) ListSections(ctx context.Context) []SectionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sections := make([]SectionInfo, 0, len(m.sections))
	for _, info := range m.sections {
		sections = append(sections, info)
	}
	slices.SortFunc(sections, func(a, b SectionInfo) int {
		return strings.Compare(a.Path, b.Path)
	})
	return sections
}

func (m *Manager) Summary(ctx context.Context) Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s Summary
	for _, info := range m.sections {
		s.Sections++
		s.Replacements += info.Replacements
		switch info.Status {
		case StatusModified:
			s.Modified++
		case StatusPending:
			s.Pending++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

func (m *Manager) StartOperation(ctx context.Context, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total = total
	m.processed = 0
	m.logger.Debug().Int("total", total).Msg(m.formatter.FormatProgress(0, total))
}

// Advance marks one more section as processed.
func (m *Manager) Advance(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed++
	m.logger.Debug().
		Int("processed", m.processed).
		Int("total", m.total).
		Msg(m.formatter.FormatProgress(m.processed, m.total))
}

func (m *Manager) FinishOperation(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Debug().
		Int("processed", m.processed).
		Int("total", m.total).
		Msg(m.formatter.FormatProgress(m.processed, m.total))
}
