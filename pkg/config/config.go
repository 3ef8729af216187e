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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser

	validate = validator.New()
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// Store backends.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// FileNames are the config file names Discover looks for, in order.
var FileNames = []string{".replacerc.yaml", ".replacerc.yml", ".replacerc.json", ".replacerc.hcl"}

// 💾 StoreConfig selects where rule collections are persisted
type StoreConfig struct {
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty" validate:"oneof=file badger memory"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`     // Directory (file) or database directory (badger)
	Format  Format `json:"format,omitempty" yaml:"format,omitempty"` // Rule document format for the file backend
}

// ✏️ ApplyConfig controls how a book directory is rewritten
type ApplyConfig struct {
	Include      []string `json:"include,omitempty" yaml:"include,omitempty"`             // Section file globs
	Ignore       []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`               // Globs excluded after include
	Strategy     string   `json:"strategy,omitempty" yaml:"strategy,omitempty" validate:"oneof=tree markup"`
	Concurrency  int      `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"gte=0"`
	MatchTimeout string   `json:"match_timeout,omitempty" yaml:"match_timeout,omitempty"` // Go duration, empty for none
}

// 📚 Config represents the complete configuration
type Config struct {
	Store StoreConfig `json:"store" yaml:"store"`
	Apply ApplyConfig `json:"apply" yaml:"apply"`

	location string
}

// Default returns a validated config used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	// defaults always validate
	_ = cfg.Validate()
	return cfg
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	cfg.location = path
	if cfg.Store.Path != "" && !filepath.IsAbs(cfg.Store.Path) {
		cfg.Store.Path = filepath.Join(filepath.Dir(path), cfg.Store.Path)
	}

	return cfg, nil
}

// 🔍 Discover loads the first config file found in dir, or Default when there is none
func Discover(ctx context.Context, dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return Load(ctx, path)
	}

	zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("no config file found, using defaults")
	cfg := Default()
	if cfg.Store.Path != "" {
		cfg.Store.Path = filepath.Join(dir, cfg.Store.Path)
	}
	return cfg, nil
}

// 🔍 Validate sets defaults and checks the configuration
func (cfg *Config) Validate() error {
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendFile
	}
	if cfg.Store.Format == "" {
		cfg.Store.Format = FormatYAML
	}
	if cfg.Store.Path == "" {
		switch cfg.Store.Backend {
		case BackendBadger:
			cfg.Store.Path = ".replacerc.db"
		case BackendFile:
			cfg.Store.Path = ".replacerc.d"
		}
	}
	if len(cfg.Apply.Include) == 0 {
		cfg.Apply.Include = []string{"**/*.xhtml", "**/*.html", "**/*.htm"}
	}
	if cfg.Apply.Strategy == "" {
		cfg.Apply.Strategy = "tree"
	}
	if cfg.Apply.Concurrency == 0 {
		cfg.Apply.Concurrency = runtime.GOMAXPROCS(0)
	}

	if err := validate.Struct(cfg); err != nil {
		return errors.Errorf("invalid config: %w", err)
	}

	if _, err := ParseFormat(string(cfg.Store.Format)); err != nil {
		return errors.Errorf("store.format: %w", err)
	}

	if _, err := cfg.Timeout(); err != nil {
		return err
	}

	if cfg.Store.Path != "" {
		cfg.Store.Path = filepath.Clean(cfg.Store.Path)
	}

	return nil
}

// Timeout returns the per-rule match timeout, zero when unset.
func (cfg *Config) Timeout() (time.Duration, error) {
	if cfg.Apply.MatchTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(cfg.Apply.MatchTimeout)
	if err != nil {
		return 0, errors.Errorf("apply.match_timeout: %w", err)
	}
	if d < 0 {
		return 0, errors.Errorf("apply.match_timeout must not be negative: %s", cfg.Apply.MatchTimeout)
	}
	return d, nil
}

// Location is the file the config was loaded from, empty for defaults.
func (cfg *Config) Location() string {
	return cfg.location
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s:%s (%s) strategy=%s", cfg.Store.Backend, cfg.Store.Path, cfg.Store.Format, cfg.Apply.Strategy)
}
