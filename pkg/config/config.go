// Package config loads datim's small JSON configuration: default
// exclusions, the compute-pool executor strategy, and the output charset,
// mirroring the teacher stack's JSON-based configuration loading but scoped
// to what the imprint engine actually needs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	cerr "github.com/anvilfs/datim/pkg/common/err"
)

const pkg = "config"

// Executor strategies recognized on the --executor flag and in config
// files, mirroring the process interface's documented choices.
const (
	ExecutorFixedThread    = "fixedthread"
	ExecutorCachedThread   = "cachedthread"
	ExecutorForkJoinFIFO   = "forkjoinfifo"
	ExecutorForkJoinLIFO   = "forkjoinlifo"
)

// Charset names recognized for --output-charset / --imprint-charset.
const (
	CharsetUTF8 = "utf-8"
)

// Excludes holds the three exclusion rule kinds the generator accepts.
type Excludes struct {
	Paths          []string `json:"paths,omitempty"`
	PathGlobs      []string `json:"pathGlobs,omitempty"`
	FilenameGlobs  []string `json:"filenameGlobs,omitempty"`
}

// Config is datim's persisted configuration. Every field has a usable zero
// value; LoadFile and Load only need to override what a config file sets.
type Config struct {
	// DefaultExcludes are applied to every `generate` invocation in
	// addition to any --exclude-* flags on the command line.
	DefaultExcludes Excludes `json:"defaultExcludes"`

	// Executor selects the compute-pool strategy. Empty defaults to
	// ExecutorFixedThread.
	Executor string `json:"executor,omitempty"`

	// OutputCharset is the charset used when writing a .datim file.
	// Empty defaults to CharsetUTF8.
	OutputCharset string `json:"outputCharset,omitempty"`
}

// Default returns a Config with every field at its documented default.
func Default() Config {
	return Config{
		Executor:      ExecutorFixedThread,
		OutputCharset: CharsetUTF8,
	}
}

// Load parses JSON configuration content into a Config, layering it over
// Default() so unset fields keep their defaults.
func Load(content string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(content) == "" {
		return cfg, nil
	}

	if err := json.Unmarshal([]byte(content), &cfg); err != nil {
		return Config{}, cerr.New(pkg, cerr.CodeInvalidFormat, "Load", "malformed config JSON", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.Executor == "" {
		cfg.Executor = ExecutorFixedThread
	}
	if cfg.OutputCharset == "" {
		cfg.OutputCharset = CharsetUTF8
	}
	return cfg, nil
}

// LoadFile reads and parses the JSON configuration file at path. A missing
// file is not an error: it returns Default().
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, cerr.New(pkg, cerr.CodeInvalidInput, "LoadFile", "read config file: "+path, err)
	}
	return Load(string(data))
}

// Validate reports whether the configuration's enumerated fields hold
// recognized values.
func (c Config) Validate() error {
	switch c.Executor {
	case "", ExecutorFixedThread, ExecutorCachedThread, ExecutorForkJoinFIFO, ExecutorForkJoinLIFO:
	default:
		return cerr.New(pkg, cerr.CodeValidation, "Validate", fmt.Sprintf("unknown executor strategy: %q", c.Executor), nil)
	}
	switch strings.ToLower(c.OutputCharset) {
	case "", CharsetUTF8:
	default:
		return cerr.New(pkg, cerr.CodeValidation, "Validate", fmt.Sprintf("unsupported output charset: %q", c.OutputCharset), nil)
	}
	return nil
}
