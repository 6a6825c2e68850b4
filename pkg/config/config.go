// Package config provides YAML-based configuration loading with environment variable expansion.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Option adjusts how Load reads a file.
type Option func(*loader)

type loader struct {
	optional bool
	strict   bool
	lookup   func(string) (string, bool)
}

// Optional makes a missing file leave target untouched instead of failing.
// Validation still runs.
func Optional() Option {
	return func(l *loader) { l.optional = true }
}

// Strict rejects keys that do not map to a field of the target.
func Strict() Option {
	return func(l *loader) { l.strict = true }
}

// WithLookup replaces os.LookupEnv for ${VAR} expansion.
func WithLookup(fn func(string) (string, bool)) Option {
	return func(l *loader) { l.lookup = fn }
}

// Load loads configuration from a YAML file with environment variable
// expansion. Values already present in target act as defaults.
func Load[T any](filename string, target *T, opts ...Option) error {
	l := loader{lookup: os.LookupEnv}
	for _, o := range opts {
		o(&l)
	}

	data, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, os.ErrNotExist) && l.optional:
		data = nil
	case err != nil:
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		v, _ := l.lookup(key)
		return v
	})

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(l.strict)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}
