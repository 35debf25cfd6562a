// SPDX-License-Identifier: MIT

// Package config loads invcache session files: a YAML description of a
// CachedMatrix workload (which backend inverts, which options it gets, and
// the sequence of SetMatrix / ResolveInverse steps to replay).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/invcache/cache"
	"github.com/katalvlaran/invcache/matrix"
	"github.com/katalvlaran/invcache/matrix/gonuminv"
)

// ErrInvalidSession is wrapped by every Load/Parse validation failure.
var ErrInvalidSession = errors.New("config: invalid session")

// Backend names an inversion routine.
type Backend string

const (
	BackendLU    Backend = "lu"    // matrix.Inverse
	BackendGonum Backend = "gonum" // gonuminv.Inverse
)

// Defaults applied by ApplyDefaults.
const (
	DefaultBackend  = BackendLU
	DefaultLogLevel = "warn"
)

// Step is one entry of a session. A non-nil Set replaces the matrix (or
// provides the initial one, on the first step); Resolve calls
// ResolveInverse that many times afterwards.
type Step struct {
	Set     [][]float64 `yaml:"set,omitempty"`
	Resolve int         `yaml:"resolve"`
}

// Session is the root of a session file.
type Session struct {
	Backend         Backend `yaml:"backend"`
	LogLevel        string  `yaml:"log_level"`
	PivotTolerance  float64 `yaml:"pivot_tolerance"`  // 0 = scale-aware default
	PartialPivoting *bool   `yaml:"partial_pivoting"` // nil = matrix.DefaultPartialPivoting
	Steps           []Step  `yaml:"steps"`
}

// Load reads and parses the session file at path.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return s, nil
}

// Parse decodes a session document, rejecting unknown keys, then applies
// defaults and validates.
func Parse(data []byte) (*Session, error) {
	var s Session
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document: %w", ErrInvalidSession)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// ApplyDefaults fills unset fields.
func (s *Session) ApplyDefaults() {
	if s.Backend == "" {
		s.Backend = DefaultBackend
	}
	s.Backend = Backend(strings.ToLower(string(s.Backend)))
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
}

// Validate checks the session can be replayed as is.
func (s *Session) Validate() error {
	if _, err := InverterFor(s.Backend); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("log_level: %v: %w", err, ErrInvalidSession)
	}
	if s.PivotTolerance < 0 || math.IsNaN(s.PivotTolerance) || math.IsInf(s.PivotTolerance, 0) {
		return fmt.Errorf("pivot_tolerance %v must be finite and >= 0: %w", s.PivotTolerance, ErrInvalidSession)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("no steps: %w", ErrInvalidSession)
	}
	if s.Steps[0].Set == nil {
		return fmt.Errorf("step 0: initial matrix missing: %w", ErrInvalidSession)
	}
	for i, st := range s.Steps {
		if st.Resolve < 0 {
			return fmt.Errorf("step %d: resolve %d < 0: %w", i, st.Resolve, ErrInvalidSession)
		}
		if st.Set == nil {
			continue
		}
		if _, err := matrix.NewDenseFrom(st.Set); err != nil {
			return fmt.Errorf("step %d: %v: %w", i, err, ErrInvalidSession)
		}
	}

	return nil
}

// Level returns the parsed log level. Call after Validate.
func (s *Session) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		return logrus.WarnLevel
	}

	return lvl
}

// InverseOptions translates the session knobs into matrix options.
func (s *Session) InverseOptions() []matrix.InverseOption {
	opts := []matrix.InverseOption{matrix.WithPivotTolerance(s.PivotTolerance)}
	if s.PartialPivoting != nil {
		opts = append(opts, matrix.WithPartialPivoting(*s.PartialPivoting))
	}

	return opts
}

// InverterFor maps a backend name to its inversion routine.
func InverterFor(b Backend) (cache.InverseFunc, error) {
	switch Backend(strings.ToLower(string(b))) {
	case BackendLU:
		return matrix.Inverse, nil
	case BackendGonum:
		return gonuminv.Inverse, nil
	default:
		return nil, fmt.Errorf("unknown backend %q: %w", b, ErrInvalidSession)
	}
}

// ParseMatrix decodes a YAML (or JSON) flow sequence such as "[[1,2],[3,4]]".
func ParseMatrix(text string) (*matrix.Dense, error) {
	var rows [][]float64
	if err := yaml.Unmarshal([]byte(text), &rows); err != nil {
		return nil, fmt.Errorf("parse matrix %q: %w", text, err)
	}

	return matrix.NewDenseFrom(rows)
}
