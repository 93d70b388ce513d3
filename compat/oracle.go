// Package compat compares generated programs with those of the legacy
// template interpreter and reports where the two disagree.
package compat

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Oracle produces the legacy interpreter's program text for a template.
type Oracle interface {
	ProgramText(expr string) (string, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(expr string) (string, error)

func (f OracleFunc) ProgramText(expr string) (string, error) { return f(expr) }

// ErrNotRecorded is returned by a RecordedOracle for unknown templates.
var ErrNotRecorded = errors.New("no recorded oracle output")

// Recording is the oracle's answer for one template: program text, or
// the message of the error it failed with.
type Recording struct {
	Program string
	Error   string
}

// RecordedOracle answers from recordings keyed by template.
type RecordedOracle map[string]Recording

func (r RecordedOracle) ProgramText(expr string) (string, error) {
	rec, ok := r[expr]
	if !ok {
		return "", fmt.Errorf("%q: %w", expr, ErrNotRecorded)
	}
	if rec.Error != "" {
		return "", errors.New(rec.Error)
	}
	return rec.Program, nil
}

// Fixture is one entry of a fixture file.
type Fixture struct {
	Expression  string `yaml:"expression"`
	Oracle      string `yaml:"oracle"`
	OracleError string `yaml:"oracle_error"`
}

// LoadFixtures decodes a YAML list of fixtures.
func LoadFixtures(r io.Reader) ([]Fixture, error) {
	var fixtures []Fixture
	if err := yaml.NewDecoder(r).Decode(&fixtures); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding fixtures: %w", err)
	}
	for i, f := range fixtures {
		if f.Oracle == "" && f.OracleError == "" {
			return nil, fmt.Errorf("fixture %d (%q): needs oracle or oracle_error", i, f.Expression)
		}
	}
	return fixtures, nil
}

// RecordedOracleFrom builds an oracle answering with the fixtures' recordings.
func RecordedOracleFrom(fixtures []Fixture) RecordedOracle {
	o := make(RecordedOracle, len(fixtures))
	for _, f := range fixtures {
		o[f.Expression] = Recording{Program: f.Oracle, Error: f.OracleError}
	}
	return o
}
