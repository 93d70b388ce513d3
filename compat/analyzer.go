package compat

import (
	"log/slog"

	"github.com/rubiojr/tourney/compiler"
)

// Cause classifies why a template is reported as different.
type Cause int

const (
	CauseNone Cause = iota
	// CauseParserIncompatibility: only one side could parse the template,
	// or the oracle's program could not be read back.
	CauseParserIncompatibility
	// CauseUnsupportedConstruct: the template defines functions or uses
	// interpolated template strings, which the oracle evaluates
	// differently by construction.
	CauseUnsupportedConstruct
	// CauseOutputMismatch: both programs parsed and differ structurally.
	CauseOutputMismatch
)

func (c Cause) String() string {
	switch c {
	case CauseParserIncompatibility:
		return "parser incompatibility"
	case CauseUnsupportedConstruct:
		return "unsupported construct"
	case CauseOutputMismatch:
		return "output mismatch"
	}
	return "none"
}

// ParserError records which side failed to parse a template.
type ParserError struct {
	Oracle   bool `json:"oracle"`
	Compiler bool `json:"compiler"`
}

// Difference is the analyzer's verdict for one template. Expression is
// nil when Unparseable is set or when the template is empty.
type Difference struct {
	Same        bool               `json:"same"`
	Expression  *Sanitized         `json:"expression,omitempty"`
	Unparseable bool               `json:"unparseable,omitempty"`
	Has         *compiler.Analysis `json:"has,omitempty"`
	ParserError *ParserError       `json:"parser_error,omitempty"`
	Cause       Cause              `json:"-"`
}

// Analyzer compares this module's programs with an oracle's.
type Analyzer struct {
	oracle Oracle
	logger *slog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.logger = l }
}

func NewAnalyzer(oracle Oracle, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{oracle: oracle}
	for _, o := range opts {
		o(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Difference compiles expr without hooks, asks the oracle for its
// program and classifies the outcome.
func (a *Analyzer) Difference(expr, dataNodeName string) Difference {
	if expr == "" {
		return Difference{Same: true}
	}

	ours, analysis, ourErr := compiler.Generate(expr, dataNodeName, compiler.Hooks{})
	theirs, oracleErr := a.oracle.ProgramText(expr)
	if ourErr != nil {
		a.logger.Debug("compiler rejected template", "error", ourErr)
	}
	if oracleErr != nil {
		a.logger.Debug("oracle rejected template", "error", oracleErr)
	}

	if ourErr == nil && (analysis.HasFunction || analysis.HasTemplateString) {
		return Difference{
			Expression: a.sanitize(expr),
			Has:        &analysis,
			Cause:      CauseUnsupportedConstruct,
		}
	}

	switch {
	case ourErr != nil && oracleErr != nil:
		return Difference{Same: true}
	case ourErr != nil:
		return Difference{
			Unparseable: true,
			ParserError: &ParserError{Compiler: true},
			Cause:       CauseParserIncompatibility,
		}
	case oracleErr != nil:
		return Difference{
			Expression:  a.sanitize(expr),
			ParserError: &ParserError{Oracle: true},
			Cause:       CauseParserIncompatibility,
		}
	}

	different, err := IsDifferent(theirs, ours)
	if err != nil {
		a.logger.Debug("oracle program unreadable", "error", err)
		return Difference{
			Expression:  a.sanitize(expr),
			ParserError: &ParserError{Oracle: true},
			Cause:       CauseParserIncompatibility,
		}
	}
	if different {
		return Difference{Expression: a.sanitize(expr), Cause: CauseOutputMismatch}
	}
	return Difference{Same: true, Expression: a.sanitize(expr)}
}

func (a *Analyzer) sanitize(expr string) *Sanitized {
	s, err := Sanitize(expr)
	if err != nil {
		a.logger.Debug("sanitizing failed, masking whole template", "error", err)
		return maskAll(expr)
	}
	return s
}
