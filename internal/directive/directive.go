// Package directive parses the line-oriented configuration language that sets
// global classification defaults and per-metric overrides.
//
// Grammar, one directive per line, a blank line ends the block:
//
//	set default_category <name>
//	set default_numeric_kind <numeric kind>
//	set default_column_kind <column kind>
//	watch "<metric name>" <category> [<numeric kind>] [<column kind>]
//
// A bad line is recorded as a warning and skipped; it never aborts the load.
package directive

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode"

	"github.com/xtxerr/ktimport/config"
	"github.com/xtxerr/ktimport/internal/errors"
	"github.com/xtxerr/ktimport/internal/kind"
	"github.com/xtxerr/ktimport/internal/metric"
	"github.com/xtxerr/ktimport/internal/validation"
)

// Result is the outcome of parsing a directive block.
type Result struct {
	Defaults  metric.Config
	Overrides map[string]metric.Override

	// Warnings holds one *errors.DirectiveError per skipped line, plus a
	// wrapped errors.ErrConfigNotFound when the file was missing.
	Warnings []error
}

func newResult() *Result {
	return &Result{
		Defaults:  metric.DefaultConfig(),
		Overrides: make(map[string]metric.Override),
	}
}

// Load parses the directive file at path. A missing file is not an error: the
// built-in defaults are returned with a warning.
func Load(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			res := newResult()
			res.Warnings = append(res.Warnings, fmt.Errorf("%q: %w", path, errors.ErrConfigNotFound))
			return res, nil
		}
		return nil, fmt.Errorf("open directives: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads directives from r until a blank line or EOF.
func Parse(r io.Reader) (*Result, error) {
	res := newResult()

	br := bufio.NewReader(r)
	lineNo := 0
	for {
		raw, rerr := br.ReadString('\n')
		if rerr != nil && rerr != io.EOF {
			return nil, fmt.Errorf("read directives: %w", rerr)
		}
		if rerr == io.EOF && raw == "" {
			break
		}
		lineNo++

		text := strings.TrimRightFunc(raw, unicode.IsSpace)
		if text == "" {
			break
		}

		var err error
		if len(text) > config.MaxDirectiveLine {
			err = fmt.Errorf("line longer than %d bytes: %w", config.MaxDirectiveLine, errors.ErrMalformedDirective)
			text = text[:64] + "..."
		} else {
			err = res.apply(text)
		}
		if err != nil {
			res.Warnings = append(res.Warnings, &errors.DirectiveError{
				Line: lineNo,
				Text: text,
				Err:  err,
			})
		}

		if rerr == io.EOF {
			break
		}
	}

	return res, nil
}

// LogWarnings reports every warning on log.
func (r *Result) LogWarnings(log *slog.Logger) {
	for _, w := range r.Warnings {
		var de *errors.DirectiveError
		if errors.As(w, &de) {
			log.Warn("skipping directive", "line", de.Line, "error", de.Err)
			continue
		}
		log.Warn("directives", "error", w)
	}
}

func (r *Result) apply(text string) error {
	fields := strings.Fields(text)
	if len(fields) < 3 {
		return fmt.Errorf("expected at least 3 tokens, got %d: %w", len(fields), errors.ErrMalformedDirective)
	}

	switch fields[0] {
	case "set", "watch":
	default:
		return fmt.Errorf("%q: %w", fields[0], errors.ErrUnknownCommand)
	}

	ln, err := lineParser.ParseString("", text)
	if err != nil {
		return fmt.Errorf("%v: %w", err, errors.ErrMalformedDirective)
	}

	switch {
	case ln.Set != nil:
		return r.set(ln.Set)
	case ln.Watch != nil:
		return r.watch(ln.Watch)
	default:
		return errors.ErrMalformedDirective
	}
}

func (r *Result) set(s *setLine) error {
	switch s.Key {
	case "default_category":
		if err := validation.ValidateCategory(s.Value); err != nil {
			return fmt.Errorf("%v: %w", err, errors.ErrMalformedDirective)
		}
		r.Defaults.Category = s.Value
	case "default_numeric_kind", "default_numpy_type":
		n, err := kind.ParseNumeric(s.Value)
		if err != nil {
			return err
		}
		r.Defaults.Numeric = n
	case "default_column_kind", "default_pytables_type":
		c, err := kind.ParseColumn(s.Value)
		if err != nil {
			return err
		}
		r.Defaults.Column = c
	default:
		return fmt.Errorf("%q: %w", s.Key, errors.ErrUnknownSetting)
	}
	return nil
}

func (r *Result) watch(w *watchLine) error {
	name := w.name()
	if name == "" {
		return fmt.Errorf("empty metric name: %w", errors.ErrMalformedDirective)
	}
	if err := validation.ValidateCategory(w.Category); err != nil {
		return fmt.Errorf("%v: %w", err, errors.ErrMalformedDirective)
	}

	o := metric.Override{Category: w.Category}
	if w.Numeric != "" {
		n, err := kind.ParseNumeric(w.Numeric)
		if err != nil {
			return err
		}
		o.Numeric = n
	}
	if w.Column != "" {
		c, err := kind.ParseColumn(w.Column)
		if err != nil {
			return err
		}
		o.Column = c
	}

	r.Overrides[name] = o
	return nil
}
