package translate

import (
	"fmt"
	"math"
	"strings"

	"github.com/xtxerr/ktimport/internal/errors"
)

// Enumeration maps the predefined labels of a SET metric to codes. The first
// declared label is code 0.
type Enumeration struct {
	labels []string
	codes  map[string]int16
}

// NewEnumeration builds an enumeration from labels in declaration order.
// A repeated label keeps its first code; every repeat is reported as a
// warning wrapping errors.ErrDuplicateLabel. More distinct labels than int16
// codes returns errors.ErrTooManyLabels.
func NewEnumeration(labels []string) (*Enumeration, []error, error) {
	e := &Enumeration{
		labels: make([]string, 0, len(labels)),
		codes:  make(map[string]int16, len(labels)),
	}

	var warnings []error
	for _, l := range labels {
		if _, ok := e.codes[l]; ok {
			warnings = append(warnings, fmt.Errorf("%q: %w", l, errors.ErrDuplicateLabel))
			continue
		}
		if len(e.labels) > math.MaxInt16 {
			return nil, warnings, fmt.Errorf("more than %d: %w", math.MaxInt16+1, errors.ErrTooManyLabels)
		}
		e.codes[l] = int16(len(e.labels))
		e.labels = append(e.labels, l)
	}
	return e, warnings, nil
}

// Code returns the code of label.
func (e *Enumeration) Code(label string) (int16, bool) {
	c, ok := e.codes[label]
	return c, ok
}

// Len returns the number of distinct labels.
func (e *Enumeration) Len() int {
	return len(e.labels)
}

// Unit returns the unit label of the value column, e.g.
// "0: Low, 1: Medium, 2: High".
func (e *Enumeration) Unit() string {
	parts := make([]string, len(e.labels))
	for i, l := range e.labels {
		parts[i] = fmt.Sprintf("%d: %s", i, l)
	}
	return strings.Join(parts, ", ")
}
