// Package classifier resolves where and how a metric is stored: its category,
// numeric kind and column kind, and the table name derived from its name.
package classifier

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/xtxerr/ktimport/internal/metric"
)

// Classifier maps metric names to storage configuration. It is immutable
// and safe for concurrent use.
type Classifier struct {
	defaults  metric.Config
	overrides map[string]metric.Override
}

// New creates a classifier from a global default and per-name overrides.
// The overrides map is copied.
func New(defaults metric.Config, overrides map[string]metric.Override) *Classifier {
	c := &Classifier{
		defaults:  defaults,
		overrides: make(map[string]metric.Override, len(overrides)),
	}
	for name, o := range overrides {
		c.overrides[name] = o
	}
	return c
}

// Defaults returns the global default configuration.
func (c *Classifier) Defaults() metric.Config {
	return c.defaults
}

// Resolve returns the configuration for the metric called name. An override
// always wins; kinds it leaves unset come from the global default.
func (c *Classifier) Resolve(name string) metric.Config {
	if o, ok := c.overrides[name]; ok {
		return o.Apply(c.defaults)
	}
	return c.defaults
}

// Overridden reports whether name has a watch entry.
func (c *Classifier) Overridden(name string) bool {
	_, ok := c.overrides[name]
	return ok
}

var qualifiedName = regexp.MustCompile(`^([a-z]+)\(([a-z]+)\)`)

// TableName derives the storage table name from a metric name: lowercased,
// whitespace removed, and "<word>(<word>)" rewritten to "<word>_<word>".
// Anything after the closing parenthesis is dropped.
func TableName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	name = strings.ToLower(name)

	if m := qualifiedName.FindStringSubmatch(name); m != nil {
		return m[1] + "_" + m[2]
	}
	return name
}
