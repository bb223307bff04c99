package directive

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var lineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Quoted", Pattern: `"[^"]*"`},
	{Name: "Word", Pattern: `[^\s"]+`},
	{Name: "space", Pattern: `\s+`},
})

// line is one directive. Exactly one of the fields is set.
type line struct {
	Set   *setLine   `  "set" @@`
	Watch *watchLine `| "watch" @@`
}

// setLine is `set <key> <value>`. Trailing words are ignored.
type setLine struct {
	Key   string   `@Word`
	Value string   `@Word`
	Rest  []string `@Word*`
}

// watchLine is `watch "<name>" <category> [<numeric>] [<column>]`. Trailing
// words are ignored.
type watchLine struct {
	Name     string   `@Quoted`
	Category string   `@Word`
	Numeric  string   `@Word?`
	Column   string   `@Word?`
	Rest     []string `@Word*`
}

// name returns the metric name without its quotes.
func (w *watchLine) name() string {
	if len(w.Name) < 2 {
		return ""
	}
	return w.Name[1 : len(w.Name)-1]
}

var lineParser = participle.MustBuild[line](
	participle.Lexer(lineLexer),
	participle.Elide("space"),
)
