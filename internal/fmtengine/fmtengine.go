// Package fmtengine reformats aivi source (spec §4.10): bracket-nesting
// indentation, a persistent indent for `|`-prefixed match/type-variant
// blocks, and the "only emit `name : Type` if immediately followed by
// `name =`" rule for standalone type signatures. This is a pragmatic
// line-oriented subset of the three-pass token-alignment algorithm in
// format_text_with_options_body.rs — full column alignment of effect
// binds, match arms, and map-literal keys is not attempted (see
// DESIGN.md).
package fmtengine

import (
	"strings"

	"github.com/mendrik/aivi/internal/lexer"
)

// Options mirrors the Rust formatter's indent_size/max_blank_lines
// knobs, clamped the same way.
type Options struct {
	IndentSize    int
	MaxBlankLines int
}

func (o Options) normalize() Options {
	if o.IndentSize < 1 {
		o.IndentSize = 1
	} else if o.IndentSize > 16 {
		o.IndentSize = 16
	}
	if o.MaxBlankLines < 0 {
		o.MaxBlankLines = 0
	} else if o.MaxBlankLines > 10 {
		o.MaxBlankLines = 10
	}
	return o
}

// DefaultOptions matches the formatter's documented defaults.
var DefaultOptions = Options{IndentSize: 2, MaxBlankLines: 2}

type line struct {
	tokens []lexer.CstToken // significant tokens on this source line, trivia stripped
	raw    string
}

// Format reformats content and returns the result plus any lex
// diagnostics surfaced while tokenizing (formatting continues over lex
// errors, per spec §4.1's "always continues to produce tokens").
func Format(content, file string, opts Options) (string, []string) {
	opts = opts.normalize()
	toks, diags := lexer.Tokenize(content, file)
	diagMsgs := make([]string, len(diags))
	for i, d := range diags {
		diagMsgs[i] = d.Message
	}

	rawLines := strings.Split(content, "\n")
	lines := groupByLine(lexer.SignificantOnly(toks), rawLines)

	indent := strings.Repeat(" ", opts.IndentSize)
	var out []string
	depth := 0
	pipeIndent := -1 // depth at which the current `|`-block's extra indent applies; -1 = none
	blanks := 0

	for i, ln := range lines {
		if len(ln.tokens) == 0 {
			blanks++
			if blanks <= opts.MaxBlankLines {
				out = append(out, "")
			}
			continue
		}
		blanks = 0

		lineDepth := depth
		first := ln.tokens[0]
		if first.Kind == lexer.CstSymbol && isCloser(first.Text) {
			lineDepth--
		}
		extra := 0
		if first.Kind == lexer.CstSymbol && first.Text == "|" && pipeIndent == depth {
			extra = 1
		}

		if isDanglingSignature(ln, lines, i) {
			continue
		}
		out = append(out, strings.Repeat(indent, clampDepth(lineDepth+extra))+renderLine(ln))

		for _, t := range ln.tokens {
			if t.Kind != lexer.CstSymbol {
				continue
			}
			switch {
			case isOpener(t.Text):
				depth++
			case isCloser(t.Text):
				depth--
				if pipeIndent >= depth {
					pipeIndent = -1
				}
			case t.Text == "|" && pipeIndent == -1:
				pipeIndent = depth
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n") + "\n", diagMsgs
}

func clampDepth(d int) int {
	if d < 0 {
		return 0
	}
	return d
}

func isOpener(s string) bool {
	return s == "{" || s == "(" || s == "["
}

func isCloser(s string) bool {
	return s == "}" || s == ")" || s == "]"
}

func groupByLine(toks []lexer.CstToken, rawLines []string) []line {
	lines := make([]line, len(rawLines))
	for i := range rawLines {
		lines[i].raw = rawLines[i]
	}
	for _, t := range toks {
		if t.Kind == lexer.CstComment {
			continue
		}
		idx := t.Span.Start.Line - 1
		if idx < 0 || idx >= len(lines) {
			continue
		}
		lines[idx].tokens = append(lines[idx].tokens, t)
	}
	return lines
}

// renderLine re-joins a line's significant tokens with single spaces,
// except immediately before `,` and `;` and after open brackets / before
// close brackets, matching the common case the Rust formatter produces
// for code that was already reasonably spaced.
func renderLine(ln line) string {
	var b strings.Builder
	for i, t := range ln.tokens {
		if i > 0 {
			prev := ln.tokens[i-1]
			if !(t.Kind == lexer.CstSymbol && (t.Text == "," || t.Text == ";")) &&
				!(prev.Kind == lexer.CstSymbol && isOpener(prev.Text)) &&
				!(t.Kind == lexer.CstSymbol && isCloser(t.Text)) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

// isDanglingSignature implements "only emit `name : Type` if immediately
// followed by `name =`": a standalone `ident : ...` line whose very
// next non-blank line does not start `ident =` is suppressed (dropped),
// since it describes a binding the formatter cannot otherwise keep in
// sync.
func isDanglingSignature(ln line, lines []line, i int) bool {
	if len(ln.tokens) < 2 {
		return false
	}
	if ln.tokens[0].Kind != lexer.CstIdent || ln.tokens[1].Kind != lexer.CstSymbol || ln.tokens[1].Text != ":" {
		return false
	}
	name := ln.tokens[0].Text
	for j := i + 1; j < len(lines); j++ {
		next := lines[j]
		if len(next.tokens) == 0 {
			continue
		}
		return !(next.tokens[0].Kind == lexer.CstIdent && next.tokens[0].Text == name &&
			len(next.tokens) > 1 && next.tokens[1].Kind == lexer.CstSymbol && next.tokens[1].Text == "=")
	}
	return true
}
