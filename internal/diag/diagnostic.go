package diag

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
)

// Severity distinguishes a build-failing error from an advisory warning.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Label attaches a secondary message to a span within a diagnostic, e.g.
// "note: declared here".
type Label struct {
	Span    Span
	Message string
}

// Diagnostic is immutable once constructed: no field is ever mutated after
// New returns. Code is a stable alphanumeric tag such as "E3100" or
// "PAR1500" (see codes.go): most phases use a prefix (LEX, PAR, HIR, KER,
// RIR, RUN, POOL, FMT), while resolver and type-checker codes are numeric
// E2xxx/W21xx and E3xxx/W31xx tags.
type Diagnostic struct {
	code     string
	severity Severity
	message  string
	span     Span
	labels   []Label
}

// New constructs a Diagnostic. labels is copied so later mutation of the
// caller's slice cannot leak into the diagnostic.
func New(code string, severity Severity, message string, span Span, labels ...Label) Diagnostic {
	ls := make([]Label, len(labels))
	copy(ls, labels)
	return Diagnostic{code: code, severity: severity, message: message, span: span, labels: ls}
}

func Errorf(code string, span Span, format string, args ...any) Diagnostic {
	return New(code, SeverityError, fmt.Sprintf(format, args...), span)
}

func Warnf(code string, span Span, format string, args ...any) Diagnostic {
	return New(code, SeverityWarning, fmt.Sprintf(format, args...), span)
}

func (d Diagnostic) Code() string        { return d.code }
func (d Diagnostic) Severity() Severity  { return d.severity }
func (d Diagnostic) Message() string     { return d.message }
func (d Diagnostic) Span() Span          { return d.span }
func (d Diagnostic) Labels() []Label     { return d.labels }
func (d Diagnostic) IsError() bool       { return d.severity == SeverityError }

// FileDiagnostic pairs a path with a Diagnostic so a batch of diagnostics
// spanning multiple files can be sorted and rendered together.
type FileDiagnostic struct {
	Path string
	Diag Diagnostic
}

// Render formats a diagnostic in the fixed textual form required by §6.2:
// code, severity, message, file:line:col. The severity is colored through
// fatih/color, so coloring follows that package's global NoColor setting;
// embedded-stdlib
// paths (<embedded:...>) are rendered the same as any other path since
// filtering them out of the visible set is the caller's job.
func Render(fd FileDiagnostic) string {
	sev := fd.Diag.Severity().String()
	colored := sev
	switch fd.Diag.Severity() {
	case SeverityError:
		colored = color.New(color.FgRed, color.Bold).Sprint(sev)
	case SeverityWarning:
		colored = color.New(color.FgYellow, color.Bold).Sprint(sev)
	}
	loc := fmt.Sprintf("%s:%d:%d", fd.Path, fd.Diag.Span().Start.Line, fd.Diag.Span().Start.Column)
	out := fmt.Sprintf("%s: %s [%s] %s", loc, colored, fd.Diag.Code(), fd.Diag.Message())
	for _, l := range fd.Diag.Labels() {
		out += fmt.Sprintf("\n    note %s: %s", l.Span, l.Message)
	}
	return out
}

// SortBatch orders diagnostics deterministically: by file path, then by
// start line/column, then by code. Rendering depends on this order being
// stable across runs so golden output does not flap.
func SortBatch(fds []FileDiagnostic) {
	sort.SliceStable(fds, func(i, j int) bool {
		a, b := fds[i], fds[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		as, bs := a.Diag.Span().Start, b.Diag.Span().Start
		if as.Line != bs.Line {
			return as.Line < bs.Line
		}
		if as.Column != bs.Column {
			return as.Column < bs.Column
		}
		return a.Diag.Code() < b.Diag.Code()
	})
}

// ExitCode implements §6.2: 0 on success, 1 if any diagnostic is an error.
// Warnings alone never fail the build.
func ExitCode(fds []FileDiagnostic) int {
	for _, fd := range fds {
		if fd.Diag.IsError() {
			return 1
		}
	}
	return 0
}
