package hir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mendrik/aivi/internal/parser"
)

// desugarSource is a small helper: parse then desugar, failing the test
// on any diagnostic from either stage.
func desugarSource(t *testing.T, src string) *Program {
	t.Helper()
	p := parser.New(src, "test.aivi")
	mod := p.ParseModule()
	if diags := p.Diagnostics(); len(diags) > 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	d := NewDesugarer()
	prog := d.Desugar(mod)
	if diags := d.Diagnostics(); len(diags) > 0 {
		t.Fatalf("unexpected desugar diagnostics: %v", diags)
	}
	return prog
}

// structureOpts ignores node ids and source spans so two desugared
// programs can be compared by shape alone, independent of how they were
// spaced or where their tokens fell in the source file: base is the
// bookkeeping struct embedded in every Expr node, and Def carries its
// own Id/NameSpan outside of base.
var structureOpts = cmp.Options{
	cmpopts.IgnoreTypes(base{}),
	cmpopts.IgnoreFields(Def{}, "Id", "NameSpan"),
}

func TestDesugar_WhitespaceVariantsProduceIdenticalShape(t *testing.T) {
	compact := `module M
def inc x = x + 1
`
	spread := `module M

def inc x =
  x + 1
`
	got := desugarSource(t, spread)
	want := desugarSource(t, compact)

	if diff := cmp.Diff(want, got, structureOpts); diff != "" {
		t.Errorf("desugared shape differs only by source spacing (-want +got):\n%s", diff)
	}
}

func TestDesugar_ParamWithLambdaWrapsBody(t *testing.T) {
	prog := desugarSource(t, "module M\ndef inc x = x + 1\n")
	if len(prog.Defs) != 1 {
		t.Fatalf("expected 1 def, got %d", len(prog.Defs))
	}
	lam, ok := prog.Defs[0].Body.(*Lambda)
	if !ok {
		t.Fatalf("expected a parameterized def to desugar to a Lambda body, got %T", prog.Defs[0].Body)
	}
	if diff := cmp.Diff([]string{"x"}, lam.Params); diff != "" {
		t.Errorf("unexpected lambda params (-want +got):\n%s", diff)
	}
}
