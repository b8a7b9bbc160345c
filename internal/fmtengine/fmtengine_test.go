package fmtengine

import "testing"

func TestFormat_ReindentsBraces(t *testing.T) {
	src := "def f x =\n{\nx + 1\n}\n"
	out, diags := Format(src, "t.aivi", DefaultOptions)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	want := "def f x =\n{\n  x + 1\n}\n"
	if out != want {
		t.Errorf("got:\n%q\nwant:\n%q", out, want)
	}
}

func TestFormat_DropsDanglingSignature(t *testing.T) {
	src := "greet : Text -> Text\ndef other x = x\n"
	out, _ := Format(src, "t.aivi", DefaultOptions)
	want := "def other x = x\n"
	if out != want {
		t.Errorf("expected dangling signature dropped, got:\n%q", out)
	}
}

func TestFormat_KeepsMatchedSignature(t *testing.T) {
	src := "greet : Text -> Text\ngreet = \"hi\"\n"
	out, _ := Format(src, "t.aivi", DefaultOptions)
	want := "greet : Text -> Text\ngreet = \"hi\"\n"
	if out != want {
		t.Errorf("expected matched signature kept, got:\n%q", out)
	}
}

func TestFormat_CollapsesExcessBlankLines(t *testing.T) {
	src := "def a = 1\n\n\n\n\ndef b = 2\n"
	out, _ := Format(src, "t.aivi", Options{IndentSize: 2, MaxBlankLines: 1})
	want := "def a = 1\n\ndef b = 2\n"
	if out != want {
		t.Errorf("got:\n%q\nwant:\n%q", out, want)
	}
}
