package prompt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTemplateRender(t *testing.T) {
	tmpl := MustTemplate("greet", "v1", "Pergunta: {{.question}}")
	out, err := tmpl.Render(map[string]any{"question": "O que é venda casada?"})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if out != "Pergunta: O que é venda casada?" {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := tmpl.Render(map[string]any{}); err == nil {
		t.Fatalf("expected missing key to fail")
	}
}

func TestNewTemplateParseError(t *testing.T) {
	if _, err := NewTemplate("broken", "v1", "{{.x"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestManagerVersions(t *testing.T) {
	m := NewManager()
	if err := m.RegisterString("answer", "v1", "one {{.q}}"); err != nil {
		t.Fatalf("register v1: %v", err)
	}
	if err := m.RegisterString("answer", "v2", "two {{.q}}"); err != nil {
		t.Fatalf("register v2: %v", err)
	}
	if err := m.RegisterString("answer", "v1", "dup"); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}

	out, err := m.Render("answer", "v2", map[string]any{"q": "x"})
	if err != nil || out != "two x" {
		t.Fatalf("Render v2 = %q, %v", out, err)
	}
	if _, err := m.Get("answer", "v3"); err == nil {
		t.Fatalf("expected unknown version to fail")
	}

	if err := m.Replace(MustTemplate("answer", "v1", "replaced")); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	out, _ = m.Render("answer", "v1", nil)
	if out != "replaced" {
		t.Fatalf("expected replaced template, got %q", out)
	}

	if diff := cmp.Diff([]string{"answer@v1", "answer@v2"}, m.List()); diff != "" {
		t.Fatalf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestManagerRejectsUnnamed(t *testing.T) {
	if err := NewManager().Register(&Template{}); err == nil {
		t.Fatalf("expected empty name to fail")
	}
}
