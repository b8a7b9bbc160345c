package mcpmanifest

import (
	"testing"

	"github.com/mendrik/aivi/internal/ast"
)

func TestCollect_ToolWithSignature(t *testing.T) {
	mod := &ast.Module{
		Name: "app.greet",
		Items: []ast.ModuleItem{
			&ast.TypeSig{Name: "hello", Type: &ast.FuncTypeExpr{
				Param:  &ast.TypeName{Name: "Text"},
				Result: &ast.TypeName{Name: "Effect", Args: []ast.TypeExpr{&ast.TypeName{Name: "World"}, &ast.TypeName{Name: "Text"}}},
			}},
			&ast.Def{
				Decorators: []ast.Decorator{{Name: "mcp_tool"}},
				Name:       "hello",
				Params:     []ast.Pattern{&ast.Ident{Name: "name"}},
				Body:       &ast.Ident{Name: "name"},
			},
		},
	}

	m := Collect(map[string]*ast.Module{"app.greet": mod})
	if len(m.Tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(m.Tools))
	}
	tool := m.Tools[0]
	if tool.Name != "app.greet.hello" {
		t.Errorf("expected qualified name 'app.greet.hello', got %q", tool.Name)
	}
	if !tool.Effectful {
		t.Error("expected tool with Effect return type to be marked effectful")
	}
	props, ok := tool.InputSchema["properties"].(map[string]any)
	if !ok {
		t.Fatal("expected properties map in schema")
	}
	if _, ok := props["name"]; !ok {
		t.Errorf("expected 'name' parameter in schema, got %v", props)
	}
}

func TestCollect_Resource(t *testing.T) {
	mod := &ast.Module{
		Name: "app.config",
		Items: []ast.ModuleItem{
			&ast.Def{Decorators: []ast.Decorator{{Name: "mcp_resource"}}, Name: "current"},
		},
	}
	m := Collect(map[string]*ast.Module{"app.config": mod})
	if len(m.Resources) != 1 || m.Resources[0].Name != "app.config.current" {
		t.Errorf("expected 1 resource named app.config.current, got %+v", m.Resources)
	}
}

func TestVisibleTools_FiltersEffectfulByDefault(t *testing.T) {
	m := &Manifest{Tools: []Tool{{Name: "a", Effectful: true}, {Name: "b", Effectful: false}}}
	visible := m.VisibleTools(Policy{})
	if len(visible) != 1 || visible[0].Name != "b" {
		t.Errorf("expected only the pure tool to be visible by default, got %+v", visible)
	}
	visible = m.VisibleTools(Policy{AllowEffectfulTools: true})
	if len(visible) != 2 {
		t.Errorf("expected both tools visible when effectful tools are allowed, got %d", len(visible))
	}
}

func TestSchemaForType_RowOpPick(t *testing.T) {
	source := &ast.RecordTypeExpr{Fields: []ast.RecordFieldType{
		{Name: "id", Type: &ast.TypeName{Name: "Int"}},
		{Name: "name", Type: &ast.TypeName{Name: "Text"}},
	}}
	pick := &ast.TypeName{Name: "Pick", Args: []ast.TypeExpr{&ast.TypeName{Name: "name"}, source}}

	schema := schemaForType(pick)
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatal("expected properties map")
	}
	if _, ok := props["name"]; !ok {
		t.Errorf("expected 'name' field to survive Pick, got %v", props)
	}
	if _, ok := props["id"]; ok {
		t.Errorf("expected 'id' field to be excluded by Pick, got %v", props)
	}
}

func TestIsEffectful_SyntacticWalk(t *testing.T) {
	effectBody := &ast.Block{Kind: ast.BlockEffect}
	if !isEffectful(nil, &ast.Def{Body: effectBody}) {
		t.Error("expected a def whose body is an effect block to be effectful")
	}

	pureBody := &ast.BinaryOp{Op: "+", Left: &ast.Ident{Name: "x"}, Right: &ast.Ident{Name: "y"}}
	if isEffectful(nil, &ast.Def{Body: pureBody}) {
		t.Error("expected a pure arithmetic body to not be effectful")
	}
}
