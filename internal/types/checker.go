// Package types implements aivi's Hindley-Milner type checker: row
// polymorphic records, effect-row tracking through effect/resource/
// generate blocks, type class constraint solving with numeric
// defaulting, and match exhaustiveness (spec §4.4, §4.7, §4.8).
//
// The representation layer (Type, TCon, TList, TRecord, TVar, Row,
// Scheme) and the unification/dictionary machinery are reusable across
// any front end; Checker is the piece that walks aivi's actual surface
// (ast.Module declarations) and desugared (hir.Program expressions)
// trees and drives that machinery.
package types

import (
	"fmt"

	"github.com/mendrik/aivi/internal/ast"
	"github.com/mendrik/aivi/internal/diag"
	"github.com/mendrik/aivi/internal/hir"
)

// ConstructorInfo records one ADT constructor's declaring type and field
// types, used both to type Call/ConstructorPattern nodes by name and to
// drive match exhaustiveness.
type ConstructorInfo struct {
	TypeName string
	Fields   []Type
}

// Checker holds all state accumulated across one module's type check.
type Checker struct {
	instanceEnv      *InstanceEnv
	unifier          *Unifier
	defaultingConfig *DefaultingConfig
	debugMode        bool

	constructors map[string]*ConstructorInfo // ctor name -> info
	variants     map[string][]string         // type name -> ctor names, declaration order
	aliases      map[string]ast.TypeExpr
	classes      map[string]*ast.ClassDecl

	freshCounter int
	diags        []diag.Diagnostic
}

// NewChecker creates a checker with the builtin instance environment and
// Int/Float numeric defaulting enabled (spec §4.4's default behavior).
func NewChecker() *Checker {
	return &Checker{
		instanceEnv:      LoadBuiltinInstances(),
		unifier:          NewUnifier(),
		defaultingConfig: NewDefaultingConfig(),
		constructors:     make(map[string]*ConstructorInfo),
		variants:         make(map[string][]string),
		aliases:          make(map[string]ast.TypeExpr),
		classes:          make(map[string]*ast.ClassDecl),
	}
}

func (c *Checker) fresh() *TVar2 {
	c.freshCounter++
	return &TVar2{Name: fmt.Sprintf("t%d", c.freshCounter), Kind: Star}
}

func (c *Checker) freshRow(kind Kind) *RowVar {
	c.freshCounter++
	return &RowVar{Name: fmt.Sprintf("r%d", c.freshCounter), Kind: kind}
}

func (c *Checker) errorf(code string, span diag.Span, format string, args ...any) {
	c.diags = append(c.diags, diag.Errorf(code, span, format, args...))
}

func (c *Checker) warnf(code string, span diag.Span, format string, args ...any) {
	c.diags = append(c.diags, diag.Warnf(code, span, format, args...))
}

// applySubstitutionToConstraints rewrites each constraint's type through
// sub; used by the generalization-boundary defaulting pass.
func (c *Checker) applySubstitutionToConstraints(sub Substitution, constraints []ClassConstraint) []ClassConstraint {
	out := make([]ClassConstraint, len(constraints))
	for i, cc := range constraints {
		out[i] = ClassConstraint{Class: cc.Class, Type: ApplySubstitution(sub, cc.Type), Path: cc.Path}
	}
	return out
}

// CheckProgram type-checks every def in prog against the declarations
// found in mod, returning the diagnostics produced (empty, never nil, on
// a clean pass). mod and prog must come from the same source file: mod
// supplies TypeSig/TypeDecl/ClassDecl/InstanceDecl, prog supplies the
// desugared bodies those declarations describe (instance method bodies
// are already flattened into prog.Defs by the desugarer).
func CheckProgram(mod *ast.Module, prog *hir.Program) []diag.Diagnostic {
	c := NewChecker()
	c.checkModule(mod, prog)
	if c.diags == nil {
		return []diag.Diagnostic{}
	}
	return c.diags
}

func (c *Checker) checkModule(mod *ast.Module, prog *hir.Program) {
	globals := NewTypeEnvWithBuiltins()
	sigs := make(map[string]ast.TypeExpr)

	for _, item := range mod.Items {
		switch d := item.(type) {
		case *ast.TypeAlias:
			c.aliases[d.Name] = d.Type
		}
	}
	for _, item := range mod.Items {
		switch d := item.(type) {
		case *ast.TypeDecl:
			c.declareType(d)
		case *ast.TypeSig:
			sigs[d.Name] = d.Type
		case *ast.ClassDecl:
			c.classes[d.Name] = d
			for _, m := range d.Members {
				sigs[m.Name] = m.Type
			}
		}
	}

	// Seed every top-level def with either its declared signature or a
	// fresh type variable, so mutually-recursive defs can resolve forward
	// references (classic letrec typing).
	defScheme := make(map[string]*Scheme, len(prog.Defs))
	for _, def := range prog.Defs {
		if sig, ok := sigs[def.Name]; ok {
			t, tvars := c.surfaceType(sig)
			defScheme[def.Name] = &Scheme{TypeVars: tvars, Type: t}
		} else {
			defScheme[def.Name] = &Scheme{Type: c.fresh()}
		}
		globals.bindBuiltin(def.Name, defScheme[def.Name])
	}
	for name, info := range c.constructors {
		globals.bindBuiltin(name, &Scheme{Type: c.constructorType(info)})
	}

	for _, inst := range instanceDecls(mod) {
		c.registerInstance(inst)
	}

	for _, def := range prog.Defs {
		declared := defScheme[def.Name]
		bodyT, constraints := c.infer(def.Body, globals)

		sub, err := c.unifier.Unify(declared.Type, bodyT, Substitution{})
		if err != nil {
			c.errorf(TCUnify, def.Body.Span(), "%s: %v", def.Name, err)
			continue
		}
		resolved := ApplySubstitution(sub, bodyT)
		constraints = c.applySubstitutionToConstraints(sub, constraints)

		_, resolved, constraints, err = c.defaultAmbiguitiesTopLevel(resolved, constraints)
		if err != nil {
			c.errorf(TCAmbiguous, def.Body.Span(), "%s: %v", def.Name, err)
			continue
		}
		c.resolveConstraints(def.Name, def.Body.Span(), constraints)
		_ = resolved
	}
}

func instanceDecls(mod *ast.Module) []*ast.InstanceDecl {
	var out []*ast.InstanceDecl
	for _, item := range mod.Items {
		if d, ok := item.(*ast.InstanceDecl); ok {
			out = append(out, d)
		}
	}
	return out
}

// resolveConstraints looks up each remaining class constraint in the
// instance environment (spec §4.4 class/instance resolution), emitting
// E3102 for anything still unsolved after defaulting.
func (c *Checker) resolveConstraints(defName string, span diag.Span, constraints []ClassConstraint) {
	for _, cc := range constraints {
		if _, err := c.instanceEnv.Lookup(cc.Class, cc.Type); err != nil {
			c.errorf(TCNoInstance, span, "%s: %v", defName, err)
		}
	}
}

// registerInstance records a user-declared instance's methods in the
// instance environment so later constraint resolution can find it;
// method bodies are type-checked where they appear in prog.Defs (the
// desugarer already flattens InstanceDecl bodies there).
func (c *Checker) registerInstance(inst *ast.InstanceDecl) {
	if _, ok := c.classes[inst.ClassName]; !ok {
		c.errorf(TCNoInstance, inst.Span(), "instance of undeclared class %s", inst.ClassName)
		return
	}
	paramType, _ := c.surfaceType(inst.Param)
	dict := Dict{}
	for _, def := range inst.Defs {
		dict[def.Name] = fmt.Sprintf("%s::%s::%s", inst.ClassName, NormalizeTypeName(paramType), def.Name)
	}
	if err := c.instanceEnv.Add(&ClassInstance{ClassName: inst.ClassName, TypeHead: paramType, Dict: dict}); err != nil {
		c.warnf(TCAmbiguous, inst.Span(), "%v", err)
	}
}

// declareType registers an ADT or record TypeDecl's constructors for
// constructor typing and exhaustiveness checking.
func (c *Checker) declareType(d *ast.TypeDecl) {
	if d.Record != nil {
		return // record type alias; no constructors to register
	}
	var names []string
	for _, ctor := range d.Variants {
		fields := make([]Type, len(ctor.Fields))
		for i, f := range ctor.Fields {
			fields[i], _ = c.surfaceType(f)
		}
		c.constructors[ctor.Name] = &ConstructorInfo{TypeName: d.Name, Fields: fields}
		names = append(names, ctor.Name)
	}
	c.variants[d.Name] = names
}

// constructorType builds the curried-as-TFunc2 type of a data
// constructor: its field types to the named type constructor it builds.
func (c *Checker) constructorType(info *ConstructorInfo) Type {
	ret := Type(&TCon{Name: info.TypeName})
	if len(info.Fields) == 0 {
		return ret
	}
	return &TFunc2{Params: info.Fields, Return: ret}
}
