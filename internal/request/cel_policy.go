package request

import (
	"fmt"
	"strings"

	celgo "github.com/google/cel-go/cel"

	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
)

const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
)

// CELPolicy is the CEL rendition of ExprPolicy. The rule sees the same
// string variables and must type-check to bool.
type CELPolicy struct {
	rule    string
	program celgo.Program
}

func NewCELPolicy(rule string) (*CELPolicy, error) {
	env, err := celgo.NewEnv(
		celgo.Variable("from", celgo.StringType),
		celgo.Variable("to", celgo.StringType),
		celgo.Variable("role", celgo.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("build transition env: %w", err)
	}

	ast, issues := env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile transition rule %q: %w", rule, issues.Err())
	}
	if !ast.OutputType().IsExactType(celgo.BoolType) {
		return nil, fmt.Errorf("transition rule %q must return bool, got %s", rule, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("plan transition rule %q: %w", rule, err)
	}
	return &CELPolicy{rule: rule, program: program}, nil
}

func (p *CELPolicy) Allow(from, to Status, role coreUser.Role) (bool, error) {
	out, _, err := p.program.Eval(transitionEnv(from, to, role))
	if err != nil {
		return false, fmt.Errorf("evaluate transition rule %q: %w", p.rule, err)
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("transition rule %q returned %T", p.rule, out.Value())
	}
	return allowed, nil
}

func (p *CELPolicy) Rule() string {
	return p.rule
}

// PolicyFor picks the rule engine. An empty engine means expr.
func PolicyFor(engine, rule string) (TransitionPolicy, error) {
	if strings.TrimSpace(rule) == "" {
		return AllowAll{}, nil
	}
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprPolicy(rule)
	case EngineCEL:
		return NewCELPolicy(rule)
	default:
		return nil, fmt.Errorf("unknown transition rule engine %q", engine)
	}
}
