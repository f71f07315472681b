package request

import (
	"fmt"
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/frahmantamala/gearguard/internal"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
)

type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusRepaired   Status = "REPAIRED"
	StatusScrap      Status = "SCRAP"
)

// statuses is in board column order.
var statuses = []Status{StatusNew, StatusInProgress, StatusRepaired, StatusScrap}

func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

func (s Status) Valid() bool {
	for _, known := range statuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

type Type string

const (
	TypeCorrective Type = "CORRECTIVE"
	TypePreventive Type = "PREVENTIVE"
)

func (t Type) Valid() bool {
	return t == TypeCorrective || t == TypePreventive
}

func (t Type) String() string {
	return string(t)
}

func ParseType(raw string) (Type, bool) {
	t := Type(strings.ToUpper(strings.TrimSpace(raw)))
	return t, t.Valid()
}

// TransitionPolicy decides whether a status change is permitted.
// It is consulted only when the status actually changes.
type TransitionPolicy interface {
	Allow(from, to Status, role coreUser.Role) (bool, error)
}

// AllowAll permits every transition, including REPAIRED -> NEW.
type AllowAll struct{}

func (AllowAll) Allow(_, _ Status, _ coreUser.Role) (bool, error) {
	return true, nil
}

// ExprPolicy evaluates a boolean expr-lang rule over from, to and role,
// e.g. `from != "SCRAP" || role == "ADMIN"`.
type ExprPolicy struct {
	rule    string
	program *exprvm.Program
}

func transitionEnv(from, to Status, role coreUser.Role) map[string]any {
	return map[string]any{
		"from": string(from),
		"to":   string(to),
		"role": string(role),
	}
}

func NewExprPolicy(rule string) (*ExprPolicy, error) {
	program, err := exprlang.Compile(rule,
		exprlang.Env(transitionEnv("", "", "")),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile transition rule %q: %w", rule, err)
	}
	return &ExprPolicy{rule: rule, program: program}, nil
}

func (p *ExprPolicy) Allow(from, to Status, role coreUser.Role) (bool, error) {
	out, err := exprlang.Run(p.program, transitionEnv(from, to, role))
	if err != nil {
		return false, fmt.Errorf("evaluate transition rule %q: %w", p.rule, err)
	}
	allowed, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("transition rule %q returned %T", p.rule, out)
	}
	return allowed, nil
}

func (p *ExprPolicy) Rule() string {
	return p.rule
}

// PolicyFromRule compiles an expr-lang rule; empty means AllowAll.
func PolicyFromRule(rule string) (TransitionPolicy, error) {
	return PolicyFor(EngineExpr, rule)
}

// CheckTransition returns ErrTransitionNotAllowed when the policy rejects the move.
func CheckTransition(policy TransitionPolicy, from, to Status, role coreUser.Role) error {
	if from == to {
		return nil
	}
	if policy == nil {
		policy = AllowAll{}
	}
	allowed, err := policy.Allow(from, to, role)
	if err != nil {
		return internal.NewInternalError("transition policy failed", err)
	}
	if !allowed {
		return internal.ErrTransitionNotAllowed.WithDetails(map[string]string{
			"from": string(from),
			"to":   string(to),
		})
	}
	return nil
}
