package security

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"repopa/internal/core/apperror"
	appctx "repopa/internal/core/context"
)

// Action is what a request wants to do with a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resources named by the HTTP layer.
const (
	ResourceEntes   = "entes"
	ResourceRecords = "records"
	ResourceReports = "reports"
	ResourceStats   = "stats"
	ResourceUsers   = "users"
)

// Rule is a named CEL expression over role, action and resource. A
// request is allowed when any rule evaluates to true.
type Rule struct {
	Name string
	Expr string
}

// DefaultRules is the registry access policy.
var DefaultRules = []Rule{
	{
		Name: "read",
		Expr: `action == "read" && resource != "users" && role in ["Administrador", "Editor", "Lector"]`,
	},
	{
		Name: "write",
		Expr: `action in ["create", "update"] && resource != "users" && role in ["Administrador", "Editor"]`,
	},
	{
		Name: "admin",
		Expr: `role == "Administrador"`,
	},
}

type compiledRule struct {
	name string
	prg  cel.Program
}

// Policy is a compiled rule set. It is safe for concurrent use.
type Policy struct {
	rules []compiledRule
}

// NewPolicy compiles rules. Every rule must be a boolean expression.
func NewPolicy(rules []Rule) (*Policy, error) {
	env, err := cel.NewEnv(
		cel.Variable("role", cel.StringType),
		cel.Variable("action", cel.StringType),
		cel.Variable("resource", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	p := &Policy{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		ast, iss := env.Compile(r.Expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, iss.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("rule %s: expression must be bool, got %s", r.Name, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, err)
		}
		p.rules = append(p.rules, compiledRule{name: r.Name, prg: prg})
	}
	return p, nil
}

// MustDefault compiles DefaultRules and panics on failure.
func MustDefault() *Policy {
	p, err := NewPolicy(DefaultRules)
	if err != nil {
		panic(err)
	}
	return p
}

// Allowed reports whether role may perform action on resource.
func (p *Policy) Allowed(role Role, action Action, resource string) (bool, error) {
	vars := map[string]any{
		"role":     string(role),
		"action":   string(action),
		"resource": resource,
	}
	for _, r := range p.rules {
		out, _, err := r.prg.Eval(vars)
		if err != nil {
			return false, fmt.Errorf("rule %s: %w", r.name, err)
		}
		if ok, _ := out.Value().(bool); ok {
			return true, nil
		}
	}
	return false, nil
}

// Authorize checks the user in ctx.
func (p *Policy) Authorize(ctx context.Context, action Action, resource string) error {
	user := appctx.GetUser(ctx)
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	ok, err := p.Allowed(Role(user.Role), action, resource)
	if err != nil {
		return apperror.NewInternal(err)
	}
	if !ok {
		return apperror.NewForbidden(fmt.Sprintf("role %s may not %s %s", user.Role, action, resource)).
			WithDetail("action", string(action)).
			WithDetail("resource", resource)
	}
	return nil
}
