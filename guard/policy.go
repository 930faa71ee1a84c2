package guard

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
)

// ErrRejected is returned (wrapped) when a query fails a policy rule.
var ErrRejected = errors.New("query rejected by policy")

// Rule is a named CEL constraint on a query string.
// The expression sees a single `query` string variable and must evaluate to
// a boolean: true means the query passes the rule.
type Rule struct {
	// Name identifies the rule in rejection errors.
	Name string

	// Expression is the CEL source of the rule.
	Expression string

	// Message explains the rejection to the caller.
	Message string
}

// RejectionError reports which rule rejected a query.
type RejectionError struct {
	// Rule is the name of the rule that fired.
	Rule string

	// Message is the rule's explanation.
	Message string

	// Query is the rejected query string.
	Query string
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	return fmt.Sprintf("query rejected by policy rule %q: %s", e.Rule, e.Message)
}

// Unwrap makes errors.Is(err, ErrRejected) work.
func (e *RejectionError) Unwrap() error {
	return ErrRejected
}

type compiledRule struct {
	rule    Rule
	program cel.Program
}

// Policy is a compiled set of rules. It is safe for concurrent use.
type Policy struct {
	rules []compiledRule
}

// NewPolicy compiles the given rules into a policy.
func NewPolicy(rules ...Rule) (*Policy, error) {
	env, err := cel.NewEnv(
		cel.Variable("query", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Name == "" {
			return nil, fmt.Errorf("rule name cannot be empty")
		}

		ast, issues := env.Compile(rule.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("failed to compile rule %q: %w", rule.Name, issues.Err())
		}

		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("failed to build program for rule %q: %w", rule.Name, err)
		}

		compiled = append(compiled, compiledRule{rule: rule, program: program})
	}

	return &Policy{rules: compiled}, nil
}

// MustNewPolicy is like NewPolicy but panics on compilation failure.
// Use it for rule sets that are constants in the program.
func MustNewPolicy(rules ...Rule) *Policy {
	policy, err := NewPolicy(rules...)
	if err != nil {
		panic(err)
	}
	return policy
}

// DefaultPolicy returns the policy applied to generated retrieval queries:
// queries must be non-empty and must not contain mutating clauses.
func DefaultPolicy() *Policy {
	return MustNewPolicy(
		Rule{
			Name:       "non_empty",
			Expression: `query.size() > 0`,
			Message:    "query is empty",
		},
		Rule{
			Name:       "read_only",
			Expression: `!query.matches('(?i)\\b(create|merge|delete|detach|set|remove|drop|load\\s+csv)\\b')`,
			Message:    "mutating clauses are not allowed in retrieval queries",
		},
	)
}

// Check evaluates the query against every rule in order.
// It returns nil when all rules pass, or a *RejectionError for the first
// rule that fails.
func (p *Policy) Check(query string) error {
	for _, cr := range p.rules {
		out, _, err := cr.program.Eval(map[string]any{"query": query})
		if err != nil {
			return fmt.Errorf("rule %q evaluation failed: %w", cr.rule.Name, err)
		}

		passed, ok := out.Value().(bool)
		if !ok {
			return fmt.Errorf("rule %q did not evaluate to a boolean", cr.rule.Name)
		}

		if !passed {
			return &RejectionError{
				Rule:    cr.rule.Name,
				Message: cr.rule.Message,
				Query:   query,
			}
		}
	}
	return nil
}

// Rules returns the names of the policy's rules, in evaluation order.
func (p *Policy) Rules() []string {
	names := make([]string, len(p.rules))
	for i, cr := range p.rules {
		names[i] = cr.rule.Name
	}
	return names
}
