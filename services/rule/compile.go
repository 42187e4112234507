package rule

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// evalVars are the attributes submission and kit events expose to rules.
// Compiling against a fixed declaration set keeps programs cacheable.
var evalVars = []string{
	"quantity",
	"total_quantity",
	"channel",
	"product_type",
	"optic_cnpj",
	"seller_id",
	"campaign_id",
	"campaign_points",
}

func newRuleEnv() (*cel.Env, error) {
	declarations := make([]*exprpb.Decl, 0, len(evalVars))
	for _, name := range evalVars {
		declarations = append(declarations, decls.NewVar(name, decls.Dyn))
	}
	return cel.NewEnv(cel.Declarations(declarations...))
}

type CompiledRule struct {
	ID      string
	Rule    Rule
	Program cel.Program
}

func compileRule(env *cel.Env, r Rule) (*CompiledRule, error) {
	ast, issues := env.Compile(r.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile failed for rule %s: %w", r.ID, issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program failed for rule %s: %w", r.ID, err)
	}

	return &CompiledRule{ID: r.ID, Rule: r, Program: program}, nil
}

func (r *CompiledRule) evaluate(ctx map[string]interface{}) (bool, error) {
	if r.Program == nil {
		return false, fmt.Errorf("compiled program is nil for rule %s", r.ID)
	}

	// Eval do cel-go devolve tres valores: Value, Details, Error
	val, _, err := r.Program.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval failed for rule %s: %w", r.ID, err)
	}

	// resultado da expression em CEL e bool
	matched, ok := val.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %s did not return boolean", r.ID)
	}

	return matched, nil
}
