package rule

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Evaluator runs a CEL expression against ad hoc attributes. The engine's
// hot path goes through the compiled cache, this is the slow variant
// behind the expression test endpoint.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate exposes every attribute as a dyn variable and requires the
// expression to produce a bool.
func (e *Evaluator) Evaluate(expression string, attrs map[string]any) (bool, error) {
	if expression == "" {
		return false, fmt.Errorf("expression must not be empty")
	}

	if attrs == nil {
		attrs = map[string]any{}
	}

	vars := make([]*exprpb.Decl, 0, len(attrs))
	for name := range attrs {
		vars = append(vars, decls.NewVar(name, decls.Dyn))
	}

	env, err := cel.NewEnv(cel.Declarations(vars...))
	if err != nil {
		return false, fmt.Errorf("create cel env: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compile expression: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("build cel program: %w", err)
	}

	out, _, err := prg.Eval(attrs)
	if err != nil {
		return false, fmt.Errorf("evaluate expression: %w", err)
	}

	verdict, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return a boolean, got %T", out.Value())
	}

	return verdict, nil
}
