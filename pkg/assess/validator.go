package assess

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprValidator evaluates predicates through boolean expressions over the
// action context. Each predicate maps to one compiled expression; a
// predicate without an expression is accepted.
//
//	v, _ := assess.NewExprValidator(map[string]string{
//	    "na rinju": "!(violates_autonomy ?? false)",
//	})
//	v.Validate("na rinju", map[string]any{"violates_autonomy": true}) // false
type ExprValidator struct {
	programs map[string]*vm.Program
	logger   *slog.Logger
}

// NewExprValidator compiles every rule up front. Context keys missing at
// run time evaluate to nil.
func NewExprValidator(rules map[string]string) (*ExprValidator, error) {
	programs := make(map[string]*vm.Program, len(rules))
	var errs []error

	for predicate, code := range rules {
		program, err := expr.Compile(code, expr.AsBool(), expr.AllowUndefinedVariables())
		if err != nil {
			errs = append(errs, fmt.Errorf("predicate %q: %w", predicate, err))
			continue
		}
		programs[predicate] = program
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &ExprValidator{
		programs: programs,
		logger:   slog.Default().With("component", "assess.validator"),
	}, nil
}

// Validate implements Validator. A run-time error rejects the predicate.
func (v *ExprValidator) Validate(predicate string, ctx map[string]any) bool {
	program, ok := v.programs[predicate]
	if !ok {
		return true
	}

	env := ctx
	if env == nil {
		env = map[string]any{}
	}

	out, err := expr.Run(program, env)
	if err != nil {
		v.logger.Debug("predicate evaluation failed", "predicate", predicate, "error", err)
		return false
	}
	accepted, _ := out.(bool)
	return accepted
}

// Rules returns the number of compiled predicate rules.
func (v *ExprValidator) Rules() int {
	return len(v.programs)
}
