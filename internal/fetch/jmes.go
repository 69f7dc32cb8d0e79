package fetch

import (
	"fmt"

	"github.com/jmespath/go-jmespath"
)

// EvalAny returns the raw value selected by the JMESPath expression.
// It is safe to pass any decoded JSON (map[string]any, []any, etc.)
// It will return nil and no error if the expression does not match anything.
func EvalAny(expression string, payload any) (any, error) {
	v, err := jmespath.Search(expression, payload)
	if err != nil {
		return nil, fmt.Errorf("jmespath: %w", err)
	}
	return v, nil
}

// EvalBool coerces the selection to a boolean; a non-boolean or missing
// selection is false. Feature flags in upstream config objects are booleans
// or nested objects whose presence the expression tests.
func EvalBool(expression string, payload any) bool {
	v, err := EvalAny(expression, payload)
	if err != nil || v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
