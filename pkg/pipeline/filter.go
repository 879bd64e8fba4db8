package pipeline

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/specimport/pkg/canonical"
)

// filterEnv is the environment filter expressions are evaluated against.
type filterEnv struct {
	Method  string            `expr:"method"`
	Name    string            `expr:"name"`
	URL     string            `expr:"url"`
	Headers map[string]string `expr:"headers"`
}

// Filter selects requests with a boolean expr-lang expression over method,
// name, url and headers (lowercased names), e.g.
//
//	method == "GET" && url contains "/users"
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles expression. It fails when the expression does not
// type-check or does not produce a bool.
func CompileFilter(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("filter: empty expression")
	}
	program, err := expr.Compile(expression, expr.Env(filterEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", expression, err)
	}
	return &Filter{source: expression, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.source }

// Match reports whether req passes the filter. A runtime error counts as no
// match.
func (f *Filter) Match(req canonical.Request) (bool, error) {
	headers := make(map[string]string, len(req.Headers))
	for _, h := range req.Headers {
		headers[strings.ToLower(h.Name)] = h.Value
	}
	env := filterEnv{
		Method:  req.Method,
		Name:    req.Name,
		URL:     req.URL,
		Headers: headers,
	}

	out, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("filter %q: %w", f.source, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}
