// Package condition evaluates filter expressions such as "available > 0" or
// "status = 'active' and price < 100" against a record.
//
// The grammar covers literals, record field references, arithmetic,
// comparisons and and/or/not. There are no calls, attribute access or
// assignments. A field whose name is not an identifier is referenced in
// backticks: "`unit-price` > 5".
package condition

import (
	"fmt"
	"strings"
)

// Expr is a compiled condition.
type Expr struct {
	src  string
	root node
}

// Compile parses a condition. The returned error is a *SyntaxError.
func Compile(src string) (*Expr, error) {
	root, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Expr{src: strings.TrimSpace(src), root: root}, nil
}

// MustCompile is like Compile but panics on a malformed condition.
func MustCompile(src string) *Expr {
	expr, err := Compile(src)
	if err != nil {
		panic(fmt.Sprintf("condition: Compile(%q): %v", src, err))
	}
	return expr
}

// String returns the source of the condition.
func (e *Expr) String() string {
	return e.src
}

// Eval evaluates the condition against record and reports its truthiness.
// Field names in the condition are resolved from the record; an unknown
// field is an *EvalError.
func (e *Expr) Eval(record map[string]any) (bool, error) {
	value, err := e.root.eval(record)
	if err != nil {
		return false, err
	}
	return truthy(value), nil
}

// Evaluate compiles and evaluates condition against record. It fails open:
// any parse or evaluation error yields true so the record is kept.
func Evaluate(condition string, record map[string]any) bool {
	expr, err := Compile(condition)
	if err != nil {
		return true
	}
	ok, err := expr.Eval(record)
	if err != nil {
		return true
	}
	return ok
}
