package condition

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
)

// EvalError reports a condition that parsed but could not be evaluated
// against a record, e.g. an unknown field or an ordering between a string
// and a number.
type EvalError struct {
	Msg string
}

func (e *EvalError) Error() string {
	return "evaluation error: " + e.Msg
}

func evalErrorf(format string, args ...any) error {
	return &EvalError{Msg: fmt.Sprintf(format, args...)}
}

type node interface {
	eval(record map[string]any) (any, error)
}

type literal struct {
	value any
}

func (n *literal) eval(map[string]any) (any, error) {
	return n.value, nil
}

type field struct {
	name string
}

func (n *field) eval(record map[string]any) (any, error) {
	value, ok := record[n.name]
	if !ok {
		return nil, evalErrorf("unknown field %q", n.name)
	}
	return normalize(value), nil
}

type negation struct {
	operand node
}

func (n *negation) eval(record map[string]any) (any, error) {
	value, err := n.operand.eval(record)
	if err != nil {
		return nil, err
	}
	return !truthy(value), nil
}

// logical short-circuits and yields the deciding operand, like Python.
type logical struct {
	op          tokenKind
	left, right node
}

func (n *logical) eval(record map[string]any) (any, error) {
	left, err := n.left.eval(record)
	if err != nil {
		return nil, err
	}
	if n.op == tokAnd && !truthy(left) {
		return left, nil
	}
	if n.op == tokOr && truthy(left) {
		return left, nil
	}
	return n.right.eval(record)
}

type sign struct {
	negative bool
	operand  node
}

func (n *sign) eval(record map[string]any) (any, error) {
	value, err := n.operand.eval(record)
	if err != nil {
		return nil, err
	}
	num, ok := toNumber(value)
	if !ok {
		return nil, evalErrorf("bad operand type for unary sign: %s", typeName(value))
	}
	if n.negative {
		return -num, nil
	}
	return num, nil
}

type arithmetic struct {
	op          tokenKind
	left, right node
}

func (n *arithmetic) eval(record map[string]any) (any, error) {
	left, err := n.left.eval(record)
	if err != nil {
		return nil, err
	}
	right, err := n.right.eval(record)
	if err != nil {
		return nil, err
	}
	if n.op == tokPlus {
		ls, lok := left.(string)
		rs, rok := right.(string)
		if lok && rok {
			return ls + rs, nil
		}
	}
	l, lok := toNumber(left)
	r, rok := toNumber(right)
	if !lok || !rok {
		return nil, evalErrorf("unsupported operand types for %s: %s and %s", n.op, typeName(left), typeName(right))
	}
	switch n.op {
	case tokPlus:
		return l + r, nil
	case tokMinus:
		return l - r, nil
	case tokStar:
		return l * r, nil
	case tokSlash:
		if r == 0 {
			return nil, evalErrorf("division by zero")
		}
		return l / r, nil
	case tokPercent:
		if r == 0 {
			return nil, evalErrorf("modulo by zero")
		}
		// Python semantics: the result takes the sign of the divisor.
		m := math.Mod(l, r)
		if m != 0 && (m < 0) != (r < 0) {
			m += r
		}
		return m, nil
	}
	return nil, evalErrorf("unknown arithmetic operator %s", n.op)
}

// comparison supports chains: a < b <= c means a < b and b <= c.
type comparison struct {
	operands []node
	ops      []tokenKind
}

func (n *comparison) eval(record map[string]any) (any, error) {
	left, err := n.operands[0].eval(record)
	if err != nil {
		return nil, err
	}
	for i, op := range n.ops {
		right, err := n.operands[i+1].eval(record)
		if err != nil {
			return nil, err
		}
		ok, err := compare(op, left, right)
		if err != nil {
			return nil, err
		}
		if !ok {
			return false, nil
		}
		left = right
	}
	return true, nil
}

func compare(op tokenKind, left, right any) (bool, error) {
	switch op {
	case tokEq:
		return equal(left, right), nil
	case tokNe:
		return !equal(left, right), nil
	}

	if l, ok := toNumber(left); ok {
		if r, ok := toNumber(right); ok {
			return order(op, cmpFloat(l, r)), nil
		}
	}
	if l, ok := left.(string); ok {
		if r, ok := right.(string); ok {
			return order(op, cmpString(l, r)), nil
		}
	}
	return false, evalErrorf("'%s' not supported between %s and %s", op, typeName(left), typeName(right))
}

func order(op tokenKind, c int) bool {
	switch op {
	case tokLt:
		return c < 0
	case tokLe:
		return c <= 0
	case tokGt:
		return c > 0
	case tokGe:
		return c >= 0
	}
	return false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func equal(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if l, ok := toNumber(left); ok {
		if r, ok := toNumber(right); ok {
			return l == r
		}
		return false
	}
	if l, ok := left.(string); ok {
		r, ok := right.(string)
		return ok && l == r
	}
	return reflect.DeepEqual(left, right)
}

// normalize folds the numeric types a record may carry into float64.
func normalize(value any) any {
	if _, isBool := value.(bool); isBool {
		return value
	}
	if num, ok := toNumber(value); ok {
		return num
	}
	return value
}

// toNumber treats booleans as 1 and 0, as Python does in numeric contexts.
func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	}
	if num, ok := toNumber(value); ok {
		return num != 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() > 0
	}
	return true
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case float64:
		return "number"
	}
	return fmt.Sprintf("%T", value)
}

// IsEvalError reports whether err came from evaluating a well-formed condition.
func IsEvalError(err error) bool {
	var target *EvalError
	return errors.As(err, &target)
}
