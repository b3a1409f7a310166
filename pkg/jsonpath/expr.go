package jsonpath

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Expr is a precompiled boolean expression over a decoded frame's JSON
// value, per §4.2's selector/event-mapper "compact expression language":
// exists($.p), ==, !=, in [...], <, <=, >, >=, =~ /pat/, with left-to-right
// OR-of-AND-groups (no parentheses). Compilation happens once at
// pipeline-construction time (§4.2 "Rule precompilation"); Eval never
// re-parses the source string.
type Expr struct {
	orGroups [][]atom
	source   string
}

type opKind int

const (
	opExists opKind = iota
	opEq
	opNeq
	opIn
	opLt
	opLte
	opGt
	opGte
	opGlob
)

type atom struct {
	op   opKind
	path string
	// literal operand(s), decoded from the source text
	str    string
	num    float64
	isNum  bool
	isNull bool
	set    []string
}

// Compile parses a selector/match expression into an executable Expr.
// Returns an error for malformed input so invalid manifests fail at load
// time, not mid-stream.
func Compile(src string) (*Expr, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return &Expr{source: src}, nil
	}
	orParts := strings.Split(src, "||")
	groups := make([][]atom, 0, len(orParts))
	for _, orPart := range orParts {
		andParts := strings.Split(orPart, "&&")
		group := make([]atom, 0, len(andParts))
		for _, ap := range andParts {
			a, err := compileAtom(strings.TrimSpace(ap))
			if err != nil {
				return nil, fmt.Errorf("jsonpath: compiling %q: %w", src, err)
			}
			group = append(group, a)
		}
		groups = append(groups, group)
	}
	return &Expr{orGroups: groups, source: src}, nil
}

func compileAtom(s string) (atom, error) {
	if strings.HasPrefix(s, "exists(") && strings.HasSuffix(s, ")") {
		path := strings.TrimSuffix(strings.TrimPrefix(s, "exists("), ")")
		return atom{op: opExists, path: strings.TrimSpace(path)}, nil
	}

	for _, cand := range []struct {
		tok string
		op  opKind
	}{
		{"==", opEq}, {"!=", opNeq}, {"<=", opLte}, {">=", opGte},
		{"=~", opGlob}, {"<", opLt}, {">", opGt},
	} {
		if idx := strings.Index(s, cand.tok); idx >= 0 {
			path := strings.TrimSpace(s[:idx])
			rhs := strings.TrimSpace(s[idx+len(cand.tok):])
			a := atom{op: cand.op, path: path}
			return finishAtom(a, rhs)
		}
	}

	if idx := strings.Index(s, " in "); idx >= 0 {
		path := strings.TrimSpace(s[:idx])
		rhs := strings.TrimSpace(s[idx+4:])
		rhs = strings.TrimPrefix(rhs, "[")
		rhs = strings.TrimSuffix(rhs, "]")
		var set []string
		for _, item := range strings.Split(rhs, ",") {
			set = append(set, unquote(strings.TrimSpace(item)))
		}
		return atom{op: opIn, path: path, set: set}, nil
	}

	return atom{}, fmt.Errorf("unrecognized expression atom %q", s)
}

func finishAtom(a atom, rhs string) (atom, error) {
	if a.op == opGlob {
		rhs = strings.TrimPrefix(rhs, "/")
		rhs = strings.TrimSuffix(rhs, "/")
		a.str = rhs
		return a, nil
	}
	if rhs == "null" {
		a.isNull = true
		return a, nil
	}
	if n, err := strconv.ParseFloat(rhs, 64); err == nil {
		a.num = n
		a.isNum = true
		return a, nil
	}
	a.str = unquote(rhs)
	return a, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// Eval evaluates the compiled expression against frame. A nil/empty Expr
// (no selector configured) always evaluates true.
func (e *Expr) Eval(frame interface{}) bool {
	if e == nil || len(e.orGroups) == 0 {
		return true
	}
	for _, group := range e.orGroups {
		allTrue := true
		for _, a := range group {
			if !a.eval(frame) {
				allTrue = false
				break
			}
		}
		if allTrue {
			return true
		}
	}
	return false
}

// Source returns the original expression text (for diagnostics).
func (e *Expr) Source() string {
	if e == nil {
		return ""
	}
	return e.source
}

func (a atom) eval(frame interface{}) bool {
	val, present := Get(frame, a.path)
	switch a.op {
	case opExists:
		return present
	case opEq:
		return present && valEquals(val, a)
	case opNeq:
		if a.isNull {
			return !(present && val == nil)
		}
		return !(present && valEquals(val, a))
	case opIn:
		if !present {
			return false
		}
		s := toStr(val)
		for _, item := range a.set {
			if s == item {
				return true
			}
		}
		return false
	case opLt, opLte, opGt, opGte:
		if !present {
			return false
		}
		n, ok := toNum(val)
		if !ok {
			return false
		}
		switch a.op {
		case opLt:
			return n < a.num
		case opLte:
			return n <= a.num
		case opGt:
			return n > a.num
		case opGte:
			return n >= a.num
		}
	case opGlob:
		if !present {
			return false
		}
		ok, _ := filepath.Match(a.str, toStr(val))
		return ok
	}
	return false
}

func valEquals(val interface{}, a atom) bool {
	if a.isNull {
		return val == nil
	}
	if a.isNum {
		n, ok := toNum(val)
		return ok && n == a.num
	}
	return toStr(val) == a.str
}

func toStr(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}

func toNum(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		n, err := strconv.ParseFloat(x, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
