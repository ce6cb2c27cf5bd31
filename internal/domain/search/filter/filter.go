package filter

import (
	"fmt"
	"strings"
	"time"
)

// MaxOperandsPerGroup is the maximum number of operands in an and/or group.
const MaxOperandsPerGroup = 64

// Operator is a filter tree operator, named after the store's where operators.
type Operator string

// Operators.
const (
	OpAnd              Operator = "And"
	OpOr               Operator = "Or"
	OpEqual            Operator = "Equal"
	OpLike             Operator = "Like"
	OpGreaterThanEqual Operator = "GreaterThanEqual"
	OpLessThanEqual    Operator = "LessThanEqual"
)

// IsGroup reports whether the operator combines operands.
func (o Operator) IsGroup() bool { return o == OpAnd || o == OpOr }

// Node is an immutable filter tree: a group (and/or) of operands or a leaf
// comparing one property against a text or date value. The zero Node is empty.
type Node struct {
	op       Operator
	path     string
	text     string
	date     time.Time
	operands []Node
}

// And combines non-empty operands. A single operand is returned unwrapped.
func And(operands ...Node) Node { return group(OpAnd, operands) }

// Or combines non-empty operands. A single operand is returned unwrapped.
func Or(operands ...Node) Node { return group(OpOr, operands) }

func group(op Operator, operands []Node) Node {
	kept := make([]Node, 0, len(operands))
	for _, o := range operands {
		if !o.IsEmpty() {
			kept = append(kept, o)
		}
	}
	switch len(kept) {
	case 0:
		return Node{}
	case 1:
		return kept[0]
	}
	return Node{op: op, operands: kept}
}

// Equal matches a property exactly.
func Equal(path, value string) Node {
	return Node{op: OpEqual, path: path, text: value}
}

// Like matches a property against a wildcard pattern (* any run, ? one char).
func Like(path, pattern string) Node {
	return Node{op: OpLike, path: path, text: pattern}
}

// Contains is a Like wrapping value in wildcards for literal substring matching.
// Wildcard characters inside value are removed; the store has no escape for them.
func Contains(path, value string) Node {
	return Like(path, "*"+StripWildcards(value)+"*")
}

// StripWildcards removes the Like metacharacters * and ? from s.
func StripWildcards(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '*' || r == '?' {
			return -1
		}
		return r
	}, s)
}

// OnOrAfter matches dates at or after t (inclusive lower bound).
func OnOrAfter(path string, t time.Time) Node {
	return Node{op: OpGreaterThanEqual, path: path, date: t}
}

// OnOrBefore matches dates at or before t (inclusive upper bound).
func OnOrBefore(path string, t time.Time) Node {
	return Node{op: OpLessThanEqual, path: path, date: t}
}

// Op returns the operator.
func (n Node) Op() Operator { return n.op }

// Path returns the property a leaf compares.
func (n Node) Path() string { return n.path }

// Text returns the text operand of Equal/Like leaves.
func (n Node) Text() string { return n.text }

// Date returns the date operand of range leaves.
func (n Node) Date() time.Time { return n.date }

// Operands returns a group's children.
func (n Node) Operands() []Node { return n.operands }

// IsEmpty reports whether the node carries no condition.
func (n Node) IsEmpty() bool { return n.op == "" }

// IsDate reports whether the leaf compares dates.
func (n Node) IsDate() bool { return n.op == OpGreaterThanEqual || n.op == OpLessThanEqual }

// Validate checks structural limits of the tree.
func (n Node) Validate() error {
	if n.IsEmpty() {
		return nil
	}
	if n.op.IsGroup() {
		if len(n.operands) > MaxOperandsPerGroup {
			return fmt.Errorf("too many %s operands (max %d)", n.op, MaxOperandsPerGroup)
		}
		for _, o := range n.operands {
			if err := o.Validate(); err != nil {
				return err
			}
		}
		return nil
	}
	if n.path == "" {
		return fmt.Errorf("filter path is required for %s", n.op)
	}
	if !n.IsDate() && n.text == "" {
		return fmt.Errorf("value is required for %s on %q", n.op, n.path)
	}
	return nil
}

// Leaves returns the number of leaf conditions in the tree.
func (n Node) Leaves() int {
	if n.IsEmpty() {
		return 0
	}
	if !n.op.IsGroup() {
		return 1
	}
	total := 0
	for _, o := range n.operands {
		total += o.Leaves()
	}
	return total
}

// String renders the tree for logs, e.g. And(Like(title,*bail*), GreaterThanEqual(date,2020-01-01)).
func (n Node) String() string {
	if n.IsEmpty() {
		return ""
	}
	if n.op.IsGroup() {
		parts := make([]string, len(n.operands))
		for i, o := range n.operands {
			parts[i] = o.String()
		}
		return string(n.op) + "(" + strings.Join(parts, ", ") + ")"
	}
	if n.IsDate() {
		return fmt.Sprintf("%s(%s,%s)", n.op, n.path, n.date.Format("2006-01-02"))
	}
	return fmt.Sprintf("%s(%s,%s)", n.op, n.path, n.text)
}

// Record exposes property values to in-memory evaluation.
type Record interface {
	Text(path string) string
	Date(path string) (time.Time, bool)
}

// Matches evaluates the tree against a record. Like is case-sensitive; the
// builder expands case variants where the store would need them. An empty
// tree matches everything.
func (n Node) Matches(r Record) bool {
	switch n.op {
	case "":
		return true
	case OpAnd:
		for _, o := range n.operands {
			if !o.Matches(r) {
				return false
			}
		}
		return true
	case OpOr:
		for _, o := range n.operands {
			if o.Matches(r) {
				return true
			}
		}
		return false
	case OpEqual:
		return r.Text(n.path) == n.text
	case OpLike:
		return wildcardMatch(n.text, r.Text(n.path))
	case OpGreaterThanEqual:
		d, ok := r.Date(n.path)
		return ok && !d.Before(n.date)
	case OpLessThanEqual:
		d, ok := r.Date(n.path)
		return ok && !d.After(n.date)
	}
	return false
}

// wildcardMatch matches s against pattern where * is any run and ? one rune.
func wildcardMatch(pattern, s string) bool {
	p, str := []rune(pattern), []rune(s)
	pi, si := 0, 0
	star, mark := -1, 0
	for si < len(str) {
		switch {
		case pi < len(p) && (p[pi] == '?' || p[pi] == str[si]):
			pi++
			si++
		case pi < len(p) && p[pi] == '*':
			star, mark = pi, si
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}
