// Package template provides a template processor for SQL transform bodies
// with Starlark expressions. It supports {{ expr }} for expression
// evaluation, {% stmt %} for control flow and {# comment #} for comments
// that are dropped from the output.
package template

// Position tracks source location for error reporting.
type Position struct {
	File   string
	Line   int
	Column int
}

// Node is the interface for all template AST nodes.
type Node interface {
	Pos() Position
	node() // marker method to restrict implementation
}

// nodeBase provides common Position handling for all nodes.
type nodeBase struct {
	pos Position
}

func (n *nodeBase) Pos() Position { return n.pos }
func (n *nodeBase) node()         {}

// TextNode represents literal SQL text (passed through unchanged).
type TextNode struct {
	nodeBase
	Text string
}

// ExprNode represents a {{ expr }} expression.
// The Expr field contains the Starlark expression source (without delimiters).
type ExprNode struct {
	nodeBase
	Expr string
}

// StmtKind identifies the type of control flow statement.
type StmtKind int

// StmtKind constants for control flow statement types.
const (
	StmtUnknown StmtKind = iota // Unknown/invalid statement
	StmtFor                     // {% for x in items %}
	StmtEndFor                  // {% endfor %}
	StmtIf                      // {% if cond %}
	StmtElif                    // {% elif cond %}
	StmtElse                    // {% else %}
	StmtEndIf                   // {% endif %}
	StmtSet                     // {% set name = expr %}
)

func (k StmtKind) String() string {
	switch k {
	case StmtUnknown:
		return "unknown"
	case StmtFor:
		return "for"
	case StmtEndFor:
		return "endfor"
	case StmtIf:
		return "if"
	case StmtElif:
		return "elif"
	case StmtElse:
		return "else"
	case StmtEndIf:
		return "endif"
	case StmtSet:
		return "set"
	default:
		return "unknown"
	}
}

// StmtNode represents a {% stmt %} statement (raw from lexer, before parsing into blocks).
type StmtNode struct {
	nodeBase
	Kind     StmtKind
	Expr     string   // Condition (if/elif), iterator (for) or value expression (set)
	VarNames []string // Loop variable names (for) or assignment target (set)
}

// SetNode represents a {% set name = expr %} assignment.
// The binding is visible to the rest of the current block.
type SetNode struct {
	nodeBase
	Name string
	Expr string
}

// ForBlock represents a complete for loop with its body.
// Created by the parser from StmtNode pairs. Multiple loop variables unpack
// each element, as in {% for name, type in casts.items() %}.
type ForBlock struct {
	nodeBase
	VarNames []string // Loop variable names
	IterExpr string   // Iterator expression (evaluated by Starlark)
	Body     []Node   // Nodes inside the loop
}

// IfBlock represents a complete if/elif/else conditional.
// Created by the parser from StmtNode sequences.
type IfBlock struct {
	nodeBase
	Condition string   // if condition expression
	Body      []Node   // Nodes for the if branch
	ElseIfs   []Branch // elif branches (may be empty)
	Else      []Node   // else branch (may be nil)
}

// Branch represents an elif branch.
type Branch struct {
	Condition string
	Body      []Node
	pos       Position
}

// Template represents a complete parsed template.
type Template struct {
	Nodes []Node
	File  string // Source file path
}
