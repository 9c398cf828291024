// Package expr implements the guard language used by card effects and
// target criteria: boolean combinations of comparisons over dotted paths
// resolved against a typed context.
//
//	owner.shadows >= 20 && !self.evolved
//	target.type == "Monster" and (target.attack > 2 or target.evolved)
package expr

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Expression is a disjunction of conjunctions.
type Expression struct {
	Or []*AndExpr `parser:"@@ ( ( '||' | 'or' ) @@ )*"`
}

// AndExpr is a conjunction of possibly negated terms.
type AndExpr struct {
	And []*NotExpr `parser:"@@ ( ( '&&' | 'and' ) @@ )*"`
}

// NotExpr negates a term or wraps a comparison.
type NotExpr struct {
	Not *NotExpr    `parser:"  ( '!' | 'not' ) @@"`
	Cmp *Comparison `parser:"| @@"`
}

// Comparison compares two operands. Without an operator the left operand
// must itself be boolean.
type Comparison struct {
	Left  *Operand `parser:"@@"`
	Op    string   `parser:"( @( '==' | '!=' | '<=' | '>=' | '<' | '>' )"`
	Right *Operand `parser:"  @@ )?"`
}

// Operand is a literal, a context path or a parenthesised expression.
type Operand struct {
	Int  *int        `parser:"  @Int"`
	Str  *string     `parser:"| @String"`
	Bool *Boolean    `parser:"| @( 'true' | 'false' )"`
	Path []string    `parser:"| @Ident ( '.' @Ident )*"`
	Sub  *Expression `parser:"| '(' @@ ')'"`
}

// Boolean captures the true/false keywords.
type Boolean bool

// Capture implements participle.Capture.
func (b *Boolean) Capture(values []string) error {
	*b = values[0] == "true"
	return nil
}

var guardLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
	{Name: "Int", Pattern: `-?\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Operator", Pattern: `==|!=|<=|>=|&&|\|\||[<>!().]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var guardParser = participle.MustBuild[Expression](
	participle.Lexer(guardLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)
