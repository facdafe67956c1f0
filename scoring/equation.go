package scoring

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/google/cel-go/cel"
	celast "github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/common/operators"

	"github.com/liamcoop/modelbench/model"
)

// FlowKind is the shape of a flow equation
type FlowKind int

const (
	Unclassified FlowKind = iota
	Fixed
	RateOf
)

func (k FlowKind) String() string {
	switch k {
	case Fixed:
		return "fixed"
	case RateOf:
		return "rate"
	default:
		return "unclassified"
	}
}

// Classification describes a flow equation.
// Value is the constant of a Fixed flow or the coefficient of a RateOf flow,
// Stock is the stock a RateOf flow is proportional to.
type Classification struct {
	Kind  FlowKind
	Value float64
	Stock string
}

// Matches reports whether c satisfies spec
func (c Classification) Matches(spec model.FlowSpec) bool {
	switch {
	case spec.Fixed != nil:
		return c.Kind == Fixed && sameNumber(c.Value, *spec.Fixed)
	case spec.Rate != nil:
		return c.Kind == RateOf && sameNumber(c.Value, *spec.Rate) && StrictMatch(c.Stock, spec.Of)
	default:
		return false
	}
}

// sameNumber compares with a relative tolerance so 1/50 and 0.02 agree
func sameNumber(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

// The parser environment holds no per-call state and is safe to share.
var equationEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv()
})

// parseEquation parses arithmetic text with the CEL grammar
func parseEquation(text string) (celast.Expr, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}
	env, err := equationEnv()
	if err != nil {
		return nil, false
	}
	parsed, issues := env.Parse(text)
	if issues != nil && issues.Err() != nil {
		return nil, false
	}
	return parsed.NativeRep().Expr(), true
}

// LiteralValue returns the number written in an equation that is a bare
// numeric literal, optionally negated or parenthesized. Arithmetic is not
// evaluated: "2+3" is not a literal.
func LiteralValue(equation string) (float64, bool) {
	text := strings.TrimSpace(equation)
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}
	expr, ok := parseEquation(text)
	if !ok {
		return 0, false
	}
	return literalNumber(expr)
}

func literalNumber(e celast.Expr) (float64, bool) {
	switch e.Kind() {
	case celast.LiteralKind:
		switch v := e.AsLiteral().Value().(type) {
		case float64:
			return v, true
		case int64:
			return float64(v), true
		case uint64:
			return float64(v), true
		}
	case celast.CallKind:
		call := e.AsCall()
		if call.FunctionName() == operators.Negate && len(call.Args()) == 1 {
			if v, ok := literalNumber(call.Args()[0]); ok {
				return -v, true
			}
		}
	}
	return 0, false
}

// ClassifyFlow inspects the equation of flow within m.
//
// A bare numeric literal is Fixed. A product of numeric factors and exactly
// one stock reference is RateOf that stock. A numeric factor is a literal or
// an auxiliary whose own equation is a literal and which has a relationship
// edge into flow; one level of indirection is followed, never more.
// Division by a numeric factor is folded into the coefficient. Everything
// else, including text that does not parse, is Unclassified.
func ClassifyFlow(flow model.Variable, m model.Model) Classification {
	if v, ok := LiteralValue(flow.Equation); ok {
		return Classification{Kind: Fixed, Value: v}
	}

	c := newFlowContext(flow, m)
	expr, ok := parseEquation(c.identifierize(flow.Equation))
	if !ok {
		return Classification{}
	}

	coefficient, constants := 1.0, 0
	var stocks []string
	if !c.collect(expr, false, &coefficient, &constants, &stocks) {
		return Classification{}
	}
	if len(stocks) != 1 || constants == 0 {
		return Classification{}
	}
	return Classification{Kind: RateOf, Value: coefficient, Stock: stocks[0]}
}

type flowContext struct {
	flow model.Variable
	rels []model.Relationship

	// byIdent resolves both the underscore form of a name and its generated token
	byIdent map[string]model.Variable
	tokens  []nameToken
}

// nameToken pairs a declared name with the identifier it is rewritten to
type nameToken struct {
	name  string
	token string
}

func newFlowContext(flow model.Variable, m model.Model) *flowContext {
	c := &flowContext{flow: flow, rels: m.Relationships, byIdent: make(map[string]model.Variable, 2*len(m.Variables))}
	tokenOf := make(map[string]string, len(m.Variables))
	for i, v := range m.Variables {
		key := identKey(v.Name)
		if _, dup := c.byIdent[key]; !dup {
			c.byIdent[key] = v
		}
		if !rewritable(v.Name) {
			continue
		}
		token, seen := tokenOf[key]
		if !seen {
			token = fmt.Sprintf("modelvar%d", i)
			tokenOf[key] = token
			c.byIdent[token] = v
		}
		c.tokens = append(c.tokens, nameToken{name: v.Name, token: token})
	}
	// Longest first so "birth rate" never clobbers "birth rate multiplier".
	sort.SliceStable(c.tokens, func(i, j int) bool {
		return len(c.tokens[i].name) > len(c.tokens[j].name)
	})
	return c
}

// rewritable reports whether name can be safely substituted in equation
// text: it needs a letter and must not read as a number
func rewritable(name string) bool {
	if _, err := strconv.ParseFloat(strings.TrimSpace(name), 64); err == nil {
		return false
	}
	return strings.IndexFunc(name, unicode.IsLetter) >= 0
}

// collect walks a product/quotient tree, multiplying numeric factors into
// coefficient and gathering stock references. invert marks a divisor.
func (c *flowContext) collect(e celast.Expr, invert bool, coefficient *float64, constants *int, stocks *[]string) bool {
	if e.Kind() == celast.CallKind {
		call := e.AsCall()
		args := call.Args()
		switch {
		case call.FunctionName() == operators.Multiply && len(args) == 2:
			return c.collect(args[0], invert, coefficient, constants, stocks) &&
				c.collect(args[1], invert, coefficient, constants, stocks)
		case call.FunctionName() == operators.Divide && len(args) == 2:
			return c.collect(args[0], invert, coefficient, constants, stocks) &&
				c.collect(args[1], !invert, coefficient, constants, stocks)
		}
	}

	if v, ok := c.constant(e); ok {
		if invert {
			if v == 0 {
				return false
			}
			v = 1 / v
		}
		*coefficient *= v
		*constants++
		return true
	}

	if invert || e.Kind() != celast.IdentKind {
		return false
	}
	v, ok := c.byIdent[identKey(e.AsIdent())]
	if !ok || v.Type.Normalize() != model.Stock {
		return false
	}
	*stocks = append(*stocks, v.Name)
	return true
}

// constant resolves a literal, or an auxiliary with a literal equation that
// feeds the flow through a declared relationship
func (c *flowContext) constant(e celast.Expr) (float64, bool) {
	if v, ok := literalNumber(e); ok {
		return v, true
	}
	if e.Kind() != celast.IdentKind {
		return 0, false
	}
	aux, ok := c.byIdent[identKey(e.AsIdent())]
	if !ok || aux.Type.Normalize() == model.Stock || StrictMatch(aux.Name, c.flow.Name) {
		return 0, false
	}
	value, ok := LiteralValue(aux.Equation)
	if !ok || !c.feedsFlow(aux.Name) {
		return 0, false
	}
	return value, true
}

func (c *flowContext) feedsFlow(name string) bool {
	for _, r := range c.rels {
		if StrictMatch(r.From, name) && StrictMatch(r.To, c.flow.Name) {
			return true
		}
	}
	return false
}

// identKey maps a variable name onto the identifier form used in equations
func identKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}

var quotedName = regexp.MustCompile(`"([^"]*)"`)

// identifierize rewrites every declared variable name in an equation, quoted
// or bare, into a generated identifier so a name like "in" or "birth-rate"
// parses as one reference. Quoted text naming no variable is joined with
// underscores.
func (c *flowContext) identifierize(equation string) string {
	out := quotedName.ReplaceAllStringFunc(equation, func(s string) string {
		inner := strings.Trim(s, `"`)
		for _, nt := range c.tokens {
			if identKey(nt.name) == identKey(inner) {
				return nt.token
			}
		}
		return strings.Join(strings.Fields(inner), "_")
	})

	for _, nt := range c.tokens {
		re, err := regexp.Compile(namePattern(nt.name))
		if err != nil {
			continue
		}
		out = re.ReplaceAllLiteralString(out, nt.token)
	}
	return out
}

// namePattern matches name case-insensitively with flexible inner whitespace,
// anchored on word boundaries where the name starts or ends with a word character
func namePattern(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	pattern := strings.Join(words, `\s+`)

	// \b is ASCII-only in RE2
	isWord := func(r rune) bool {
		return r < unicode.MaxASCII && (r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
	}
	trimmed := []rune(strings.TrimSpace(name))
	if isWord(trimmed[0]) {
		pattern = `\b` + pattern
	}
	if isWord(trimmed[len(trimmed)-1]) {
		pattern += `\b`
	}
	return `(?i)` + pattern
}
