package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Backend selects a rendering surface.
type Backend uint8

const (
	// BackendJS renders JavaScript; integer division truncates toward zero.
	BackendJS Backend = iota
	// BackendPython renders Python; integer division floors.
	BackendPython
	// BackendTeX renders LaTeX for display.
	BackendTeX
)

func (b Backend) String() string {
	switch b {
	case BackendJS:
		return "js"
	case BackendPython:
		return "python"
	case BackendTeX:
		return "tex"
	default:
		return fmt.Sprintf("backend(%d)", uint8(b))
	}
}

// ParseBackend accepts "js", "python" or "tex" (and the aliases
// "javascript", "py", "latex").
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "js", "javascript":
		return BackendJS, nil
	case "python", "py":
		return BackendPython, nil
	case "tex", "latex":
		return BackendTeX, nil
	default:
		return 0, fmt.Errorf("unknown backend %q (want js, python or tex)", s)
	}
}

// Names maps identifiers to the names that should appear in rendered text.
// A nil Names renders every identifier as itself.
type Names map[string]string

// Resolve returns the preferred name for key, or key itself.
func (n Names) Resolve(key string) string {
	if preferred, ok := n[key]; ok && preferred != "" {
		return preferred
	}
	return key
}

// JS renders the node as a JavaScript expression using internal identifiers.
func (n *Node) JS() string {
	return Render(n, BackendJS, nil)
}

// Python renders the node as a Python expression. Identifiers are passed
// through names; math functions are referenced as math.*.
func (n *Node) Python(names Names) string {
	return Render(n, BackendPython, names)
}

// TeX renders the node as a LaTeX math-mode fragment.
func (n *Node) TeX(names Names) string {
	return Render(n, BackendTeX, names)
}

// Render renders n for backend b, resolving identifiers through names.
// Rendering is pure; the same names map is threaded to every nested node.
func Render(n *Node, b Backend, names Names) string {
	p := printer{backend: b, names: names}
	return p.render(n)
}

type printer struct {
	backend Backend
	names   Names
}

func (p printer) pick(js, py, tex string) string {
	switch p.backend {
	case BackendPython:
		return py
	case BackendTeX:
		return tex
	default:
		return js
	}
}

func (p printer) trueLit() string  { return p.pick("true", "True", `\text{true}`) }
func (p printer) falseLit() string { return p.pick("false", "False", `\text{false}`) }

func (p printer) render(n *Node) string {
	switch n.kind.Shape() {
	case ShapeNullary:
		if n.kind == KindNum {
			return p.number(n.value)
		}
		return p.names.Resolve(n.name)
	case ShapeUnary:
		form := unaryForms[n.kind]
		if p.backend == BackendTeX && n.kind == KindFactorial {
			return fmt.Sprintf(form.tex, p.texOperand(n.children[0]))
		}
		return fmt.Sprintf(p.pick(form.js, form.py, form.tex), p.render(n.children[0]))
	case ShapeIrregular:
		return p.irregular(n)
	case ShapeBinary:
		return p.binary(n)
	case ShapeNary:
		return p.nary(n)
	default:
		panic(fmt.Sprintf("expr: cannot render %s", n.kind))
	}
}

func (p printer) number(v float64) string {
	switch {
	case math.IsNaN(v):
		return p.pick("NaN", "math.nan", `\text{NaN}`)
	case math.IsInf(v, 1):
		return p.pick("Infinity", "math.inf", `\infty`)
	case math.IsInf(v, -1):
		return p.pick("-Infinity", "-math.inf", `-\infty`)
	}
	return FormatNumber(v)
}

// Literal renders a numeric literal for backend b.
func Literal(v float64, b Backend) string {
	return printer{backend: b}.number(v)
}

// FormatNumber formats a finite literal the way both imperative targets
// parse it: plain decimal notation, exponent form only for very small or
// very large magnitudes.
func FormatNumber(v float64) string {
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (p printer) irregular(n *Node) string {
	child, base := n.children[0], n.children[1]
	switch n.kind {
	case KindLog:
		return p.pick(
			fmt.Sprintf("(Math.log(%s) / Math.log(%s))", p.render(child), p.render(base)),
			fmt.Sprintf("math.log(%s, %s)", p.render(child), p.render(base)),
			fmt.Sprintf(`\log_{%s}\left(%s\right)`, p.render(base), p.render(child)),
		)
	case KindRoot:
		if p.backend == BackendTeX {
			if base.kind == KindNum && base.value == 2 {
				return fmt.Sprintf(`\sqrt{%s}`, p.render(child))
			}
			return fmt.Sprintf(`\sqrt[%s]{%s}`, p.render(base), p.render(child))
		}
		return fmt.Sprintf("%s(%s, 1 / %s)", p.pick("Math.pow", "math.pow", ""), p.render(child), p.operand(base))
	}
	panic(fmt.Sprintf("expr: %s is not irregular", n.kind))
}

func (p printer) binary(n *Node) string {
	left, right := n.children[0], n.children[1]
	switch n.kind {
	case KindPow:
		if p.backend == BackendTeX {
			return fmt.Sprintf("{%s}^{%s}", p.texOperand(left), p.render(right))
		}
		return fmt.Sprintf("(%s) ** (%s)", p.render(left), p.render(right))
	case KindImplies:
		return p.pick(
			fmt.Sprintf("(!(%s) || (%s))", p.render(left), p.render(right)),
			fmt.Sprintf("((not (%s)) or (%s))", p.render(left), p.render(right)),
			fmt.Sprintf(`%s \Rightarrow %s`, p.texOperand(left), p.texOperand(right)),
		)
	}
	panic(fmt.Sprintf("expr: %s is not binary", n.kind))
}

func (p printer) nary(n *Node) string {
	cs := n.children
	if n.kind.IsComparison() {
		return p.comparison(n.kind, cs)
	}
	switch n.kind {
	case KindAdd:
		return p.sum(cs)
	case KindMul:
		return p.join(cs, "1", p.pick(" * ", " * ", ` \cdot `))
	case KindAnd:
		return p.join(cs, p.trueLit(), p.pick(" && ", " and ", ` \land `))
	case KindOr:
		return p.join(cs, p.falseLit(), p.pick(" || ", " or ", ` \lor `))
	case KindXor:
		return p.join(cs, p.falseLit(), p.pick(" ^ ", " ^ ", ` \oplus `))
	case KindMinus:
		return p.minus(cs)
	case KindDivide:
		if p.backend == BackendTeX {
			return p.fold(cs, "0", func(acc string, c *Node) string {
				return fmt.Sprintf(`\frac{%s}{%s}`, acc, p.render(c))
			})
		}
		return p.fold(cs, "0", func(acc string, c *Node) string {
			return acc + " / " + p.operand(c)
		})
	case KindIntDivide:
		if p.backend == BackendJS {
			// one truncation over the whole real-division chain
			if len(cs) == 0 {
				return "0"
			}
			return "Math.trunc(" + p.fold(cs, "0", func(acc string, c *Node) string {
				return acc + " / " + p.operand(c)
			}) + ")"
		}
		return p.fold(cs, "0", func(acc string, c *Node) string {
			return p.pick(
				"",
				acc+" // "+p.operand(c),
				fmt.Sprintf(`\left\lfloor\frac{%s}{%s}\right\rfloor`, acc, p.render(c)),
			)
		})
	case KindRem:
		return p.fold(cs, "0", func(acc string, c *Node) string {
			return acc + p.pick(" % ", " % ", ` \bmod `) + p.operand(c)
		})
	case KindMax, KindMin:
		return p.extremum(n.kind, cs)
	case KindPiecewise:
		if p.backend == BackendTeX {
			return `\begin{cases}` + p.list(cs, ` \\ `) + `\end{cases}`
		}
		return "piecewise(" + p.list(cs, ", ") + ")"
	case KindNot:
		return p.not(cs)
	}
	panic(fmt.Sprintf("expr: %s is not n-ary", n.kind))
}

// join renders an associative operator; empty renders the identity element
// and a single child renders as itself.
func (p printer) join(cs []*Node, empty, sep string) string {
	switch len(cs) {
	case 0:
		return empty
	case 1:
		return p.render(cs[0])
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = p.operand(c)
	}
	return strings.Join(parts, sep)
}

// sum renders addition; products and quotients bind tighter and are not
// parenthesized.
func (p printer) sum(cs []*Node) string {
	switch len(cs) {
	case 0:
		return "0"
	case 1:
		return p.render(cs[0])
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = p.term(c)
	}
	return strings.Join(parts, " + ")
}

func (p printer) term(c *Node) string {
	switch c.kind {
	case KindMul, KindDivide, KindRem, KindIntDivide:
		if len(c.children) >= 2 {
			return p.render(c)
		}
	}
	return p.operand(c)
}

// fold left-folds a non-associative operator over the children.
func (p printer) fold(cs []*Node, empty string, step func(acc string, c *Node) string) string {
	switch len(cs) {
	case 0:
		return empty
	case 1:
		return p.render(cs[0])
	}
	acc := p.foldHead(cs[0])
	for _, c := range cs[1:] {
		acc = step(acc, c)
	}
	return acc
}

func (p printer) foldHead(c *Node) string {
	if p.backend == BackendTeX {
		return p.render(c)
	}
	return p.operand(c)
}

func (p printer) minus(cs []*Node) string {
	switch len(cs) {
	case 0:
		return "0"
	case 1:
		if p.backend == BackendTeX {
			return "-" + p.texOperand(cs[0])
		}
		return "-" + p.operand(cs[0])
	}
	var acc string
	if k := cs[0].kind; k == KindAdd || k == KindMinus || p.backend == BackendTeX {
		// left-associative: a leading sum needs no parentheses
		acc = p.render(cs[0])
	} else {
		acc = p.term(cs[0])
	}
	for _, c := range cs[1:] {
		acc += " - " + p.term(c)
	}
	return acc
}

func (p printer) extremum(k Kind, cs []*Node) string {
	isMax := k == KindMax
	switch len(cs) {
	case 0:
		if isMax {
			return p.number(math.Inf(-1))
		}
		return p.number(math.Inf(1))
	case 1:
		return p.render(cs[0])
	}
	if isMax {
		return p.pick("Math.max(", "max(", `\max\left(`) + p.list(cs, ", ") + p.pick(")", ")", `\right)`)
	}
	return p.pick("Math.min(", "min(", `\min\left(`) + p.list(cs, ", ") + p.pick(")", ")", `\right)`)
}

func (p printer) not(cs []*Node) string {
	var inner string
	switch len(cs) {
	case 0:
		return p.pick("!false", "not False", `\neg \text{false}`)
	case 1:
		inner = p.render(cs[0])
	default:
		inner = p.join(cs, "", p.pick(" && ", " and ", ` \land `))
	}
	return p.pick("!("+inner+")", "(not ("+inner+"))", `\neg\left(`+inner+`\right)`)
}

// comparison renders a chained relation. Imperative backends fold the
// adjacent pairs into a conjunction seeded with true; the display backend
// keeps the flat chain.
func (p printer) comparison(k Kind, cs []*Node) string {
	rel := relations[k]
	if p.backend == BackendTeX {
		if len(cs) == 0 {
			return p.trueLit()
		}
		return p.list(cs, " "+rel.tex+" ")
	}
	op, and := rel.js, "&&"
	if p.backend == BackendPython {
		op, and = rel.py, "and"
	}
	acc := p.trueLit()
	for i := 1; i < len(cs); i++ {
		acc = fmt.Sprintf("(%s) %s (%s %s %s)", acc, and, p.operand(cs[i-1]), op, p.operand(cs[i]))
	}
	return acc
}

func (p printer) list(cs []*Node, sep string) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = p.render(c)
	}
	return strings.Join(parts, sep)
}

// operand renders c for use inside an imperative operator expression,
// parenthesized unless it binds tight.
func (p printer) operand(c *Node) string {
	if p.backend == BackendTeX {
		return p.texOperand(c)
	}
	s := p.render(c)
	if bindsTight(c) {
		return s
	}
	return "(" + s + ")"
}

func (p printer) texOperand(c *Node) string {
	s := p.render(c)
	if texAtomic(c) {
		return s
	}
	return `\left(` + s + `\right)`
}

// bindsTight reports whether the imperative rendering of n binds tighter than
// any operator, so it can appear as an operand without parentheses.
func bindsTight(n *Node) bool {
	switch n.kind.Shape() {
	case ShapeNullary:
		return n.kind == KindName || (n.value >= 0 && !math.IsInf(n.value, 0))
	case ShapeUnary:
		return true
	}
	switch n.kind {
	case KindLog, KindRoot, KindPiecewise:
		return true
	case KindMax, KindMin:
		if len(n.children) == 1 {
			return bindsTight(n.children[0])
		}
		return len(n.children) > 1
	}
	return false
}

func texAtomic(n *Node) bool {
	switch n.kind.Shape() {
	case ShapeNullary:
		return n.kind == KindName || n.value >= 0
	case ShapeUnary:
		return n.kind != KindFactorial
	}
	switch n.kind {
	case KindLog, KindRoot, KindPow, KindMax, KindMin, KindPiecewise:
		return true
	case KindDivide, KindIntDivide:
		return len(n.children) != 1 || texAtomic(n.children[0])
	}
	return false
}
