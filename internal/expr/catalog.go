package expr

// unaryForm holds the three renderings of a unary function as format
// strings taking the rendered operand.
type unaryForm struct {
	js  string
	py  string
	tex string
}

// Functions missing from Math / the math module are expressed as a
// reciprocal of the standard function (sec, csc, cot and the hyperbolic
// variants) or an inverse applied to a reciprocal (acot, asec, ...).
// factorial and rateOf are resolved by the execution runtime.
var unaryForms = map[Kind]unaryForm{
	KindAbs:       {"Math.abs(%s)", "abs(%s)", `\left|%s\right|`},
	KindCeiling:   {"Math.ceil(%s)", "math.ceil(%s)", `\lceil %s \rceil`},
	KindExp:       {"Math.exp(%s)", "math.exp(%s)", `e^{%s}`},
	KindFactorial: {"factorial(%s)", "math.factorial(%s)", `%s!`},
	KindFloor:     {"Math.floor(%s)", "math.floor(%s)", `\lfloor %s \rfloor`},
	KindLn:        {"Math.log(%s)", "math.log(%s)", `\ln\left(%s\right)`},

	KindSin: {"Math.sin(%s)", "math.sin(%s)", `\sin\left(%s\right)`},
	KindCos: {"Math.cos(%s)", "math.cos(%s)", `\cos\left(%s\right)`},
	KindTan: {"Math.tan(%s)", "math.tan(%s)", `\tan\left(%s\right)`},
	KindSec: {"(1 / Math.cos(%s))", "(1 / math.cos(%s))", `\sec\left(%s\right)`},
	KindCsc: {"(1 / Math.sin(%s))", "(1 / math.sin(%s))", `\csc\left(%s\right)`},
	KindCot: {"(1 / Math.tan(%s))", "(1 / math.tan(%s))", `\cot\left(%s\right)`},

	KindAsin: {"Math.asin(%s)", "math.asin(%s)", `\arcsin\left(%s\right)`},
	KindAcos: {"Math.acos(%s)", "math.acos(%s)", `\arccos\left(%s\right)`},
	KindAtan: {"Math.atan(%s)", "math.atan(%s)", `\arctan\left(%s\right)`},
	KindAcot: {"Math.atan(1 / (%s))", "math.atan(1 / (%s))", `\operatorname{arccot}\left(%s\right)`},
	KindAsec: {"Math.acos(1 / (%s))", "math.acos(1 / (%s))", `\operatorname{arcsec}\left(%s\right)`},
	KindAcsc: {"Math.asin(1 / (%s))", "math.asin(1 / (%s))", `\operatorname{arccsc}\left(%s\right)`},

	KindSinh: {"Math.sinh(%s)", "math.sinh(%s)", `\sinh\left(%s\right)`},
	KindCosh: {"Math.cosh(%s)", "math.cosh(%s)", `\cosh\left(%s\right)`},
	KindTanh: {"Math.tanh(%s)", "math.tanh(%s)", `\tanh\left(%s\right)`},
	KindSech: {"(1 / Math.cosh(%s))", "(1 / math.cosh(%s))", `\operatorname{sech}\left(%s\right)`},
	KindCsch: {"(1 / Math.sinh(%s))", "(1 / math.sinh(%s))", `\operatorname{csch}\left(%s\right)`},
	KindCoth: {"(1 / Math.tanh(%s))", "(1 / math.tanh(%s))", `\coth\left(%s\right)`},

	KindAsinh: {"Math.asinh(%s)", "math.asinh(%s)", `\operatorname{arsinh}\left(%s\right)`},
	KindAcosh: {"Math.acosh(%s)", "math.acosh(%s)", `\operatorname{arcosh}\left(%s\right)`},
	KindAtanh: {"Math.atanh(%s)", "math.atanh(%s)", `\operatorname{artanh}\left(%s\right)`},
	KindAcsch: {"Math.asinh(1 / (%s))", "math.asinh(1 / (%s))", `\operatorname{arcsch}\left(%s\right)`},
	KindAsech: {"Math.acosh(1 / (%s))", "math.acosh(1 / (%s))", `\operatorname{arsech}\left(%s\right)`},
	KindAcoth: {"Math.atanh(1 / (%s))", "math.atanh(1 / (%s))", `\operatorname{arcoth}\left(%s\right)`},

	KindRateOf: {"rateOf(%s)", "rate_of(%s)", `\frac{d}{dt}\left(%s\right)`},
}

// relation holds the operator text of a chained comparison per backend.
type relation struct {
	js  string
	py  string
	tex string
}

var relations = map[Kind]relation{
	KindEq:           {"===", "==", "="},
	KindNotEqual:     {"!==", "!=", `\neq`},
	KindLess:         {"<", "<", "<"},
	KindLessEqual:    {"<=", "<=", `\leq`},
	KindGreater:      {">", ">", ">"},
	KindGreaterEqual: {">=", ">=", `\geq`},
}
