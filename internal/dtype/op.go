package dtype

// Op identifies an elementwise operator. Operator dispatch is a closed set:
// every device kernel is generated from an (Op, operand types) pairing.
type Op int

// Elementwise operators.
const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpPow
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpNeg
	OpAbs
	OpReal
	OpImag
	OpConj
	OpCopy
	OpFill
)

// String returns the operator's mnemonic, used in signatures and kernel names.
func (op Op) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpPow:
		return "pow"
	case OpEq:
		return "eq"
	case OpNe:
		return "ne"
	case OpLt:
		return "lt"
	case OpLe:
		return "le"
	case OpGt:
		return "gt"
	case OpGe:
		return "ge"
	case OpNeg:
		return "neg"
	case OpAbs:
		return "abs"
	case OpReal:
		return "real"
	case OpImag:
		return "imag"
	case OpConj:
		return "conj"
	case OpCopy:
		return "copy"
	case OpFill:
		return "fill"
	default:
		return "unknown"
	}
}

// IsComparison reports whether the operator yields a boolean-like result.
func (op Op) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Arity returns the number of array/scalar operands the operator consumes.
func (op Op) Arity() int {
	switch op {
	case OpNeg, OpAbs, OpReal, OpImag, OpConj, OpCopy:
		return 1
	case OpFill:
		return 1 // scalar value only
	default:
		return 2
	}
}
