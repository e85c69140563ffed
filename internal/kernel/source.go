package kernel

import (
	"fmt"
	"strings"

	"github.com/vortex-ml/vortex/internal/device"
	"github.com/vortex-ml/vortex/internal/dtype"
	"github.com/vortex-ml/vortex/internal/shape"
)

// workgroupSize is the thread count per workgroup in generated kernels.
const workgroupSize = 256

// Synthesize renders WGSL-flavored source for an operation signature.
// Contiguous operands address flat from their element offset; strided
// operands reconstruct a multi-index from the output shape and apply
// their own strides; scalar operands read from the params block. Drivers that execute descriptors
// directly (the simulator) keep the source for diagnostics only, and a
// driver may reject element types its shading language cannot express.
func Synthesize(spec device.KernelSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// %s\n", spec.Key())

	binding := 0
	for i, op := range spec.Operands {
		if op.Scalar {
			continue
		}
		fmt.Fprintf(&b, "@group(0) @binding(%d) var<storage, read> in%d: array<%s>;\n",
			binding, i, wgslType(op.DType))
		binding++
	}
	fmt.Fprintf(&b, "@group(0) @binding(%d) var<storage, read_write> out: array<%s>;\n",
		binding, wgslType(spec.Result))
	binding++

	b.WriteString("\nstruct Params {\n    n: u32,\n    rank: u32,\n")
	b.WriteString("    shape: array<u32, 8>,\n")
	for i, op := range spec.Operands {
		if op.Scalar {
			fmt.Fprintf(&b, "    scalar%d: %s,\n", i, wgslType(op.DType))
			continue
		}
		if strided(op) {
			fmt.Fprintf(&b, "    strides%d: array<i32, 8>,\n", i)
		}
		// Contiguous views still start at an element offset into the
		// buffer, so the offset is carried for every buffer operand.
		fmt.Fprintf(&b, "    offset%d: i32,\n", i)
	}
	b.WriteString("    out_strides: array<i32, 8>,\n    out_offset: i32,\n}\n")
	fmt.Fprintf(&b, "@group(0) @binding(%d) var<uniform> params: Params;\n", binding)

	if spec.Result.IsComplex() || anyComplexOperand(spec) {
		b.WriteString(complexHelpers)
	}

	fmt.Fprintf(&b, "\n@compute @workgroup_size(%d)\n", workgroupSize)
	b.WriteString("fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {\n")
	b.WriteString("    let i = global_id.x;\n")
	b.WriteString("    if (i >= params.n) {\n        return;\n    }\n")

	if anyStrided(spec) {
		b.WriteString(indexDecomposition)
	}

	for j, op := range spec.Operands {
		switch {
		case op.Scalar:
			fmt.Fprintf(&b, "    let v%d = params.scalar%d;\n", j, j)
		case strided(op):
			fmt.Fprintf(&b, "    var p%d: i32 = params.offset%d;\n", j, j)
			fmt.Fprintf(&b, "    for (var d: u32 = 0u; d < params.rank; d = d + 1u) {\n")
			fmt.Fprintf(&b, "        p%d = p%d + idx[d] * params.strides%d[d];\n", j, j, j)
			b.WriteString("    }\n")
			fmt.Fprintf(&b, "    let v%d = in%d[u32(p%d)];\n", j, j, j)
		default:
			fmt.Fprintf(&b, "    let v%d = in%d[i + u32(params.offset%d)];\n", j, j, j)
		}
	}

	fmt.Fprintf(&b, "    let r = %s;\n", opExpr(spec))

	if anyStrided(spec) {
		b.WriteString("    var q: i32 = params.out_offset;\n")
		b.WriteString("    for (var d: u32 = 0u; d < params.rank; d = d + 1u) {\n")
		b.WriteString("        q = q + idx[d] * params.out_strides[d];\n")
		b.WriteString("    }\n")
		b.WriteString("    out[u32(q)] = r;\n")
	} else {
		b.WriteString("    out[i + u32(params.out_offset)] = r;\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// strided reports whether the operand needs per-element index math. Only
// C-contiguous operands can share the output's flat index.
func strided(op device.Operand) bool {
	return !op.Scalar && op.Class != shape.Contiguous
}

func anyStrided(spec device.KernelSpec) bool {
	for _, op := range spec.Operands {
		if strided(op) {
			return true
		}
	}
	return false
}

func anyComplexOperand(spec device.KernelSpec) bool {
	for _, op := range spec.Operands {
		if op.DType.IsComplex() {
			return true
		}
	}
	return false
}

// wgslType maps an element type to its shading-language spelling. Wide and
// complex types use extended spellings a driver may reject at compile time.
func wgslType(dt dtype.DType) string {
	switch dt {
	case dtype.Float32:
		return "f32"
	case dtype.Float64:
		return "f64"
	case dtype.Int8, dtype.Int16, dtype.Int32:
		return "i32"
	case dtype.Int64:
		return "i64"
	case dtype.Uint8, dtype.Uint16, dtype.Uint32:
		return "u32"
	case dtype.Uint64:
		return "u64"
	case dtype.Complex64:
		return "vec2<f32>"
	case dtype.Complex128:
		return "vec2<f64>"
	default:
		return "f32"
	}
}

// opExpr renders the operator body over operands v0, v1. Complex operands
// go through the helper functions; everything else uses native operators.
func opExpr(spec device.KernelSpec) string {
	cplx := spec.Result.IsComplex() || anyComplexOperand(spec)
	cast := func(j int) string {
		v := fmt.Sprintf("v%d", j)
		if spec.Operands[j].DType == spec.Result && !spec.Op.IsComparison() {
			return v
		}
		if cplx && !spec.Operands[j].DType.IsComplex() {
			return fmt.Sprintf("vec2(%s(%s), 0.0)", wgslType(spec.Result.Component()), v)
		}
		if spec.Op.IsComparison() {
			return v
		}
		return fmt.Sprintf("%s(%s)", wgslType(spec.Result), v)
	}

	a := cast(0)
	var c string
	if len(spec.Operands) > 1 {
		c = cast(1)
	}

	if cplx {
		switch spec.Op {
		case dtype.OpAdd:
			return a + " + " + c
		case dtype.OpSub:
			return a + " - " + c
		case dtype.OpMul:
			return fmt.Sprintf("cmul(%s, %s)", a, c)
		case dtype.OpDiv:
			return fmt.Sprintf("cdiv(%s, %s)", a, c)
		case dtype.OpPow:
			return fmt.Sprintf("cpow(%s, %s)", a, c)
		case dtype.OpNeg:
			return "-" + a
		case dtype.OpAbs:
			return fmt.Sprintf("length(%s)", a)
		case dtype.OpReal:
			return a + ".x"
		case dtype.OpImag:
			return a + ".y"
		case dtype.OpConj:
			return fmt.Sprintf("vec2(%s.x, -%s.y)", a, a)
		case dtype.OpEq:
			return fmt.Sprintf("select(0, 1, all(%s == %s))", a, c)
		case dtype.OpNe:
			return fmt.Sprintf("select(0, 1, any(%s != %s))", a, c)
		case dtype.OpCopy, dtype.OpFill:
			return a
		}
	}

	switch spec.Op {
	case dtype.OpAdd:
		return a + " + " + c
	case dtype.OpSub:
		return a + " - " + c
	case dtype.OpMul:
		return a + " * " + c
	case dtype.OpDiv:
		return a + " / " + c
	case dtype.OpPow:
		return fmt.Sprintf("pow(%s, %s)", a, c)
	case dtype.OpNeg:
		return "-" + a
	case dtype.OpAbs:
		return fmt.Sprintf("abs(%s)", a)
	case dtype.OpReal, dtype.OpConj, dtype.OpCopy, dtype.OpFill:
		return a
	case dtype.OpImag:
		return fmt.Sprintf("%s(0)", wgslType(spec.Result))
	case dtype.OpEq:
		return fmt.Sprintf("select(0, 1, %s == %s)", a, c)
	case dtype.OpNe:
		return fmt.Sprintf("select(0, 1, %s != %s)", a, c)
	case dtype.OpLt:
		return fmt.Sprintf("select(0, 1, %s < %s)", a, c)
	case dtype.OpLe:
		return fmt.Sprintf("select(0, 1, %s <= %s)", a, c)
	case dtype.OpGt:
		return fmt.Sprintf("select(0, 1, %s > %s)", a, c)
	case dtype.OpGe:
		return fmt.Sprintf("select(0, 1, %s >= %s)", a, c)
	default:
		return a
	}
}

const indexDecomposition = `
    var idx: array<i32, 8>;
    var rem = i;
    for (var d: u32 = 0u; d < params.rank; d = d + 1u) {
        let ax = params.rank - 1u - d;
        let extent = params.shape[ax];
        idx[ax] = i32(rem % extent);
        rem = rem / extent;
    }
`

const complexHelpers = `
fn cmul(a: vec2<f32>, b: vec2<f32>) -> vec2<f32> {
    return vec2(a.x * b.x - a.y * b.y, a.x * b.y + a.y * b.x);
}

fn cdiv(a: vec2<f32>, b: vec2<f32>) -> vec2<f32> {
    let d = b.x * b.x + b.y * b.y;
    return vec2((a.x * b.x + a.y * b.y) / d, (a.y * b.x - a.x * b.y) / d);
}

fn cpow(a: vec2<f32>, b: vec2<f32>) -> vec2<f32> {
    let r = length(a);
    let th = atan2(a.y, a.x);
    let lr = log(r);
    let m = exp(b.x * lr - b.y * th);
    let ang = b.y * lr + b.x * th;
    return vec2(m * cos(ang), m * sin(ang));
}
`
