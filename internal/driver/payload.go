package driver

import (
	"fmt"

	"loom/internal/bytecode"
	"loom/internal/ir"
	"loom/internal/kernel"
	"loom/internal/tensor"
)

// programPayload is the on-disk form of a compiled program. Kernels cannot
// be serialized as closures, so the payload carries the primitive function
// each kernel was lowered from and relowers on load.
type programPayload struct {
	Schema  uint16
	Target  string
	Entry   int
	Funcs   []funcPayload
	Kernels []kernelPayload
}

type funcPayload struct {
	Name      string
	NumParams int
	Instrs    []instrPayload
}

// instrPayload flattens an instruction: A and B carry the two integer
// operands an opcode uses (slot, kernel/arity, offsets, function index);
// Shape and DType serve alloc_tensor.
type instrPayload struct {
	Op    uint8
	A     int
	B     int
	Shape []int64
	DType uint8
}

type kernelPayload struct {
	Name string
	Fn   primPayload
}

type primPayload struct {
	Params []primParam
	Ret    typePayload
	Body   exprPayload
}

type primParam struct {
	Name string
	Type typePayload
}

type typePayload struct {
	Shape []int64
	DType uint8
}

// exprPayload mirrors the restricted primitive-body grammar: variables and
// intrinsic calls. Anything else makes the program uncacheable.
type exprPayload struct {
	Kind uint8 // 1 = var, 2 = intrinsic call
	Name string
	Args []exprPayload
}

const (
	payloadVar uint8 = iota + 1
	payloadIntrinsicCall
)

func encodeProgram(prog *bytecode.Program, reqs []kernel.Descriptor, target string) (*programPayload, error) {
	if len(reqs) != len(prog.KernelNames) {
		return nil, fmt.Errorf("cache: %d descriptors for %d kernel slots", len(reqs), len(prog.KernelNames))
	}
	p := &programPayload{
		Schema: cacheSchemaVersion,
		Target: target,
		Entry:  prog.Entry,
	}
	for _, fn := range prog.Funcs {
		fp := funcPayload{Name: fn.Name, NumParams: fn.NumParams}
		for i := range fn.Instrs {
			ip, err := encodeInstr(&fn.Instrs[i])
			if err != nil {
				return nil, err
			}
			fp.Instrs = append(fp.Instrs, ip)
		}
		p.Funcs = append(p.Funcs, fp)
	}
	for _, d := range reqs {
		pp, err := encodePrimitive(d.Fn)
		if err != nil {
			return nil, fmt.Errorf("cache: kernel %s: %w", d.Name, err)
		}
		p.Kernels = append(p.Kernels, kernelPayload{Name: d.Name, Fn: pp})
	}
	return p, nil
}

func encodeInstr(in *bytecode.Instr) (instrPayload, error) {
	ip := instrPayload{Op: uint8(in.Op)}
	switch in.Op {
	case bytecode.OpPush:
		ip.A = in.Push.Slot
	case bytecode.OpRet:
	case bytecode.OpAllocTensor:
		ip.Shape = in.AllocTensor.Shape
		ip.DType = uint8(in.AllocTensor.DType)
	case bytecode.OpInvokePacked:
		ip.A = in.InvokePacked.Kernel
		ip.B = in.InvokePacked.Arity
	case bytecode.OpIf:
		ip.A = in.If.TrueOffset
		ip.B = in.If.FalseOffset
	case bytecode.OpInvoke:
		ip.A = in.Invoke.Func
	default:
		return instrPayload{}, fmt.Errorf("cache: unencodable opcode %s", in.Op)
	}
	return ip, nil
}

func encodePrimitive(fn *ir.Func) (primPayload, error) {
	if fn == nil || !fn.Primitive {
		return primPayload{}, fmt.Errorf("descriptor function is not primitive")
	}
	p := primPayload{Ret: encodeType(fn.Ret)}
	for _, param := range fn.Params {
		p.Params = append(p.Params, primParam{Name: param.Name, Type: encodeType(param.Type)})
	}
	body, err := encodePrimExpr(fn.Body)
	if err != nil {
		return primPayload{}, err
	}
	p.Body = body
	return p, nil
}

func encodeType(t *ir.TensorType) typePayload {
	if t == nil {
		return typePayload{}
	}
	return typePayload{Shape: t.Shape, DType: uint8(t.DType)}
}

func encodePrimExpr(e *ir.Expr) (exprPayload, error) {
	switch {
	case e == nil:
		return exprPayload{}, fmt.Errorf("empty primitive body")
	case e.Kind == ir.ExprVar:
		return exprPayload{Kind: payloadVar, Name: e.Var.Name}, nil
	case e.Kind == ir.ExprCall && e.Call.Op != nil && e.Call.Op.Kind == ir.ExprIntrinsic:
		out := exprPayload{Kind: payloadIntrinsicCall, Name: e.Call.Op.Intrinsic.Name}
		for _, a := range e.Call.Args {
			ap, err := encodePrimExpr(a)
			if err != nil {
				return exprPayload{}, err
			}
			out.Args = append(out.Args, ap)
		}
		return out, nil
	default:
		return exprPayload{}, fmt.Errorf("primitive body form %s is not cacheable", e.Kind)
	}
}

// decodeProgram rebuilds an executable program: instructions are restored
// directly, kernels are relowered from their serialized primitives and
// relinked by name, and the result must pass validation before use.
func decodeProgram(p *programPayload, backend kernel.Backend) (*bytecode.Program, error) {
	prog := &bytecode.Program{Entry: p.Entry}
	for _, fp := range p.Funcs {
		fn := &bytecode.Function{Name: fp.Name, NumParams: fp.NumParams}
		for _, ip := range fp.Instrs {
			in, err := decodeInstr(ip)
			if err != nil {
				return nil, err
			}
			fn.Instrs = append(fn.Instrs, in)
		}
		prog.Funcs = append(prog.Funcs, fn)
	}

	descs := make([]kernel.Descriptor, len(p.Kernels))
	for i, kp := range p.Kernels {
		fn, err := decodePrimitive(kp.Fn)
		if err != nil {
			return nil, fmt.Errorf("cache: kernel %s: %w", kp.Name, err)
		}
		descs[i] = kernel.Descriptor{Name: kp.Name, Fn: fn}
	}
	linked, err := backend.Link(descs, p.Target)
	if err != nil {
		return nil, err
	}
	prog.KernelNames = make([]string, len(descs))
	prog.Kernels = make([]kernel.Kernel, len(descs))
	for i, d := range descs {
		prog.KernelNames[i] = d.Name
		k, err := linked.Kernel(d.Name)
		if err != nil {
			return nil, err
		}
		prog.Kernels[i] = k
	}

	if err := bytecode.Validate(prog); err != nil {
		return nil, fmt.Errorf("cached program failed validation: %w", err)
	}
	return prog, nil
}

func decodeInstr(ip instrPayload) (bytecode.Instr, error) {
	switch bytecode.Opcode(ip.Op) {
	case bytecode.OpPush:
		return bytecode.Push(ip.A), nil
	case bytecode.OpRet:
		return bytecode.Ret(), nil
	case bytecode.OpAllocTensor:
		return bytecode.AllocTensor(ip.Shape, tensor.DType(ip.DType)), nil
	case bytecode.OpInvokePacked:
		return bytecode.InvokePacked(ip.A, ip.B), nil
	case bytecode.OpIf:
		return bytecode.If(ip.A, ip.B), nil
	case bytecode.OpInvoke:
		return bytecode.Invoke(ip.A), nil
	default:
		return bytecode.Instr{}, fmt.Errorf("cache: unknown opcode %d", ip.Op)
	}
}

func decodePrimitive(p primPayload) (*ir.Func, error) {
	params := make([]ir.Param, len(p.Params))
	for i, pp := range p.Params {
		params[i] = ir.Param{Name: pp.Name, Type: decodeType(pp.Type)}
	}
	body, err := decodePrimExpr(p.Body)
	if err != nil {
		return nil, err
	}
	return ir.NewPrimitive(params, decodeType(p.Ret), body), nil
}

func decodeType(t typePayload) *ir.TensorType {
	if t.DType == 0 {
		return nil
	}
	return ir.NewTensorType(tensor.DType(t.DType), t.Shape...)
}

func decodePrimExpr(p exprPayload) (*ir.Expr, error) {
	switch p.Kind {
	case payloadVar:
		return ir.NewVar(p.Name), nil
	case payloadIntrinsicCall:
		args := make([]*ir.Expr, len(p.Args))
		for i, ap := range p.Args {
			a, err := decodePrimExpr(ap)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return ir.NewCall(nil, ir.NewIntrinsic(p.Name), args...), nil
	default:
		return nil, fmt.Errorf("unknown expression tag %d", p.Kind)
	}
}
