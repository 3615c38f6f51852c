package bytecode

// Function is one compiled function: its parameter count plus the linear
// instruction sequence. Immutable once the compiler produces it; identified
// by its index within a Program.
type Function struct {
	Name      string
	NumParams int
	Instrs    []Instr
}
