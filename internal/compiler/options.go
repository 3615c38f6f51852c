package compiler

// DefaultMaxArity bounds packed-call arity (parameters plus the implicit
// output slot) unless overridden in Options.
const DefaultMaxArity = 9

// Options configures a compilation. A single target applies to the whole
// module.
type Options struct {
	// Target selects the kernel backend, e.g. "host".
	Target string
	// MaxArity bounds InvokePacked arity including the output slot.
	MaxArity int
}

func (o Options) withDefaults() Options {
	if o.Target == "" {
		o.Target = "host"
	}
	if o.MaxArity == 0 {
		o.MaxArity = DefaultMaxArity
	}
	return o
}
