package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"loom/internal/bytecode"
	"loom/internal/demo"
	"loom/internal/driver"
)

var (
	disasmHeaderColor = color.New(color.FgCyan, color.Bold)
	disasmOpColor     = color.New(color.FgYellow)
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <demo>",
	Short: "Compile a built-in demo module and print its bytecode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := demo.Lookup(args[0])
		if err != nil {
			return err
		}
		opts, cleanup, err := buildOptions(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		prog, err := driver.Build(cmd.Context(), d.Build(), opts)
		if err != nil {
			return err
		}
		writeProgram(cmd.OutOrStdout(), prog)
		return nil
	},
}

// writeProgram renders the disassembly with the opcode mnemonic
// highlighted. Layout mirrors bytecode.DumpProgram.
func writeProgram(w io.Writer, p *bytecode.Program) {
	fmt.Fprintf(w, "kernels=%d\n", len(p.KernelNames))
	for i, name := range p.KernelNames {
		fmt.Fprintf(w, "  K%d: %s\n", i, name)
	}
	fmt.Fprintf(w, "funcs=%d entry=%d\n", len(p.Funcs), p.Entry)
	for _, f := range p.Funcs {
		fmt.Fprintln(w)
		disasmHeaderColor.Fprintf(w, "fn %s params=%d:\n", f.Name, f.NumParams)
		for i := range f.Instrs {
			mnemonic, rest, _ := strings.Cut(bytecode.InstrString(&f.Instrs[i]), " ")
			fmt.Fprintf(w, "  %3d: %s", i, disasmOpColor.Sprint(mnemonic))
			if rest != "" {
				fmt.Fprintf(w, " %s", rest)
			}
			fmt.Fprintln(w)
		}
	}
}
