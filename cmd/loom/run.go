package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"loom/internal/demo"
	"loom/internal/driver"
	"loom/internal/vm"
)

var runCmd = &cobra.Command{
	Use:   "run <demo>",
	Short: "Compile a built-in demo module and execute its entry function",
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

		compileStart := time.Now()
		prog, err := driver.Build(cmd.Context(), d.Build(), opts)
		if err != nil {
			return err
		}
		compileTime := time.Since(compileStart)

		inputs, err := d.Inputs()
		if err != nil {
			return err
		}
		machine := vm.New(prog)
		machine.SetTracer(opts.Tracer)

		runStart := time.Now()
		out, err := machine.InvokeEntry(inputs)
		if err != nil {
			return err
		}
		runTime := time.Since(runStart)

		w := cmd.OutOrStdout()
		for i, in := range inputs {
			fmt.Fprintf(w, "in[%d]:  %s\n", i, in)
		}
		fmt.Fprintf(w, "out:    %s\n", out)
		fmt.Fprintf(w, "compile %v, run %v\n", compileTime.Round(time.Microsecond), runTime.Round(time.Microsecond))
		return nil
	},
}
