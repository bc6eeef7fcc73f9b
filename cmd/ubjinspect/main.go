// Command ubjinspect pretty-prints UBJSON data in the bracketed
// [ ]-notation, reading from a file argument or standard input.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/kxepal/simpleubjson"
)

func main() {
	specName := pflag.String("spec", "draft-8", "UBJSON draft to decode: draft-8 or draft-9")
	allowNoOp := pflag.Bool("allow-noop", true, "show noop padding markers as [N] lines")
	output := pflag.String("output", "", "write the listing to this file instead of stdout")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: ubjinspect [flags] [file]\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	var spec simpleubjson.Spec
	switch *specName {
	case "draft-8", "draft8":
		spec = simpleubjson.Draft8
	case "draft-9", "draft9":
		spec = simpleubjson.Draft9
	default:
		fmt.Fprintf(os.Stderr, "ubjinspect: unknown spec %q\n", *specName)
		os.Exit(2)
	}

	var in io.Reader = os.Stdin
	if pflag.NArg() > 0 {
		f, err := os.Open(pflag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "ubjinspect: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	var out io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ubjinspect: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := simpleubjson.PPrint(out, in, spec, *allowNoOp); err != nil {
		fmt.Fprintf(os.Stderr, "ubjinspect: %v\n", err)
		os.Exit(1)
	}
}
