// cbordiag checks a CBOR item for well-formedness and prints it in
// RFC 8949 diagnostic notation.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/cborkit/cborkit/runtime"
)

var cli struct {
	Hex   string `arg:"" optional:"" help:"Hex-encoded CBOR data item."`
	File  string `short:"f" type:"existingfile" help:"Read the binary item from a file instead."`
	Check bool   `short:"c" help:"Validate only, print nothing on success."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("cbordiag"),
		kong.Description("Validate a CBOR item and print its diagnostic notation."))

	in, err := input()
	ctx.FatalIfErrorf(err)

	if err := cbor.Validate(in); err != nil {
		ctx.FatalIfErrorf(fmt.Errorf("not well-formed: %w", err))
	}
	if cli.Check {
		return
	}
	s, err := cbor.Diagnostic(in)
	ctx.FatalIfErrorf(err)
	fmt.Println(s)
}

func input() ([]byte, error) {
	if cli.File != "" {
		return os.ReadFile(cli.File)
	}
	if cli.Hex == "" {
		return nil, fmt.Errorf("pass a hex item or --file")
	}
	clean := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\t' {
			return -1
		}
		return r
	}, cli.Hex)
	return hex.DecodeString(clean)
}
