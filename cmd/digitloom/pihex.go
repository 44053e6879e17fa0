package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/digitloom/digitloom/pkg/bbp"
)

func piHexCommand() {
	fs := flag.NewFlagSet("pi-hex", flag.ExitOnError)
	pos := fs.Int("pos", 0, "Zero-based fractional hex digit position to start at")
	count := fs.Int("count", 16, "Number of hex digits to extract")

	fs.Usage = func() {
		fmt.Println(`USAGE: digitloom pi-hex [options]

Extract hexadecimal digits of pi at an arbitrary position using the
Bailey-Borwein-Plouffe formula, without computing the preceding digits.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    # First 16 hex digits after the point (243F6A8885A308D3)
    digitloom pi-hex

    # 8 hex digits starting at position one million
    digitloom pi-hex --pos 1000000 --count 8`)
	}

	_ = fs.Parse(os.Args[2:])

	hexDigits, err := bbp.PiHexDigits(*pos, *count)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hexDigits)
}
