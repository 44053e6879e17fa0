package main

import (
	"fmt"
	"os"

	pkgversion "github.com/digitloom/digitloom/pkg/version"
)

// Build-time variables (set via -ldflags)
var (
	version   = ""        // Set via -ldflags "-X main.version=x.y.z"
	buildTime = "unknown" // Set via -ldflags "-X main.buildTime=..."
	gitCommit = "unknown" // Set via -ldflags "-X main.gitCommit=..."
)

func getVersion() string {
	if version != "" {
		return version
	}
	return pkgversion.String()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "generate":
		generateCommand()
	case "stream":
		streamCommand()
	case "pi-hex":
		piHexCommand()
	case "read":
		readCommand()
	case "version":
		fmt.Printf("digitloom version %s\n", getVersion())
		if buildTime != "unknown" {
			fmt.Printf("Built: %s\n", buildTime)
		}
		if gitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", gitCommit)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`digitloom - Arbitrary-Precision Digit Generation Tool

USAGE:
    digitloom <command> [options]

COMMANDS:
    generate  Generate digits of a constant or expression into an artifact
    stream    Stream pi digits continuously to stdout or a file
    pi-hex    Extract hexadecimal pi digits at an arbitrary position (BBP)
    read      Read back a digit container or enveloped artifact
    version   Print version information
    help      Show this help message

Run 'digitloom <command> --help' for more information on a command.

EXAMPLES:
    # One million decimal digits of pi, verified, into a container
    digitloom generate --constant pi --digits 1000000 --format dloom \
        --out pi.dloom --compression gzip --verify 64

    # Evaluate an expression to 500 digits of JSON output
    digitloom generate --expr "(1 + sqrt(5)) / 2" --digits 500 --format json

    # Hex digits of pi starting at position one million
    digitloom pi-hex --pos 1000000 --count 16

    # Stream pi digits until interrupted
    digitloom stream --chunk-size 64

    # Read an encrypted container back
    digitloom read --in pi.dloom`)
}
