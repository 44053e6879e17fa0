package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
	"github.com/digitloom/digitloom/pkg/container"
	"github.com/digitloom/digitloom/pkg/envelope"
)

func readCommand() {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	in := fs.String("in", "", "Container file to read (required)")
	password := fs.String("password", "", "Decryption password (prompted for encrypted containers)")
	metaOnly := fs.Bool("meta", false, "Print header metadata only, skip digit payload")

	fs.Usage = func() {
		fmt.Println(`USAGE: digitloom read [options]

Read a digit artifact back. Containers are verified chunk by chunk and the
header metadata is printed before the reassembled digits; enveloped buffered
artifacts are decrypted and printed as stored.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    # Inspect an artifact's metadata
    digitloom read --in pi.dloom --meta

    # Decrypt and print the digits
    digitloom read --in pi.dloom --password hunter2`)
	}

	_ = fs.Parse(os.Args[2:])

	if *in == "" {
		fmt.Fprintln(os.Stderr, "Error: --in is required")
		fs.Usage()
		os.Exit(1)
	}

	if isEnvelopeFile(*in) {
		readEnvelope(*in, *password, *metaOnly)
		return
	}

	r, err := openContainer(*in, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = r.Close() }()

	printHeader(r.Header())

	if *metaOnly {
		return
	}

	fractional, err := r.ReadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	integer := "0"
	if v, ok := r.Header()["integer"].(string); ok && v != "" {
		integer = v
	}

	fmt.Printf("%s.%s\n", integer, fractional)
	fmt.Fprintf(os.Stderr, "Read %d chunks, %d fractional digits\n", r.Chunks(), len(fractional))
}

// isEnvelopeFile peeks at the file prologue for the envelope magic. Short
// or unreadable files fall through to the container path, which reports
// the error.
func isEnvelopeFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, len(constants.EnvelopeMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return false
	}
	return envelope.IsEnvelope(head)
}

// readEnvelope decrypts a single-blob enveloped artifact and writes the
// plaintext to stdout. Metadata comes from the envelope's associated data
// and is printed without authentication when --meta skips decryption.
func readEnvelope(path, password string, metaOnly bool) {
	blob, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	meta, err := envelope.Metadata(blob)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	printEnvelopeMeta(meta)

	if metaOnly {
		return
	}

	if password == "" {
		if password, err = promptPassword(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	plaintext, _, err := envelope.Decrypt(blob, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	_, _ = os.Stdout.Write(plaintext)
	if len(plaintext) > 0 && plaintext[len(plaintext)-1] != '\n' {
		fmt.Println()
	}
	fmt.Fprintf(os.Stderr, "Decrypted %d bytes\n", len(plaintext))
}

func printEnvelopeMeta(meta map[string]string) {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(os.Stderr, "Envelope %s\n", constants.EnvelopeMagic)
	for _, k := range keys {
		fmt.Fprintf(os.Stderr, "  %-12s %v\n", k, meta[k])
	}
}

// openContainer retries with a prompted password when the file turns out
// to be encrypted and none was supplied on the command line.
func openContainer(path, password string) (*container.Reader, error) {
	r, err := container.NewReader(path, password)
	if err == nil || !errors.Is(err, dlerrors.ErrPasswordRequired) || password != "" {
		return r, err
	}
	password, err = promptPassword()
	if err != nil {
		return nil, err
	}
	return container.NewReader(path, password)
}

func printHeader(h container.Header) {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(os.Stderr, "Container %s\n", constants.ContainerMagic)
	for _, k := range keys {
		fmt.Fprintf(os.Stderr, "  %-12s %v\n", k, h[k])
	}
}
