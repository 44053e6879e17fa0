package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/digitloom/digitloom/pkg/pipeline"
)

func streamCommand() {
	fs := flag.NewFlagSet("stream", flag.ExitOnError)
	digitCount := fs.Int("digits", 0, "Number of fractional digits to stream (0 = until interrupted)")
	chunkSize := fs.Int("chunk-size", 64, "Digits emitted between cancellation checks")
	out := fs.String("out", "", "Output file (stdout if omitted)")

	fs.Usage = func() {
		fmt.Println(`USAGE: digitloom stream [options]

Stream decimal digits of pi with a constant-memory spigot. With --digits 0
the stream runs until interrupted (Ctrl-C), flushing what was written.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    # Stream pi until interrupted
    digitloom stream

    # Exactly one thousand digits to a file
    digitloom stream --digits 1000 --out pi.txt`)
	}

	_ = fs.Parse(os.Args[2:])

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bw := bufio.NewWriter(w)
	written, err := pipeline.StreamPi(ctx, bw, *digitCount, *chunkSize)
	if flushErr := bw.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\nStreamed %d fractional digits\n", written)
}
