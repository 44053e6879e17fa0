package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/digitloom/digitloom/pkg/metrics"
	"github.com/digitloom/digitloom/pkg/pipeline"
)

func generateCommand() {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	constant := fs.String("constant", "", "Named constant: pi, tau, e, sqrt2, phi, ln2, zeta2")
	expr := fs.String("expr", "", "Arithmetic expression to evaluate instead of a named constant")
	digitCount := fs.Int("digits", 100, "Number of fractional digits to generate")
	base := fs.Int("base", 10, "Output base (2-16)")
	format := fs.String("format", "txt", "Output format: txt, json, csv, tsv, ndjson, bin, dloom")
	out := fs.String("out", "", "Output file (required for dloom; stdout otherwise)")
	compression := fs.String("compression", "none", "Chunk compression for dloom output: none or gzip")
	encryption := fs.String("encryption", "none", "Encryption: none, aes-256-gcm, chacha20-poly1305")
	password := fs.String("password", "", "Encryption password (prompted if omitted)")
	verifySamples := fs.Int("verify", 0, "Verify this many leading digits via an independent method (0 = skip)")
	workers := fs.Int("workers", 0, "Parallel workers for binary splitting (0 = GOMAXPROCS)")
	chunkSize := fs.Int("chunk-size", 1024, "Digits per container chunk")
	logLevel := fs.String("log-level", "warn", "Log level: debug, info, warn, error, silent")
	logFormat := fs.String("log-format", "text", "Log format: text or json")
	tracing := fs.String("tracing", "none", "Tracing mode: none, simple, otel (requires -tags otel)")

	fs.Usage = func() {
		fmt.Println(`USAGE: digitloom generate [options]

Generate fractional digits of a mathematical constant or an arithmetic
expression and package them into a verifiable artifact.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    # 10,000 decimal digits of pi as plain text
    digitloom generate --constant pi --digits 10000

    # Hexadecimal digits of pi, verified against the BBP extractor
    digitloom generate --constant pi --digits 256 --base 16 --verify 64

    # Encrypted, compressed container artifact
    digitloom generate --constant e --digits 1000000 --format dloom \
        --out e.dloom --compression gzip --encryption aes-256-gcm

    # Expression evaluation into JSON
    digitloom generate --expr "ln(2) * 3" --digits 500 --format json`)
	}

	_ = fs.Parse(os.Args[2:])

	collector, logger, err := setupObservability(*logLevel, *logFormat, *tracing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	pw := *password
	if *encryption != "none" && pw == "" {
		pw, err = promptPassword()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.New(logger, collector).Run(ctx, pipeline.Request{
		Constant:      *constant,
		Expression:    *expr,
		Digits:        *digitCount,
		Base:          *base,
		Format:        *format,
		OutputPath:    *out,
		Compression:   *compression,
		Encryption:    *encryption,
		Password:      pw,
		ChunkSize:     *chunkSize,
		Workers:       *workers,
		VerifySamples: *verifySamples,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if result.Verification != nil {
		if verr := result.Verification.Err(); verr != nil {
			fmt.Fprintf(os.Stderr, "Verification FAILED (%s): %v\n", result.Verification.Method, verr)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Verification: PASSED (%s)\n", result.Verification.Method)
	}

	if result.Path != "" {
		fmt.Fprintf(os.Stderr, "Wrote %d digits to %s in %s\n", result.Digits, result.Path, result.Elapsed)
		return
	}

	if *out != "" {
		if err := os.WriteFile(*out, result.Artifact, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d digits to %s in %s\n", result.Digits, *out, result.Elapsed)
		return
	}

	_, _ = os.Stdout.Write(result.Artifact)
	if len(result.Artifact) > 0 && result.Artifact[len(result.Artifact)-1] != '\n' {
		fmt.Println()
	}
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty password")
	}
	return string(raw), nil
}

func setupObservability(logLevel, logFormat, tracing string) (*metrics.Collector, *metrics.Logger, error) {
	level, err := parseLogLevel(logLevel)
	if err != nil {
		return nil, nil, err
	}

	format, err := parseLogFormat(logFormat)
	if err != nil {
		return nil, nil, err
	}

	logger := metrics.NewLogger(
		metrics.WithOutput(os.Stderr),
		metrics.WithLevel(level),
		metrics.WithFormat(format),
		metrics.WithFields(metrics.Fields{"app": "digitloom"}),
	)
	metrics.SetLogger(logger)

	switch strings.ToLower(tracing) {
	case "none":
		metrics.SetTracer(metrics.NoOpTracer{})
	case "simple":
		metrics.SetTracer(metrics.NewSimpleTracer())
	case "otel":
		if !metrics.OTelEnabled() {
			return nil, nil, fmt.Errorf("otel tracing not enabled (build with -tags otel)")
		}
		metrics.SetTracer(metrics.NewOTelTracer("digitloom"))
	default:
		return nil, nil, fmt.Errorf("invalid tracing mode: %s (use none, simple, or otel)", tracing)
	}

	collector := metrics.NewCollector(metrics.Labels{
		"service": "digitloom",
	})
	metrics.SetGlobal(collector)

	return collector, logger, nil
}

func parseLogLevel(level string) (metrics.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return metrics.LevelDebug, nil
	case "info":
		return metrics.LevelInfo, nil
	case "warn", "warning":
		return metrics.LevelWarn, nil
	case "error":
		return metrics.LevelError, nil
	case "silent", "off", "none":
		return metrics.LevelSilent, nil
	default:
		return metrics.LevelInfo, fmt.Errorf("invalid log level: %s (use debug, info, warn, error, silent)", level)
	}
}

func parseLogFormat(format string) (metrics.Format, error) {
	switch strings.ToLower(format) {
	case "text":
		return metrics.FormatText, nil
	case "json":
		return metrics.FormatJSON, nil
	default:
		return metrics.FormatText, fmt.Errorf("invalid log format: %s (use text or json)", format)
	}
}
