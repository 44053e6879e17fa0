// Package benchmark provides performance benchmarks for DigitLoom.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./test/benchmark/
//
// For profiling:
//
//	go test -bench=. -cpuprofile=cpu.prof -memprofile=mem.prof ./test/benchmark/
package benchmark

import (
	"fmt"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/digitloom/digitloom/pkg/bbp"
	"github.com/digitloom/digitloom/pkg/chudnovsky"
	"github.com/digitloom/digitloom/pkg/container"
	"github.com/digitloom/digitloom/pkg/crypto"
	"github.com/digitloom/digitloom/pkg/digits"
	"github.com/digitloom/digitloom/pkg/envelope"
	"github.com/digitloom/digitloom/pkg/eval"
)

// --- Digit Generation Benchmarks ---

func BenchmarkSpigot1000Digits(b *testing.B) {
	for i := 0; i < b.N; i++ {
		s := digits.NewSpigot()
		for j := 0; j < 1000; j++ {
			s.Next()
		}
	}
}

func BenchmarkChudnovsky(b *testing.B) {
	for _, digitCount := range []int{1000, 10000, 50000} {
		b.Run(fmt.Sprintf("digits-%d", digitCount), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := chudnovsky.Float(digitCount, 1); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkChudnovskyParallel(b *testing.B) {
	workers := runtime.GOMAXPROCS(0)
	for i := 0; i < b.N; i++ {
		if _, err := chudnovsky.Float(50000, workers); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBBPHexDigit(b *testing.B) {
	for _, pos := range []int{100, 10000, 100000} {
		b.Run(fmt.Sprintf("pos-%d", pos), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := bbp.PiHexDigit(pos); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEvaluateExpression(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := eval.Evaluate("(1 + sqrt(5)) / 2", 1000); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFracStream1000Digits(b *testing.B) {
	v, err := eval.Constant("e", 1100)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cs, err := digits.NewChunkStream(v, 1000, 10, 100)
		if err != nil {
			b.Fatal(err)
		}
		cs.CollectPrefix(1000)
	}
}

// --- Cryptographic Primitive Benchmarks ---

func BenchmarkDeriveKey(b *testing.B) {
	salt, err := crypto.NewSalt()
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key, err := crypto.DeriveKey("benchmark-password", salt)
		if err != nil {
			b.Fatal(err)
		}
		crypto.WipeKey(key)
	}
}

func BenchmarkAEADSeal(b *testing.B) {
	for _, alg := range []string{"aes-256-gcm", "chacha20-poly1305"} {
		b.Run(alg, func(b *testing.B) {
			key := make([]byte, 32)
			aead, err := crypto.NewAEAD(alg, key)
			if err != nil {
				b.Fatal(err)
			}
			nonce, err := crypto.NewNonce()
			if err != nil {
				b.Fatal(err)
			}
			payload := make([]byte, 64*1024)
			b.SetBytes(int64(len(payload)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := aead.Seal(nonce, payload, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// --- Artifact Benchmarks ---

func BenchmarkContainerWrite(b *testing.B) {
	chunk := []byte(digits.SpigotFractionalPrefix(4096))
	dir := b.TempDir()
	b.SetBytes(int64(len(chunk)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		path := filepath.Join(dir, fmt.Sprintf("bench-%d.dloom", i))
		w, err := container.NewWriter(path, nil, "gzip", "none", "")
		if err != nil {
			b.Fatal(err)
		}
		if err := w.Write(chunk); err != nil {
			b.Fatal(err)
		}
		if err := w.Close(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkContainerRead(b *testing.B) {
	chunk := []byte(digits.SpigotFractionalPrefix(4096))
	path := filepath.Join(b.TempDir(), "bench.dloom")
	w, err := container.NewWriter(path, nil, "gzip", "none", "")
	if err != nil {
		b.Fatal(err)
	}
	if err := w.Write(chunk); err != nil {
		b.Fatal(err)
	}
	if err := w.Close(); err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(chunk)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := container.NewReader(path, "")
		if err != nil {
			b.Fatal(err)
		}
		if _, err := r.ReadAll(); err != nil {
			b.Fatal(err)
		}
		_ = r.Close()
	}
}

func BenchmarkEnvelopeRoundTrip(b *testing.B) {
	plaintext := []byte(digits.SpigotFractionalPrefix(4096))
	b.SetBytes(int64(len(plaintext)))
	for i := 0; i < b.N; i++ {
		blob, err := envelope.Encrypt(plaintext, "benchmark-password", "chacha20-poly1305", nil)
		if err != nil {
			b.Fatal(err)
		}
		if _, _, err := envelope.Decrypt(blob, "benchmark-password"); err != nil {
			b.Fatal(err)
		}
	}
}
