package digits_test

import (
	"math/big"
	"testing"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
	"github.com/digitloom/digitloom/pkg/digits"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name   string
		digits int
		base   int
		guard  int
		want   int
	}{
		{"base 10 identity", 100, 10, 30, 130},
		{"base 16 needs more decimals", 100, 16, 30, 151},
		{"base 2 needs fewer decimals", 100, 2, 30, 61},
		{"zero digits", 0, 10, 30, 30},
		{"verify guard", 50, 10, 60, 110},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := digits.Plan(tt.digits, tt.base, tt.guard)
			if err != nil {
				t.Fatalf("Plan failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Plan(%d, %d, %d) = %d, want %d", tt.digits, tt.base, tt.guard, got, tt.want)
			}
		})
	}
}

func TestPlanRejectsBadInputs(t *testing.T) {
	if _, err := digits.Plan(-1, 10, 30); !dlerrors.Is(err, dlerrors.ErrNegativeDigits) {
		t.Errorf("negative count: got %v, want ErrNegativeDigits", err)
	}
	if _, err := digits.Plan(10, 1, 30); !dlerrors.Is(err, dlerrors.ErrInvalidBase) {
		t.Errorf("base 1: got %v, want ErrInvalidBase", err)
	}
	if _, err := digits.Plan(10, 37, 30); !dlerrors.Is(err, dlerrors.ErrInvalidBase) {
		t.Errorf("base 37: got %v, want ErrInvalidBase", err)
	}
}

func valueFromString(t *testing.T, s string, decimalDigits int) digits.Value {
	t.Helper()
	f, _, err := big.ParseFloat(s, 10, digits.Bits(decimalDigits), big.ToNearestEven)
	if err != nil {
		t.Fatalf("ParseFloat(%q) failed: %v", s, err)
	}
	return digits.NewValue(f, decimalDigits)
}

func TestFracStreamBase10(t *testing.T) {
	v := valueFromString(t, "3.14159265358979", 20)

	stream, err := digits.NewFracStream(v, 8, 10)
	if err != nil {
		t.Fatalf("NewFracStream failed: %v", err)
	}
	want := []int{1, 4, 1, 5, 9, 2, 6, 5}
	for i, w := range want {
		d, ok := stream.Next()
		if !ok {
			t.Fatalf("stream ended early at %d", i)
		}
		if d != w {
			t.Errorf("digit %d: got %d, want %d", i, d, w)
		}
	}
	if _, ok := stream.Next(); ok {
		t.Error("stream should be exhausted after requested count")
	}
}

func TestFracStreamBase16(t *testing.T) {
	// 0.1 (hex 0.19999...): 1/16 + 9/256 + ...
	v := valueFromString(t, "0.1", 20)
	stream, err := digits.NewFracStream(v, 4, 16)
	if err != nil {
		t.Fatalf("NewFracStream failed: %v", err)
	}
	want := []int{1, 9, 9, 9}
	for i, w := range want {
		d, _ := stream.Next()
		if d != w {
			t.Errorf("hex digit %d: got %d, want %d", i, d, w)
		}
	}
}

func TestFracStreamNegativeValue(t *testing.T) {
	// Fractional digits follow floor semantics: -0.25 = -1 + 0.75.
	v := valueFromString(t, "-0.25", 10)
	if v.IntegerPart().Int64() != -1 {
		t.Fatalf("IntegerPart = %v, want -1", v.IntegerPart())
	}
	stream, err := digits.NewFracStream(v, 2, 10)
	if err != nil {
		t.Fatalf("NewFracStream failed: %v", err)
	}
	d1, _ := stream.Next()
	d2, _ := stream.Next()
	if d1 != 7 || d2 != 5 {
		t.Errorf("got %d%d, want 75", d1, d2)
	}
}

func TestChunkStream(t *testing.T) {
	v := valueFromString(t, "3.14159265358979", 20)
	chunks, err := digits.NewChunkStream(v, 7, 10, 3)
	if err != nil {
		t.Fatalf("NewChunkStream failed: %v", err)
	}

	var got []string
	for {
		chunk, ok := chunks.Next()
		if !ok {
			break
		}
		got = append(got, string(chunk))
	}
	want := []string{"141", "592", "6"}
	if len(got) != len(want) {
		t.Fatalf("chunk count: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestChunkStreamCollectPrefix(t *testing.T) {
	v := valueFromString(t, "3.14159265358979", 20)
	chunks, err := digits.NewChunkStream(v, 10, 10, 4)
	if err != nil {
		t.Fatalf("NewChunkStream failed: %v", err)
	}
	if got := string(chunks.CollectPrefix(6)); got != "141592" {
		t.Errorf("CollectPrefix = %q, want %q", got, "141592")
	}
}

func TestChunkStreamRejectsBadChunkSize(t *testing.T) {
	v := valueFromString(t, "1.5", 10)
	if _, err := digits.NewChunkStream(v, 4, 10, 0); !dlerrors.Is(err, dlerrors.ErrInvalidChunkSize) {
		t.Errorf("got %v, want ErrInvalidChunkSize", err)
	}
}

const pi50 = "3.14159265358979323846264338327950288419716939937510"

func TestSpigotPrefix(t *testing.T) {
	got, err := digits.FormatSpigotPi(51)
	if err != nil {
		t.Fatalf("FormatSpigotPi failed: %v", err)
	}
	if got != pi50 {
		t.Errorf("spigot prefix:\n got %s\nwant %s", got, pi50)
	}
}

func TestSpigotFractionalPrefix(t *testing.T) {
	if got := digits.SpigotFractionalPrefix(10); got != "1415926535" {
		t.Errorf("got %q, want %q", got, "1415926535")
	}
	if got := digits.SpigotFractionalPrefix(0); got != "" {
		t.Errorf("zero count should yield empty string, got %q", got)
	}
}

func TestFormatSpigotPiRejectsZero(t *testing.T) {
	if _, err := digits.FormatSpigotPi(0); err == nil {
		t.Error("expected error for prefix length 0")
	}
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		n    int64
		base int
		want string
	}{
		{0, 16, "0"},
		{255, 16, "ff"},
		{-255, 16, "-ff"},
		{35, 36, "z"},
		{36, 36, "10"},
		{10, 2, "1010"},
		{12345, 10, "12345"},
	}
	for _, tt := range tests {
		got, err := digits.FormatInt(big.NewInt(tt.n), tt.base)
		if err != nil {
			t.Fatalf("FormatInt(%d, %d) failed: %v", tt.n, tt.base, err)
		}
		if got != tt.want {
			t.Errorf("FormatInt(%d, %d) = %q, want %q", tt.n, tt.base, got, tt.want)
		}
	}

	if _, err := digits.FormatInt(big.NewInt(1), 1); !dlerrors.Is(err, dlerrors.ErrInvalidBase) {
		t.Error("FormatInt should reject base 1")
	}
}

func TestRender(t *testing.T) {
	v := valueFromString(t, "3.14159265358979", 20)

	got, err := digits.Render(v, 5, 10)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got != "3.14159" {
		t.Errorf("Render = %q, want %q", got, "3.14159")
	}

	head, err := digits.Render(v, 0, 10)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if head != "3" {
		t.Errorf("Render with 0 digits = %q, want %q", head, "3")
	}
}

func TestDisplayPrefix(t *testing.T) {
	got, err := digits.DisplayPrefix("Pi = ", "", big.NewInt(3), 10)
	if err != nil {
		t.Fatalf("DisplayPrefix failed: %v", err)
	}
	if got != "Pi = 3." {
		t.Errorf("DisplayPrefix = %q, want %q", got, "Pi = 3.")
	}
}

func TestBitsMonotonic(t *testing.T) {
	if digits.Bits(10) >= digits.Bits(1000) {
		t.Error("Bits should grow with decimal precision")
	}
	if digits.Bits(10) < uint(constants.FloatSlackBits) {
		t.Error("Bits should include slack")
	}
}
