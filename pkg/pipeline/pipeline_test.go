package pipeline_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
	"github.com/digitloom/digitloom/pkg/container"
	"github.com/digitloom/digitloom/pkg/envelope"
	"github.com/digitloom/digitloom/pkg/metrics"
	"github.com/digitloom/digitloom/pkg/pipeline"
	"github.com/digitloom/digitloom/pkg/verify"
)

func newPipeline() *pipeline.Pipeline {
	return pipeline.New(metrics.NullLogger(), metrics.NewCollector(nil))
}

func TestRunTextPi(t *testing.T) {
	res, err := newPipeline().Run(context.Background(), pipeline.Request{
		Constant:      "pi",
		Digits:        30,
		Base:          10,
		Format:        pipeline.FormatText,
		VerifySamples: 20,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := strings.TrimSpace(string(res.Artifact))
	if got != "3.141592653589793238462643383279" {
		t.Errorf("artifact = %q", got)
	}
	if res.Verification == nil || !res.Verification.Passed {
		t.Fatalf("verification = %+v", res.Verification)
	}
	if res.Verification.Method != verify.MethodSpigot {
		t.Errorf("method = %q", res.Verification.Method)
	}
	if res.RequestID == "" {
		t.Error("missing request id")
	}
}

func TestRunHexPi(t *testing.T) {
	res, err := newPipeline().Run(context.Background(), pipeline.Request{
		Constant:      "pi",
		Digits:        16,
		Base:          16,
		Format:        pipeline.FormatText,
		VerifySamples: 16,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := strings.TrimSpace(string(res.Artifact))
	if !strings.EqualFold(got, "3.243f6a8885a308d3") {
		t.Errorf("artifact = %q", got)
	}
	if res.Verification == nil || !res.Verification.Passed || res.Verification.Method != verify.MethodBBP {
		t.Errorf("verification = %+v", res.Verification)
	}
}

func TestRunExpression(t *testing.T) {
	res, err := newPipeline().Run(context.Background(), pipeline.Request{
		Expression:    "(1 + sqrt(5)) / 2",
		Digits:        20,
		Format:        pipeline.FormatJSON,
		VerifySamples: 20,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(string(res.Artifact), "61803398874989484820") {
		t.Errorf("artifact = %s", res.Artifact)
	}
	if res.Verification == nil || !res.Verification.Passed || res.Verification.Method != verify.MethodRecompute {
		t.Errorf("verification = %+v", res.Verification)
	}
}

func TestRunContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pi.dloom")
	res, err := newPipeline().Run(context.Background(), pipeline.Request{
		Constant:      "pi",
		Digits:        100,
		Format:        pipeline.FormatContainer,
		OutputPath:    path,
		Compression:   constants.CompressionGzip,
		Encryption:    constants.EncryptionChaCha20,
		Password:      "hunter2",
		ChunkSize:     32,
		VerifySamples: 50,
		Metadata:      map[string]string{"label": "test run"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Path != path {
		t.Errorf("path = %q", res.Path)
	}
	if res.Verification == nil || !res.Verification.Passed {
		t.Fatalf("verification = %+v", res.Verification)
	}

	r, err := container.NewReader(path, "hunter2")
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	header := r.Header()
	if header["constant"] != "pi" || header["integer"] != "3" || header["label"] != "test run" {
		t.Errorf("header = %v", header)
	}
	data, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(data) != 100 || !strings.HasPrefix(string(data), "1415926535") {
		t.Errorf("digits = %q", data)
	}
}

// TestRunContainerReadMetrics checks the read-back pass over a written
// container accounts for every chunk in the collector.
func TestRunContainerReadMetrics(t *testing.T) {
	c := metrics.NewCollector(nil)
	p := pipeline.New(metrics.NullLogger(), c)

	_, err := p.Run(context.Background(), pipeline.Request{
		Constant:   "pi",
		Digits:     100,
		Format:     pipeline.FormatContainer,
		OutputPath: filepath.Join(t.TempDir(), "pi.dloom"),
		ChunkSize:  25,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := c.Snapshot()
	if snap.ChunksWritten != 4 || snap.ChunksRead != 4 {
		t.Errorf("chunks written/read = %d/%d", snap.ChunksWritten, snap.ChunksRead)
	}
	if snap.AuthFailures != 0 || snap.CodecErrors != 0 {
		t.Errorf("failure counters = %d/%d", snap.AuthFailures, snap.CodecErrors)
	}
}

// TestRunVerifyFullPrefix verifies every produced digit against the oracle;
// generation must carry enough guard digits that the two computations agree
// all the way to the last compared position.
func TestRunVerifyFullPrefix(t *testing.T) {
	res, err := newPipeline().Run(context.Background(), pipeline.Request{
		Constant:      "ln2",
		Digits:        500,
		Format:        pipeline.FormatText,
		VerifySamples: 500,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Verification == nil || !res.Verification.Passed {
		t.Fatalf("verification = %+v", res.Verification)
	}
	if res.Verification.Method != verify.MethodRecompute {
		t.Errorf("method = %q", res.Verification.Method)
	}
}

func TestRunEnveloped(t *testing.T) {
	res, err := newPipeline().Run(context.Background(), pipeline.Request{
		Constant:      "e",
		Digits:        25,
		Format:        pipeline.FormatText,
		Encryption:    constants.EncryptionAESGCM,
		Password:      "hunter2",
		VerifySamples: 25,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !envelope.IsEnvelope(res.Artifact) {
		t.Fatal("artifact is not an envelope")
	}
	if res.Verification == nil || !res.Verification.Passed {
		t.Fatalf("verification = %+v", res.Verification)
	}

	inner, _, err := envelope.Decrypt(res.Artifact, "hunter2")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !strings.HasPrefix(string(inner), "2.7182818284590452353602874") {
		t.Errorf("inner = %q", inner)
	}
}

func TestRunValidation(t *testing.T) {
	cases := []struct {
		name string
		req  pipeline.Request
		want error
	}{
		{"negative digits", pipeline.Request{Constant: "pi", Digits: -1}, dlerrors.ErrNegativeDigits},
		{"unknown format", pipeline.Request{Constant: "pi", Digits: 1, Format: "xml"}, dlerrors.ErrUnsupportedCombination},
		{"container without path", pipeline.Request{Constant: "pi", Digits: 1, Format: pipeline.FormatContainer}, dlerrors.ErrUnsupportedCombination},
		{"compressed buffer", pipeline.Request{Constant: "pi", Digits: 1, Compression: constants.CompressionGzip}, dlerrors.ErrUnsupportedCombination},
		{"encryption without password", pipeline.Request{Constant: "pi", Digits: 1, Encryption: constants.EncryptionAESGCM}, dlerrors.ErrPasswordRequired},
		{"no constant or expression", pipeline.Request{Digits: 1}, dlerrors.ErrBadExpression},
		{"unknown constant", pipeline.Request{Constant: "gamma", Digits: 1}, dlerrors.ErrUnknownConstant},
	}
	for _, tc := range cases {
		if _, err := newPipeline().Run(context.Background(), tc.req); !dlerrors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "canceled.dloom")
	_, err := newPipeline().Run(ctx, pipeline.Request{
		Constant:   "pi",
		Digits:     100,
		Format:     pipeline.FormatContainer,
		OutputPath: path,
		ChunkSize:  10,
	})
	if !dlerrors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}

	// The partial container must still open cleanly; cancellation landed
	// before the first chunk, so it is empty but well-formed.
	r, rerr := container.NewReader(path, "")
	if rerr != nil {
		t.Fatalf("NewReader on partial container: %v", rerr)
	}
	defer r.Close()
	if data, rerr := r.ReadAll(); rerr != nil || len(data) != 0 {
		t.Errorf("partial container: %q, %v", data, rerr)
	}
}

func TestStreamPiBounded(t *testing.T) {
	var b strings.Builder
	n, err := newPipeline().StreamPi(context.Background(), &b, 51, 10)
	if err != nil {
		t.Fatalf("StreamPi: %v", err)
	}
	if n != 51 {
		t.Errorf("written = %d", n)
	}
	if b.String() != "3.141592653589793238462643383279502884197169399375105" {
		t.Errorf("output = %q", b.String())
	}
}

func TestStreamPiCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var b strings.Builder
	n, err := newPipeline().StreamPi(ctx, &b, 0, 10)
	if !dlerrors.Is(err, context.Canceled) {
		t.Fatalf("got %v", err)
	}
	if n != 0 {
		t.Errorf("written = %d", n)
	}
}

func TestStreamPiPackageLevel(t *testing.T) {
	var b strings.Builder
	n, err := pipeline.StreamPi(context.Background(), &b, 20, 7)
	if err != nil {
		t.Fatalf("StreamPi: %v", err)
	}
	if n != 20 {
		t.Errorf("written = %d", n)
	}
	if b.String() != "3.14159265358979323846" {
		t.Errorf("output = %q", b.String())
	}
}

func TestStreamPiBadChunkSize(t *testing.T) {
	var b strings.Builder
	if _, err := newPipeline().StreamPi(context.Background(), &b, 10, 0); !dlerrors.Is(err, dlerrors.ErrInvalidChunkSize) {
		t.Fatalf("got %v", err)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	req := pipeline.Request{Constant: "pi", Digits: 10, Base: 10}
	fractional := "1415926535"

	for _, format := range []string{
		pipeline.FormatText, pipeline.FormatJSON, pipeline.FormatCSV,
		pipeline.FormatTSV, pipeline.FormatNDJSON, pipeline.FormatBinary,
	} {
		artifact, err := pipeline.Serialize(format, req, "3", fractional)
		if err != nil {
			t.Fatalf("%s: Serialize: %v", format, err)
		}
		got, err := pipeline.ExtractFractional(format, artifact, 10)
		if err != nil {
			t.Fatalf("%s: ExtractFractional: %v", format, err)
		}
		if got != fractional {
			t.Errorf("%s: round trip = %q", format, got)
		}
	}
}

func TestSerializeBinaryBase16(t *testing.T) {
	req := pipeline.Request{Constant: "pi", Digits: 8, Base: 16}
	artifact, err := pipeline.Serialize(pipeline.FormatBinary, req, "3", "243f6a88")
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := []byte{2, 4, 3, 15, 6, 10, 8, 8}
	if string(artifact) != string(want) {
		t.Errorf("artifact = %v", artifact)
	}
	got, err := pipeline.ExtractFractional(pipeline.FormatBinary, artifact, 16)
	if err != nil {
		t.Fatalf("ExtractFractional: %v", err)
	}
	if got != "243f6a88" {
		t.Errorf("got %q", got)
	}
}
