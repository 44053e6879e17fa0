// formats.go implements the output serializations a generation request can
// ask for. Every format encodes the same pair: the integer part rendered in
// the request base and the fractional digit string.
//
// Each serializer has a matching extractor so the verification oracle can
// recover the fractional digits from the artifact that was actually
// produced, rather than trusting an in-memory intermediate.
package pipeline

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
)

// Supported output formats.
const (
	FormatText      = "txt"
	FormatJSON      = "json"
	FormatCSV       = "csv"
	FormatTSV       = "tsv"
	FormatNDJSON    = "ndjson"
	FormatBinary    = "bin"
	FormatContainer = "dloom"
)

// ndjsonGroup is how many digits each NDJSON record carries.
const ndjsonGroup = 64

// jsonArtifact is the schema of the json format.
type jsonArtifact struct {
	Constant   string `json:"constant,omitempty"`
	Expression string `json:"expression,omitempty"`
	Base       int    `json:"base"`
	DigitCount int    `json:"digit_count"`
	Integer    string `json:"integer"`
	Fractional string `json:"fractional"`
}

type ndjsonRecord struct {
	Chunk  int    `json:"chunk"`
	Digits string `json:"digits"`
}

// Serialize encodes the rendered value in the requested format.
// FormatContainer is handled by the container writer, not here.
func Serialize(format string, req Request, integer, fractional string) ([]byte, error) {
	switch format {
	case FormatText:
		return []byte(integer + "." + fractional + "\n"), nil

	case FormatJSON:
		data, err := json.MarshalIndent(jsonArtifact{
			Constant:   req.Constant,
			Expression: req.Expression,
			Base:       req.Base,
			DigitCount: req.Digits,
			Integer:    integer,
			Fractional: fractional,
		}, "", "  ")
		if err != nil {
			return nil, dlerrors.NewCodecError("pipeline.Serialize", err)
		}
		return append(data, '\n'), nil

	case FormatCSV, FormatTSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if format == FormatTSV {
			w.Comma = '\t'
		}
		rows := [][]string{
			{"constant", "expression", "base", "digit_count", "integer", "fractional"},
			{req.Constant, req.Expression, strconv.Itoa(req.Base), strconv.Itoa(req.Digits), integer, fractional},
		}
		if err := w.WriteAll(rows); err != nil {
			return nil, dlerrors.NewCodecError("pipeline.Serialize", err)
		}
		return buf.Bytes(), nil

	case FormatNDJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for i := 0; i*ndjsonGroup < len(fractional) || i == 0; i++ {
			start := i * ndjsonGroup
			end := start + ndjsonGroup
			if end > len(fractional) {
				end = len(fractional)
			}
			if err := enc.Encode(ndjsonRecord{Chunk: i, Digits: fractional[start:end]}); err != nil {
				return nil, dlerrors.NewCodecError("pipeline.Serialize", err)
			}
		}
		return buf.Bytes(), nil

	case FormatBinary:
		out := make([]byte, len(fractional))
		for i := 0; i < len(fractional); i++ {
			v := digitValue(fractional[i])
			if v < 0 || v >= req.Base {
				return nil, dlerrors.ErrInvalidBase
			}
			out[i] = byte(v)
		}
		return out, nil

	default:
		return nil, dlerrors.ErrUnsupportedCombination
	}
}

// ExtractFractional recovers the fractional digit string from a serialized
// artifact. It is the inverse of Serialize with respect to the digits.
func ExtractFractional(format string, artifact []byte, base int) (string, error) {
	switch format {
	case FormatText:
		text := strings.TrimSpace(string(artifact))
		if i := strings.IndexByte(text, '.'); i >= 0 {
			return text[i+1:], nil
		}
		return "", nil

	case FormatJSON:
		var a jsonArtifact
		if err := json.Unmarshal(artifact, &a); err != nil {
			return "", dlerrors.NewCodecError("pipeline.ExtractFractional", err)
		}
		return a.Fractional, nil

	case FormatCSV, FormatTSV:
		r := csv.NewReader(bytes.NewReader(artifact))
		if format == FormatTSV {
			r.Comma = '\t'
		}
		rows, err := r.ReadAll()
		if err != nil || len(rows) < 2 || len(rows[1]) < 6 {
			return "", dlerrors.NewCodecError("pipeline.ExtractFractional", dlerrors.ErrHeaderInvalid)
		}
		return rows[1][5], nil

	case FormatNDJSON:
		var fractional strings.Builder
		scanner := bufio.NewScanner(bytes.NewReader(artifact))
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			var rec ndjsonRecord
			if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
				return "", dlerrors.NewCodecError("pipeline.ExtractFractional", err)
			}
			fractional.WriteString(rec.Digits)
		}
		if err := scanner.Err(); err != nil {
			return "", dlerrors.NewCodecError("pipeline.ExtractFractional", err)
		}
		return fractional.String(), nil

	case FormatBinary:
		var fractional strings.Builder
		fractional.Grow(len(artifact))
		for _, v := range artifact {
			if int(v) >= base {
				return "", dlerrors.ErrInvalidBase
			}
			fractional.WriteByte(constants.DigitAlphabet[v])
		}
		return fractional.String(), nil

	default:
		return "", dlerrors.ErrUnsupportedCombination
	}
}

// digitValue maps a digit symbol from the 36-symbol alphabet back to its
// numeric value, or -1 when the symbol is not a digit.
func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return -1
	}
}

// KnownFormat reports whether format names a supported serialization.
func KnownFormat(format string) bool {
	switch format {
	case FormatText, FormatJSON, FormatCSV, FormatTSV, FormatNDJSON, FormatBinary, FormatContainer:
		return true
	}
	return false
}
