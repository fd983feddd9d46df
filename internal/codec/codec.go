// Package codec converts between the in-memory variable collection and its
// external byte representations. Decoding never applies changes; it yields an
// ImportBatch for the controller to validate and commit.
//
// Four formats are supported: YAML (structured, the default export format),
// JSON (the same document shape), CSV (tabular), and .reg (byte-compatible
// with regedit's own export so files interchange with native tools).
package codec

import (
	"path/filepath"
	"strings"

	"github.com/winenv/envkit/pkg/types"
)

// Format identifies a serialization format.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
	FormatCSV
	FormatReg
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatReg:
		return "reg"
	default:
		return "yaml"
	}
}

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "reg":
		return FormatReg, nil
	default:
		return 0, &types.Error{Kind: types.ErrKindValidation, Msg: "codec: unknown format " + s}
	}
}

// Codec is one format's encoder/decoder pair.
//
// Round-trip law: for every VariableSet representable in the format,
// Decode(Encode(s)) preserves every variable and the exact segment order of
// PathLike values. CSV and .reg carry no explicit kind field, so kinds of
// non-conventional PathLike names survive only through YAML and JSON.
type Codec interface {
	// Encode serializes the sets, one scope per document/section.
	Encode(sets []*types.VariableSet) ([]byte, error)

	// Decode parses external bytes into a not-yet-applied batch. Malformed
	// input fails with types.ErrMalformedInput; no batch is constructed.
	Decode(data []byte) (*types.ImportBatch, error)
}

// For returns the codec for a format.
func For(f Format) Codec {
	switch f {
	case FormatJSON:
		return jsonCodec{}
	case FormatCSV:
		return csvCodec{}
	case FormatReg:
		return regCodec{}
	default:
		return yamlCodec{}
	}
}

// ForPath picks a codec from a file extension (.yaml/.yml, .json, .csv, .reg).
func ForPath(path string) (Codec, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return nil, &types.Error{Kind: types.ErrKindValidation, Msg: "codec: no file extension to infer a format from"}
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return nil, err
	}
	return For(f), nil
}
