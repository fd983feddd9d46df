package codec

import (
	"github.com/winenv/envkit/internal/regtext"
	"github.com/winenv/envkit/pkg/types"
)

// regCodec bridges to the .reg emitter/parser. Output is regedit-native:
// UTF-16LE with BOM, CRLF, hex(2) payloads for expandable values.
type regCodec struct{}

func (regCodec) Encode(sets []*types.VariableSet) ([]byte, error) {
	return regtext.Export(sets, regtext.ExportOptions{})
}

func (regCodec) Decode(data []byte) (*types.ImportBatch, error) {
	records, err := regtext.Parse(data, "")
	if err != nil {
		return nil, err
	}
	return &types.ImportBatch{Records: records}, nil
}
