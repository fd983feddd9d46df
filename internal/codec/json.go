package codec

import (
	"encoding/json"

	"github.com/winenv/envkit/pkg/types"
)

// jsonCodec carries the same document shape as the YAML codec, one array
// element per scope.
type jsonCodec struct{}

func (jsonCodec) Encode(sets []*types.VariableSet) ([]byte, error) {
	out, err := json.MarshalIndent(docsFromSets(sets), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func (jsonCodec) Decode(data []byte) (*types.ImportBatch, error) {
	var docs []scopeDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, &types.Error{Kind: types.ErrKindMalformed, Msg: "codec: json decode: " + err.Error(), Err: types.ErrMalformedInput}
	}
	return recordsFromDocs(docs)
}
