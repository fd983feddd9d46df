package codec

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/winenv/envkit/pkg/types"
)

// csvCodec renders one row per variable: scope,name,value. PathLike values
// keep the ';' separator inline; the csv writer handles any quoting. Kind is
// re-derived from the name on decode.
type csvCodec struct{}

var csvHeader = []string{"scope", "name", "value"}

func (csvCodec) Encode(sets []*types.VariableSet) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, set := range sets {
		for _, v := range set.Vars {
			if err := w.Write([]string{v.Scope.String(), v.Name, v.Value}); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (csvCodec) Decode(data []byte) (*types.ImportBatch, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = len(csvHeader)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindMalformed, Msg: "codec: csv decode: " + err.Error(), Err: types.ErrMalformedInput}
	}
	if len(rows) == 0 {
		return nil, &types.Error{Kind: types.ErrKindMalformed, Msg: "codec: csv input is empty", Err: types.ErrMalformedInput}
	}
	batch := &types.ImportBatch{}
	for i, row := range rows {
		if i == 0 && row[0] == csvHeader[0] && row[1] == csvHeader[1] {
			continue // header row
		}
		scope, err := types.ParseScope(row[0])
		if err != nil {
			return nil, &types.Error{Kind: types.ErrKindMalformed, Msg: fmt.Sprintf("codec: csv row %d: bad scope %q", i+1, row[0]), Err: types.ErrMalformedInput}
		}
		batch.Records = append(batch.Records, types.Record{
			Scope:  scope,
			Name:   row[1],
			Value:  row[2],
			Kind:   types.DetectKind(row[1]),
			Action: types.ActionSet,
		})
	}
	return batch, nil
}
