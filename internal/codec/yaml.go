package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/winenv/envkit/pkg/types"
)

// scopeDoc is the structured document, one per scope. PathLike values are an
// ordered segment list rather than a single delimited string, so no
// delimiter-escaping ambiguity can creep in.
type scopeDoc struct {
	Scope     string     `yaml:"scope"      json:"scope"`
	Variables []varEntry `yaml:"variables"  json:"variables"`
}

type varEntry struct {
	Name     string   `yaml:"name"               json:"name"`
	Kind     string   `yaml:"kind,omitempty"     json:"kind,omitempty"`
	Value    string   `yaml:"value,omitempty"    json:"value,omitempty"`
	Segments []string `yaml:"segments,omitempty" json:"segments,omitempty"`
}

func docsFromSets(sets []*types.VariableSet) []scopeDoc {
	docs := make([]scopeDoc, 0, len(sets))
	for _, set := range sets {
		doc := scopeDoc{Scope: set.Scope.String()}
		for _, v := range set.Vars {
			entry := varEntry{Name: v.Name, Kind: v.Kind.String()}
			if v.Kind == types.KindPathLike {
				entry.Segments = v.Segments()
			} else {
				entry.Value = v.Value
			}
			doc.Variables = append(doc.Variables, entry)
		}
		docs = append(docs, doc)
	}
	return docs
}

func recordsFromDocs(docs []scopeDoc) (*types.ImportBatch, error) {
	batch := &types.ImportBatch{}
	for _, doc := range docs {
		scope, err := types.ParseScope(doc.Scope)
		if err != nil {
			return nil, &types.Error{Kind: types.ErrKindMalformed, Msg: "codec: bad scope in document", Err: types.ErrMalformedInput}
		}
		for _, entry := range doc.Variables {
			kind, err := types.ParseKind(entry.Kind)
			if err != nil {
				return nil, &types.Error{Kind: types.ErrKindMalformed, Msg: fmt.Sprintf("codec: bad kind for %s", entry.Name), Err: types.ErrMalformedInput}
			}
			value := entry.Value
			if len(entry.Segments) > 0 {
				if entry.Value != "" {
					return nil, &types.Error{Kind: types.ErrKindMalformed, Msg: fmt.Sprintf("codec: %s has both value and segments", entry.Name), Err: types.ErrMalformedInput}
				}
				kind = types.KindPathLike
				value = types.JoinSegments(entry.Segments)
			}
			batch.Records = append(batch.Records, types.Record{
				Scope:  scope,
				Name:   entry.Name,
				Value:  value,
				Kind:   kind,
				Action: types.ActionSet,
			})
		}
	}
	return batch, nil
}

type yamlCodec struct{}

func (yamlCodec) Encode(sets []*types.VariableSet) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, doc := range docsFromSets(sets) {
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("codec: yaml encode: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("codec: yaml encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (yamlCodec) Decode(data []byte) (*types.ImportBatch, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs []scopeDoc
	for {
		var doc scopeDoc
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &types.Error{Kind: types.ErrKindMalformed, Msg: "codec: yaml decode: " + err.Error(), Err: types.ErrMalformedInput}
		}
		docs = append(docs, doc)
	}
	return recordsFromDocs(docs)
}
