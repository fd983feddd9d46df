package regtext

import (
	"sort"
	"strings"

	"github.com/winenv/envkit/pkg/types"
)

// ExportOptions controls .reg output rendering.
type ExportOptions struct {
	// OutputEncoding selects "UTF-16LE" (regedit native, the default) or
	// "UTF-8".
	OutputEncoding string

	// WithBOM includes a byte-order mark. Regedit always writes one for
	// UTF-16LE, so that is the default when OutputEncoding is empty.
	WithBOM bool
}

// Export renders variable sets as a .reg 5.00 document byte-compatible with
// regedit's own export: CRLF line endings, UTF-16LE with BOM by default, one
// [section] per scope, values sorted by folded name. Plain values emit as
// quoted strings; expandable values (PathLike included) emit as hex(2)
// REG_EXPAND_SZ payloads, exactly as regedit renders the Environment keys.
func Export(sets []*types.VariableSet, opts ExportOptions) ([]byte, error) {
	var b strings.Builder
	b.WriteString(RegFileHeader + CRLF)

	for _, set := range sets {
		b.WriteString(CRLF)
		b.WriteString(KeyOpenBracket + SectionPath(set.Scope) + KeyCloseBracket + CRLF)

		vars := make([]types.Variable, len(set.Vars))
		copy(vars, set.Vars)
		sort.Slice(vars, func(i, j int) bool {
			return strings.ToLower(vars[i].Name) < strings.ToLower(vars[j].Name)
		})
		for _, v := range vars {
			emitValue(&b, v)
		}
	}

	encoding := opts.OutputEncoding
	withBOM := opts.WithBOM
	if encoding == "" {
		encoding = EncodingUTF16LE
		withBOM = true
	}
	switch strings.ToUpper(encoding) {
	case EncodingUTF8:
		return []byte(b.String()), nil
	case EncodingUTF16LE:
		return encodeUTF16LE(b.String(), withBOM), nil
	default:
		return nil, errUnsupportedEncoding
	}
}

// SectionPath returns the full .reg section path for a scope.
func SectionPath(scope types.Scope) string {
	if scope == types.ScopeSystem {
		return SystemEnvKeyPath
	}
	return UserEnvKeyPath
}

func emitValue(b *strings.Builder, v types.Variable) {
	b.WriteString(Quote)
	b.WriteString(escapeString(v.Name))
	b.WriteString(Quote + ValueAssignment)
	if v.Expandable() {
		payload := encodeUTF16LEZeroTerminated(v.Value)
		b.WriteString(formatHex(HexExpandSZPrefix, payload))
	} else {
		b.WriteString(Quote)
		b.WriteString(escapeString(v.Value))
		b.WriteString(Quote)
	}
	b.WriteString(CRLF)
}
