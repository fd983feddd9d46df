package regtext

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/winenv/envkit/pkg/types"
)

// Parse converts .reg text into import records for the two Environment keys.
// Sections other than the environment keys are skipped (regedit exports may
// carry unrelated subtrees); value types the environment block cannot hold
// (dword, raw binary) are skipped as well. `"name"=-` lines yield delete
// records. enc names the fallback input encoding when no BOM is present.
func Parse(data []byte, enc string) ([]types.Record, error) {
	text, err := decodeInput(data, enc)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindMalformed, Msg: "regtext: undecodable input", Err: err}
	}

	scanner := bufio.NewScanner(strings.NewReader(string(text)))
	scanner.Buffer(make([]byte, 0, ScannerInitialBufferSize), ScannerMaxLineSize)

	seenHeader := false
	inEnvSection := false
	var scope types.Scope
	var records []types.Record

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), CR)
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, CommentPrefix) {
			continue
		}
		if !seenHeader {
			if trim != RegFileHeader && trim != "REGEDIT4" {
				return nil, &types.Error{Kind: types.ErrKindMalformed, Msg: fmt.Sprintf("regtext: missing header, got %q", trim), Err: types.ErrMalformedInput}
			}
			seenHeader = true
			continue
		}
		if strings.HasPrefix(trim, KeyOpenBracket) {
			if !strings.HasSuffix(trim, KeyCloseBracket) {
				return nil, &types.Error{Kind: types.ErrKindMalformed, Msg: fmt.Sprintf("regtext: malformed section %q", trim), Err: types.ErrMalformedInput}
			}
			section := strings.TrimSuffix(strings.TrimPrefix(trim, KeyOpenBracket), KeyCloseBracket)
			scope, inEnvSection = scopeForSection(section)
			continue
		}
		if !inEnvSection {
			continue
		}
		// Join hex continuation lines before parsing the value.
		for strings.HasSuffix(strings.TrimSpace(line), LineContinuation) && scanner.Scan() {
			line = strings.TrimSuffix(strings.TrimSpace(strings.TrimRight(line, CR)), LineContinuation)
			line += strings.TrimSpace(strings.TrimRight(scanner.Text(), CR))
		}
		rec, ok, err := parseValueLine(scope, strings.TrimSpace(line))
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &types.Error{Kind: types.ErrKindMalformed, Msg: "regtext: scan failed", Err: err}
	}
	if !seenHeader {
		return nil, &types.Error{Kind: types.ErrKindMalformed, Msg: "regtext: empty input", Err: types.ErrMalformedInput}
	}
	return records, nil
}

// scopeForSection maps a .reg section path onto a scope. Comparison is
// case-insensitive and accepts the abbreviated HKCU/HKLM root names.
func scopeForSection(section string) (types.Scope, bool) {
	s := strings.ToLower(section)
	switch {
	case s == strings.ToLower(UserEnvKeyPath), s == `hkcu\environment`:
		return types.ScopeUser, true
	case s == strings.ToLower(SystemEnvKeyPath),
		s == strings.ToLower(`HKLM\SYSTEM\CurrentControlSet\Control\Session Manager\Environment`):
		return types.ScopeSystem, true
	default:
		return 0, false
	}
}

func parseValueLine(scope types.Scope, line string) (types.Record, bool, error) {
	if strings.HasPrefix(line, "@") {
		// The environment keys carry no default value; ignore if present.
		return types.Record{}, false, nil
	}
	if !strings.HasPrefix(line, Quote) {
		return types.Record{}, false, &types.Error{Kind: types.ErrKindMalformed, Msg: fmt.Sprintf("regtext: malformed value line %q", line), Err: types.ErrMalformedInput}
	}
	end := findClosingQuote(line)
	if end < 0 {
		return types.Record{}, false, &types.Error{Kind: types.ErrKindMalformed, Msg: fmt.Sprintf("regtext: unterminated value name in %q", line), Err: types.ErrMalformedInput}
	}
	name := unescapeRegString(line[1:end])
	rest := line[end+1:]
	if !strings.HasPrefix(rest, ValueAssignment) {
		return types.Record{}, false, &types.Error{Kind: types.ErrKindMalformed, Msg: fmt.Sprintf("regtext: missing '=' in %q", line), Err: types.ErrMalformedInput}
	}
	payload := strings.TrimSpace(rest[1:])

	switch {
	case payload == DeleteValueToken:
		return types.Record{Scope: scope, Name: name, Action: types.ActionDelete}, true, nil

	case strings.HasPrefix(payload, Quote):
		if len(payload) < 2 || !strings.HasSuffix(payload, Quote) {
			return types.Record{}, false, &types.Error{Kind: types.ErrKindMalformed, Msg: fmt.Sprintf("regtext: unterminated string %q", payload), Err: types.ErrMalformedInput}
		}
		value := unescapeRegString(payload[1 : len(payload)-1])
		return types.Record{Scope: scope, Name: name, Value: value, Kind: types.DetectKind(name), Action: types.ActionSet}, true, nil

	case strings.HasPrefix(payload, HexExpandSZPrefix):
		raw, err := parseHexBytes(payload)
		if err != nil {
			return types.Record{}, false, &types.Error{Kind: types.ErrKindMalformed, Msg: "regtext: bad hex(2) payload", Err: err}
		}
		value := decodeUTF16LEZeroTerminated(raw)
		return types.Record{Scope: scope, Name: name, Value: value, Kind: types.DetectKind(name), Action: types.ActionSet}, true, nil

	case strings.HasPrefix(payload, HexPrefix), strings.HasPrefix(payload, DWORDPrefix):
		// Not representable as an environment string; skip.
		return types.Record{}, false, nil

	default:
		return types.Record{}, false, &types.Error{Kind: types.ErrKindMalformed, Msg: fmt.Sprintf("regtext: unrecognized value payload %q", payload), Err: types.ErrMalformedInput}
	}
}
