package regtext

import (
	"fmt"
	"strconv"
	"strings"
)

// escapeString escapes a string for .reg format (backslashes and quotes).
func escapeString(s string) string {
	s = strings.ReplaceAll(s, Backslash, EscapedBackslash)
	s = strings.ReplaceAll(s, Quote, EscapedQuote)
	return s
}

// unescapeRegString unescapes a string from .reg format. Fast path: no
// backslash means no escapes and no allocation.
func unescapeRegString(s string) string {
	if strings.IndexByte(s, '\\') == -1 {
		return s
	}
	s = strings.ReplaceAll(s, EscapedBackslash, Backslash)
	s = strings.ReplaceAll(s, EscapedQuote, Quote)
	return s
}

// findClosingQuote finds the position of the closing quote in a line,
// accounting for escaped quotes (preceded by an odd number of backslashes).
// The search starts at position 1, assuming the opening quote is at 0.
// Returns -1 if no valid closing quote is found.
func findClosingQuote(line string) int {
	for i := 1; i < len(line); i++ {
		if line[i] == '"' {
			numBackslashes := 0
			for j := i - 1; j >= 0 && line[j] == '\\'; j-- {
				numBackslashes++
			}
			if numBackslashes%2 == 1 {
				continue
			}
			return i
		}
	}
	return -1
}

// formatHex renders bytes as regedit does: comma-separated lowercase pairs,
// wrapped with a trailing backslash continuation near column 78.
func formatHex(prefix string, data []byte) string {
	var b strings.Builder
	b.WriteString(prefix)
	col := len(prefix)
	for i, by := range data {
		pair := fmt.Sprintf(HexByteFormat, by)
		if i > 0 {
			b.WriteString(HexByteSeparator)
			col++
		}
		if col+len(pair) > HexWrapColumn {
			b.WriteString(LineContinuation + CRLF + "  ")
			col = 2
		}
		b.WriteString(pair)
		col += len(pair)
	}
	return b.String()
}

// parseHexBytes parses hex data from .reg format (hex(2):01,00,...). The
// caller has already joined continuation lines; this strips the prefix up to
// the colon, then decodes comma-separated pairs, tolerating stray whitespace
// and single-digit bytes.
func parseHexBytes(hexStr string) ([]byte, error) {
	colonPos := strings.Index(hexStr, ":")
	if colonPos == -1 {
		return nil, fmt.Errorf("regtext: hex data missing colon in %q", hexStr)
	}
	hexStr = hexStr[colonPos+1:]
	var out []byte
	for _, part := range strings.Split(hexStr, HexByteSeparator) {
		part = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(part), LineContinuation))
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("regtext: invalid hex byte %q: %w", part, err)
		}
		out = append(out, byte(n))
	}
	return out, nil
}
