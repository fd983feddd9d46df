package regtext

import (
	"encoding/binary"
	"errors"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

var errUnsupportedEncoding = errors.New("regtext: unsupported encoding")

// decodeInput converts .reg input to UTF-8, sniffing BOMs first and falling
// back to the declared encoding. Regedit 5.00 writes UTF-16LE with a BOM;
// 4.00-era files are Windows-1252.
func decodeInput(data []byte, enc string) ([]byte, error) {
	if len(data) >= len(UTF16LEBOM) && data[0] == UTF16LEBOM[0] && data[1] == UTF16LEBOM[1] {
		return utf16LEToBytes(data[len(UTF16LEBOM):]), nil
	}
	if len(data) >= len(UTF8BOM) && data[0] == UTF8BOM[0] && data[1] == UTF8BOM[1] && data[2] == UTF8BOM[2] {
		return data[len(UTF8BOM):], nil
	}
	switch strings.ToUpper(enc) {
	case "", EncodingUTF8:
		return data, nil
	case EncodingUTF16LE:
		return utf16LEToBytes(data), nil
	case EncodingANSI:
		return charmap.Windows1252.NewDecoder().Bytes(data)
	default:
		return nil, errUnsupportedEncoding
	}
}

// utf16LEToBytes converts UTF-16LE data to UTF-8 bytes.
func utf16LEToBytes(data []byte) []byte {
	if len(data)%UTF16CodeUnitSize == 1 {
		data = data[:len(data)-1]
	}
	if len(data) == 0 {
		return nil
	}
	words := make([]uint16, len(data)/UTF16CodeUnitSize)
	for i := 0; i < len(words); i++ {
		words[i] = binary.LittleEndian.Uint16(data[i*UTF16CodeUnitSize:])
	}
	return []byte(string(utf16.Decode(words)))
}

// encodeUTF16LE encodes a string to UTF-16LE, optionally BOM-prefixed.
func encodeUTF16LE(s string, withBOM bool) []byte {
	words := utf16.Encode([]rune(s))
	bufSize := len(words) * UTF16CodeUnitSize
	if withBOM {
		bufSize += len(UTF16LEBOM)
	}
	buf := make([]byte, bufSize)
	offset := 0
	if withBOM {
		copy(buf, UTF16LEBOM)
		offset = len(UTF16LEBOM)
	}
	for i, w := range words {
		binary.LittleEndian.PutUint16(buf[offset+i*UTF16CodeUnitSize:], w)
	}
	return buf
}

// encodeUTF16LEZeroTerminated encodes a string to UTF-16LE with a null
// terminator, the payload layout of hex(2) expand-string values.
func encodeUTF16LEZeroTerminated(s string) []byte {
	words := utf16.Encode([]rune(s))
	buf := make([]byte, (len(words)+1)*UTF16CodeUnitSize)
	for i, w := range words {
		binary.LittleEndian.PutUint16(buf[i*UTF16CodeUnitSize:], w)
	}
	// terminator already zero from make
	return buf
}

// decodeUTF16LEZeroTerminated decodes a hex(2) payload back to a string,
// dropping the trailing terminator.
func decodeUTF16LEZeroTerminated(data []byte) string {
	s := string(utf16LEToBytes(data))
	return strings.TrimRight(s, "\x00")
}
