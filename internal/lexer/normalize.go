package lexer

import (
	"bytes"

	"golang.org/x/text/unicode/norm"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// normalizeSource strips a leading UTF-8 BOM and applies Unicode NFC
// normalization, so combining-character sequences and their precomposed
// equivalents (e.g. identifiers written "café" vs "café") tokenize
// identically regardless of how the source file was encoded.
func normalizeSource(src string) string {
	b := []byte(src)
	b = bytes.TrimPrefix(b, bomUTF8)
	if !norm.NFC.IsNormal(b) {
		b = norm.NFC.Bytes(b)
	}
	return string(b)
}
