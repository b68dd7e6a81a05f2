package ora

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// TextFromHex decodes an optionally 0x-prefixed hex string into UTF-8 text.
func TextFromHex(s string) (string, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("invalid hex payload: %w", err)
	}
	return TextFromBytes(raw), nil
}

// TextFromBytes interprets raw as UTF-8, replacing each invalid byte with U+FFFD.
func TextFromBytes(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	var b strings.Builder
	b.Grow(len(raw))
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		b.WriteRune(r)
		raw = raw[size:]
	}
	return b.String()
}

func outputText(value interface{}) (string, error) {
	switch typed := value.(type) {
	case []byte:
		return TextFromBytes(typed), nil
	case string:
		return TextFromHex(typed)
	default:
		return "", fmt.Errorf("unexpected output type %T", value)
	}
}
