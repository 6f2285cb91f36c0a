package smf

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Text meta events carry bytes with no declared encoding. Older files are
// commonly Shift_JIS or Latin-1.
var textEncodings = map[string]encoding.Encoding{
	"shift_jis":    japanese.ShiftJIS,
	"sjis":         japanese.ShiftJIS,
	"euc-jp":       japanese.EUCJP,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
}

// DecodeText converts raw meta event text to UTF-8. An empty name or "utf-8"
// returns valid UTF-8 input unchanged and falls back to Windows-1252 otherwise.
func DecodeText(raw, enc string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(enc))
	if name == "" || name == "utf-8" || name == "utf8" {
		if utf8.ValidString(raw) {
			return raw, nil
		}
		name = "windows-1252"
	}
	e, ok := textEncodings[name]
	if !ok {
		return "", fmt.Errorf("smf: unknown text encoding %q", enc)
	}
	s, _, err := transform.String(e.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("smf: decode %s text: %w", name, err)
	}
	return s, nil
}
