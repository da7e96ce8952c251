package charset

import (
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"

	"github.com/orthancsoft/dicomcodec/dcmerr"
)

// escapeTarget records what a recognised ISO 2022 escape sequence switches
// the active code element to, and whether the bytes following it (until the
// next escape) are single-byte or multi-byte per PS3.5 Table C.12-3.
type escapeTarget struct {
	enc       Encoding
	multiByte bool
}

// iso2022Escapes maps every escape sequence this module recognises (the
// bytes following the 0x1B ESC byte) to the code element it designates.
// Single-byte Latin/Cyrillic/Arabic/Greek/Hebrew/Thai sets switch the G1
// set via "ESC 2D x"; ASCII and the JIS Roman set switch G0 via "ESC 28 x";
// the multi-byte Kanji/Hangul sets switch G0 via "ESC 24 ...".
var iso2022Escapes = map[string]escapeTarget{
	"\x28\x42": {ASCII, false},     // ESC ( B: ISO-IR 6, ASCII
	"\x28\x4A": {JISX0201, false},  // ESC ( J: ISO-IR 14, JIS X0201 Romaji
	"\x29\x49": {JISX0201, false},  // ESC ) I: ISO-IR 13, JIS X0201 Katakana (G1)
	"\x2D\x41": {Latin1, false},    // ESC - A: ISO-IR 100
	"\x2D\x42": {Latin2, false},    // ESC - B: ISO-IR 101
	"\x2D\x43": {Latin3, false},    // ESC - C: ISO-IR 109
	"\x2D\x44": {Latin4, false},    // ESC - D: ISO-IR 110
	"\x2D\x4C": {Cyrillic, false},  // ESC - L: ISO-IR 144
	"\x2D\x47": {Arabic, false},    // ESC - G: ISO-IR 127
	"\x2D\x46": {Greek, false},     // ESC - F: ISO-IR 126
	"\x2D\x48": {Hebrew, false},    // ESC - H: ISO-IR 138
	"\x2D\x4D": {Latin5, false},    // ESC - M: ISO-IR 148
	"\x2D\x54": {Thai, false},      // ESC - T: ISO-IR 166
	"\x24\x42": {JISX0208, true},   // ESC $ B: ISO-IR 87, JIS X0208-1983
	"\x24\x40": {JISX0208, true},   // ESC $ @: ISO-IR 87, JIS X0208-1978
	"\x24\x28\x44": {JISX0212, true}, // ESC $ ( D: ISO-IR 159, JIS X0212
	"\x24\x29\x43": {KSX1001, true},  // ESC $ ) C: ISO-IR 149, KS X1001
}

const escByte = 0x1B

// decodeISO2022 decodes a byte stream that may switch code elements
// mid-string via ISO 2022 escape sequences, per PS3.5 Section 6.1.2.5.
// enc is the code element active before any escape sequence is seen (the
// first value of the SpecificCharacterSet attribute). Output is always
// concatenated into a single UTF-8 string in encounter order, matching
// Orthanc's ChangeStringEncoding: the string keeps its escape-free,
// already-decoded form once converted, code elements are never re-emitted.
func decodeISO2022(raw []byte, enc Encoding) (string, error) {
	var sb strings.Builder
	active := enc
	i := 0
	runStart := 0

	flush := func(end int) error {
		if end <= runStart {
			return nil
		}
		chunk, err := decodeRun(raw[runStart:end], active)
		if err != nil {
			return err
		}
		sb.WriteString(chunk)
		return nil
	}

	for i < len(raw) {
		if raw[i] != escByte {
			i++
			continue
		}

		if err := flush(i); err != nil {
			return "", err
		}

		target, consumed, ok := matchEscape(raw[i+1:])
		if !ok {
			// Unrecognised escape: skip the ESC byte alone and keep decoding
			// under the previously active code element, matching a lenient
			// reader rather than failing the whole value.
			i++
			runStart = i
			continue
		}

		active = target.enc
		i += 1 + consumed
		runStart = i
	}

	if err := flush(len(raw)); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// matchEscape finds the longest recognised escape sequence (the bytes after
// ESC) at the start of b, trying the 3-byte multi-byte designators before
// the 2-byte single-byte ones so "$ ( D" isn't mistaken for a prefix match.
func matchEscape(b []byte) (escapeTarget, int, bool) {
	for _, n := range []int{3, 2} {
		if len(b) < n {
			continue
		}
		if t, ok := iso2022Escapes[string(b[:n])]; ok {
			return t, n, true
		}
	}
	return escapeTarget{}, 0, false
}

// decodeRun decodes one contiguous run of bytes under a single active code
// element. Multi-byte Kanji/Hangul runs are handed to golang.org/x/text's
// decoders rather than hand-rolled: JIS X0208 runs go to the ISO-2022-JP
// decoder behind a re-inserted ESC $ B designation, JIS X0212 runs go to the
// EUC-JP decoder re-framed in its 0x8F three-byte form, and KS X1001 runs go
// to the EUC-KR decoder as they are.
func decodeRun(b []byte, enc Encoding) (string, error) {
	if len(b) == 0 {
		return "", nil
	}

	switch enc {
	case JISX0208:
		out, err := japanese.ISO2022JP.NewDecoder().Bytes(append([]byte("\x1b$B"), b...))
		if err != nil {
			return "", dcmerr.Wrap(dcmerr.InternalError, err, "decoding JIS X0208 run")
		}
		return string(out), nil
	case JISX0212:
		// golang.org/x/text has no standalone JIS X0212 decoder; EUC-JP
		// carries JIS X0212 as 0x8F followed by the two code bytes with
		// their high bit set, while an IR 159 run holds 7-bit pairs.
		euc := make([]byte, 0, len(b)/2*3)
		for i := 0; i+1 < len(b); i += 2 {
			euc = append(euc, 0x8F, b[i]|0x80, b[i+1]|0x80)
		}
		out, err := japanese.EUCJP.NewDecoder().Bytes(euc)
		if err != nil {
			return "", dcmerr.Wrap(dcmerr.InternalError, err, "decoding JIS X0212 run")
		}
		return string(out), nil
	case KSX1001:
		out, err := korean.EUCKR.NewDecoder().Bytes(b)
		if err != nil {
			return "", dcmerr.Wrap(dcmerr.InternalError, err, "decoding KS X1001 run")
		}
		return string(out), nil
	default:
		return ConvertToUtf8(b, enc, false)
	}
}
