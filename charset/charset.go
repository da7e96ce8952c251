// Package charset translates between a DICOM dataset's declared
// SpecificCharacterSet and UTF-8, including ISO 2022 code extensions.
//
// Grounded on the reference charactersets.go (golang.org/x/net/html/charset
// defined-term lookup backed by golang.org/x/text/encoding), extended with
// the full defined-term table and with ISO 2022 escape sequence handling.
package charset

import (
	"bytes"
	"strings"

	netcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/orthancsoft/dicomcodec/dcmerr"
	"github.com/orthancsoft/dicomcodec/dlog"
)

// Encoding identifies one of the character sets this module recognises. It
// is a small closed value rather than golang.org/x/text/encoding.Encoding
// directly, so it can be compared, logged, and used as a map key.
type Encoding int

// The character sets this module recognises.
const (
	Unknown Encoding = iota
	ASCII
	Latin1
	Latin2
	Latin3
	Latin4
	Cyrillic
	Arabic
	Greek
	Hebrew
	Latin5
	JISX0201
	Thai
	UTF8
	GB18030
	GBK
	Windows1251
	Windows1252
	JISX0208   // ISO 2022 IR 87, Kanji
	JISX0212   // ISO 2022 IR 159, supplementary Kanji
	KSX1001    // ISO 2022 IR 149, Korean Hangul
)

func (e Encoding) String() string {
	switch e {
	case ASCII:
		return "ASCII"
	case Latin1:
		return "ISO_IR 100"
	case Latin2:
		return "ISO_IR 101"
	case Latin3:
		return "ISO_IR 109"
	case Latin4:
		return "ISO_IR 110"
	case Cyrillic:
		return "ISO_IR 144"
	case Arabic:
		return "ISO_IR 127"
	case Greek:
		return "ISO_IR 126"
	case Hebrew:
		return "ISO_IR 138"
	case Latin5:
		return "ISO_IR 148"
	case JISX0201:
		return "ISO_IR 13"
	case Thai:
		return "ISO_IR 166"
	case UTF8:
		return "ISO_IR 192"
	case GB18030:
		return "GB18030"
	case GBK:
		return "GBK"
	case Windows1251:
		return "windows-1251"
	case Windows1252:
		return "windows-1252"
	case JISX0208:
		return "ISO 2022 IR 87"
	case JISX0212:
		return "ISO 2022 IR 159"
	case KSX1001:
		return "ISO 2022 IR 149"
	default:
		return "Unknown"
	}
}

// definedTerms maps every DICOM SpecificCharacterSet defined term this
// module recognises (both the plain ISO_IR NNN form and its "ISO 2022 IR
// NNN" code-extension sibling) to the internal Encoding value, per the
// table in PS3.3 Annex C.12.1.1.2. Unrecognised terms fall back to ASCII.
var definedTerms = map[string]Encoding{
	"":          ASCII,
	"ISO_IR 6":  ASCII,
	"ISO_IR 100": Latin1,
	"ISO_IR 101": Latin2,
	"ISO_IR 109": Latin3,
	"ISO_IR 110": Latin4,
	"ISO_IR 144": Cyrillic,
	"ISO_IR 127": Arabic,
	"ISO_IR 126": Greek,
	"ISO_IR 138": Hebrew,
	"ISO_IR 148": Latin5,
	"ISO_IR 13":  JISX0201,
	"ISO_IR 166": Thai,
	"ISO_IR 192": UTF8,
	"GB18030":    GB18030,
	"GBK":        GBK,

	"ISO 2022 IR 6":   ASCII,
	"ISO 2022 IR 100": Latin1,
	"ISO 2022 IR 101": Latin2,
	"ISO 2022 IR 109": Latin3,
	"ISO 2022 IR 110": Latin4,
	"ISO 2022 IR 144": Cyrillic,
	"ISO 2022 IR 127": Arabic,
	"ISO 2022 IR 126": Greek,
	"ISO 2022 IR 138": Hebrew,
	"ISO 2022 IR 148": Latin5,
	"ISO 2022 IR 13":  JISX0201,
	"ISO 2022 IR 166": Thai,
	"ISO 2022 IR 87":  JISX0208,
	"ISO 2022 IR 159": JISX0212,
	"ISO 2022 IR 149": KSX1001,
}

// textEncodings maps every Encoding value except Unknown, UTF8 (which needs
// no decoding) and the ISO 2022 multi-byte Kanji/Hangul sets (which only ever appear as a code extension target, see
// iso2022.go) to the golang.org/x/text codec that implements it.
var textEncodings = map[Encoding]encoding.Encoding{
	ASCII:       charmap.Windows1252, // supports the ASCII subset; extended bytes are non-conformant input
	Latin1:      charmap.ISO8859_1,
	Latin2:      charmap.ISO8859_2,
	Latin3:      charmap.ISO8859_3,
	Latin4:      charmap.ISO8859_4,
	Cyrillic:    charmap.ISO8859_5,
	Arabic:      charmap.ISO8859_6,
	Greek:       charmap.ISO8859_7,
	Hebrew:      charmap.ISO8859_8,
	Latin5:      charmap.ISO8859_9,
	JISX0201:    japanese.ShiftJIS,
	Thai:        charmap.Windows874, // TIS-620 compatible for the printable range DICOM uses
	GB18030:     simplifiedchinese.GB18030,
	GBK:         simplifiedchinese.GBK,
	Windows1251: charmap.Windows1251,
	Windows1252: charmap.Windows1252,
}

// LookupDefinedTerm resolves one component of a SpecificCharacterSet value
// (already split on "\" and stripped of surrounding spaces) to an Encoding.
// Unrecognised terms report ok=false so callers can log a fallback warning.
func LookupDefinedTerm(term string) (enc Encoding, ok bool) {
	enc, ok = definedTerms[term]
	return enc, ok
}

// htmlLabelFor bridges a defined term to a golang.org/x/net/html/charset
// label. Nothing in this module calls it.
func htmlLabelFor(term string) (encoding.Encoding, string, bool) {
	enc, name := netcharset.Lookup(strings.ToLower(strings.ReplaceAll(term, " ", "-")))
	return enc, name, enc != nil
}

// ConvertToUtf8 decodes bytes declared in the given Encoding into a UTF-8
// string. If hasCodeExtensions is true, ISO 2022 escape sequences within the
// byte stream switch the active code page mid-string (see iso2022.go);
// otherwise the whole buffer is decoded with the single given Encoding.
func ConvertToUtf8(raw []byte, enc Encoding, hasCodeExtensions bool) (string, error) {
	if hasCodeExtensions {
		return decodeISO2022(raw, enc)
	}

	codec, ok := textEncodings[enc]
	if !ok {
		// Unknown, UTF8 and JISX0208/JISX0212/KSX1001 (which never appear
		// without code extensions) have no codec here: pass the bytes
		// through, dropping trailing NUL padding.
		return string(bytes.TrimRight(raw, "\x00")), nil
	}

	out, err := codec.NewDecoder().Bytes(raw)
	if err != nil {
		return "", dcmerr.Wrap(dcmerr.InternalError, err, "decoding bytes as %s", enc)
	}
	return string(out), nil
}

// ConvertFromUtf8 encodes a UTF-8 string into the byte representation of the
// given Encoding. Code extensions are never produced on write: this module
// only needs to honour incoming ISO 2022 sequences, not author data
// requiring more than one code page per string.
func ConvertFromUtf8(s string, enc Encoding) (string, error) {
	codec, ok := textEncodings[enc]
	if !ok {
		return s, nil
	}

	out, err := codec.NewEncoder().String(s)
	if err != nil {
		return "", dcmerr.Wrap(dcmerr.InternalError, err, "encoding string to %s", enc)
	}
	return out, nil
}

// korean is also imported by iso2022.go, where the ISO 2022 IR 149 decode
// call lives; this reference keeps the import in this file in use.
var _ = korean.EUCKR

// DetectEncoding resolves a dataset's (0008,0005) SpecificCharacterSet value
// into the Encoding to decode its textual elements with, and whether the
// value designates ISO 2022 code extensions. raw is the already-trimmed
// string form of the element (empty if the tag is absent, in which case
// defaultEncoding is returned unconditionally with hasCodeExtensions=false).
//
// Grounded on Orthanc's FromDcmtkBridge::DetectEncoding: the value is split
// on the backslash component delimiter; more than one component means code
// extensions are in play. Only the first non-empty component is ever
// inspected — if it resolves, that's the answer; if it doesn't, the value
// falls back to ASCII with a diagnostic immediately, without considering
// any later component.
func DetectEncoding(raw string, defaultEncoding Encoding) (enc Encoding, hasCodeExtensions bool) {
	if raw == "" {
		return defaultEncoding, false
	}

	terms := strings.Split(raw, "\\")
	hasCodeExtensions = len(terms) > 1

	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if found, ok := LookupDefinedTerm(term); ok {
			return found, hasCodeExtensions
		}
		dlog.Warn(dlog.Fields{"specificCharacterSet": term}, "unsupported Specific Character Set, fallback to ASCII")
		return ASCII, hasCodeExtensions
	}

	return ASCII, hasCodeExtensions
}
