package dicom

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/orthancsoft/dicomcodec/charset"
	"github.com/orthancsoft/dicomcodec/dcmerr"
)

// LeafCodecOptions configures ConvertLeafElement
type LeafCodecOptions struct {
	// ConvertBinaryToNull, when set, makes binary leaves project to Null
	// instead of Binary(bytes).
	ConvertBinaryToNull bool
	// MaxStringLen bounds decoded string values; 0 means unbounded. A tag
	// present in IgnoreLenSet is exempt from the bound.
	MaxStringLen int
	IgnoreLenSet map[DataElementTag]struct{}
}

// ConvertLeafElement converts one leaf DataElement into its simplified
// DicomValue projection, dispatching on VR. Sequence elements and
// the DCMTK-internal pseudo-VRs always project to Null: only the dataset
// walker may descend into a sequence.
//
// Grounded on Orthanc's FromDcmtkBridge::ConvertLeafElement and
// ApplyVisitorToLeaf.
func ConvertLeafElement(element *DataElement, opts LeafCodecOptions, enc charset.Encoding, hasCodeExtensions bool) (DicomValue, error) {
	vr := element.VR
	if vr == nil {
		vr = element.Tag.DictionaryVR()
	}

	switch vr.kind {
	case sequenceVR:
		return NullValue(), nil

	case textVR, uniqueIdentifierVR:
		return convertStringLeaf(element, vr, opts, enc, hasCodeExtensions)

	case numberBinaryVR:
		return convertNumberLeaf(element, vr)

	case tagVR:
		return convertAttributeLeaf(element)

	case bulkDataVR:
		// Parse's default options already resolve the BulkDataIterator each
		// element starts life as into a VR-appropriate Go type: []string for
		// UC/UR/UT, []uint32/[]float64/[]float32 for OL/OD/OF, and a
		// BulkDataBuffer only for the genuinely opaque OB/OW/UN.
		switch vr {
		case UCVR, URVR, UTVR:
			return convertStringLeaf(element, vr, opts, enc, hasCodeExtensions)
		case OLVR, ODVR, OFVR:
			return convertNumberLeaf(element, vr)
		default:
			if vr == UNVR {
				if s, ok, err := tryUnknownAsString(element, opts, enc, hasCodeExtensions); err != nil {
					return NullValue(), err
				} else if ok {
					return s, nil
				}
			}
			return convertBinaryLeaf(element, opts)
		}

	default:
		return NullValue(), nil
	}
}

// tryUnknownAsString handles the case where a UN element's
// dictionary-declared VR is textual and whose raw bytes are pure
// ASCII is emitted as a String without charset conversion, since the true
// character set of a private value with an unresolved VR is unknown.
func tryUnknownAsString(element *DataElement, opts LeafCodecOptions, enc charset.Encoding, hasCodeExtensions bool) (DicomValue, bool, error) {
	dictVR := element.Tag.DictionaryVR()
	if dictVR.kind != textVR {
		return DicomValue{}, false, nil
	}

	raw, err := binaryBytesOf(element)
	if err != nil {
		return DicomValue{}, false, nil
	}
	if !isPureASCII(raw) {
		return DicomValue{}, false, nil
	}

	v, err := convertStringLeaf(&DataElement{element.Tag, dictVR, []string{string(raw)}, element.ValueLength}, dictVR, opts, charset.UTF8, false)
	return v, true, err
}

func isPureASCII(b []byte) bool {
	for _, c := range b {
		if c > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func convertStringLeaf(element *DataElement, vr *VR, opts LeafCodecOptions, enc charset.Encoding, hasCodeExtensions bool) (DicomValue, error) {
	parts, ok := element.ValueField.([]string)
	if !ok {
		return NullValue(), nil
	}
	if len(parts) == 0 {
		return StringValue(""), nil
	}

	decoded := make([]string, len(parts))
	for i, raw := range parts {
		if vr == UIVR {
			decoded[i] = raw // unique identifiers are always plain ASCII
			continue
		}
		s, err := charset.ConvertToUtf8([]byte(raw), enc, hasCodeExtensions)
		if err != nil {
			return NullValue(), err
		}
		decoded[i] = s
	}

	joined := strings.Join(decoded, "\\")

	if opts.MaxStringLen > 0 && len(joined) > opts.MaxStringLen {
		if _, exempt := opts.IgnoreLenSet[element.Tag]; !exempt {
			return NullValue(), nil
		}
	}

	return StringValue(joined), nil
}

func convertNumberLeaf(element *DataElement, vr *VR) (DicomValue, error) {
	var strs []string

	switch values := element.ValueField.(type) {
	case []int16:
		for _, v := range values {
			strs = append(strs, strconv.FormatInt(int64(v), 10))
		}
	case []uint16:
		for _, v := range values {
			strs = append(strs, strconv.FormatUint(uint64(v), 10))
		}
	case []int32:
		for _, v := range values {
			strs = append(strs, strconv.FormatInt(int64(v), 10))
		}
	case []uint32:
		for _, v := range values {
			strs = append(strs, strconv.FormatUint(uint64(v), 10))
		}
	case []float32:
		for _, v := range values {
			strs = append(strs, strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
	case []float64:
		for _, v := range values {
			strs = append(strs, strconv.FormatFloat(v, 'g', -1, 64))
		}
	default:
		return NullValue(), nil
	}

	if len(strs) == 0 {
		return NullValue(), nil
	}
	return StringValue(strings.Join(strs, "\\")), nil
}

func convertAttributeLeaf(element *DataElement) (DicomValue, error) {
	tags, ok := element.ValueField.([]uint32)
	if !ok || len(tags) == 0 {
		return NullValue(), nil
	}
	strs := make([]string, len(tags))
	for i, t := range tags {
		strs[i] = DataElementTag(t).String()
	}
	return StringValue(strings.Join(strs, "\\")), nil
}

func convertBinaryLeaf(element *DataElement, opts LeafCodecOptions) (DicomValue, error) {
	if opts.ConvertBinaryToNull {
		return NullValue(), nil
	}

	raw, err := binaryBytesOf(element)
	if err != nil {
		return NullValue(), nil
	}
	return BinaryValue(raw), nil
}

// binaryBytesOf flattens any of the shapes a binary VR's ValueField may hold after parsing
// into a single raw byte slice, concatenating frames for a multi-fragment BulkDataBuffer (as
// encapsulated pixel data produces).
func binaryBytesOf(element *DataElement) ([]byte, error) {
	switch v := element.ValueField.(type) {
	case []byte:
		return v, nil
	case BulkDataBuffer:
		frames := v.Data()
		if len(frames) == 1 {
			return frames[0], nil
		}
		var out []byte
		for _, f := range frames {
			out = append(out, f...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("element %s: cannot flatten %T to bytes", element.Tag, element.ValueField)
	}
}

// FillElement builds a DataElement's ValueField from a UTF-8 string value.
// decodeDataUri, when true and value
// begins with "data:", decodes the URI's base64 payload into binary bytes
// instead of treating value as text. targetEncoding != UTF8 causes a
// transcode of value before it is parsed or stored.
//
// Grounded on Orthanc's FromDcmtkBridge::FillElementWithString.
func FillElement(tag DataElementTag, vr *VR, value string, decodeDataUri bool, targetEncoding charset.Encoding) (*DataElement, error) {
	if decodeDataUri && strings.HasPrefix(value, "data:") {
		_, raw, err := decodeDataURI(value)
		if err != nil {
			return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "tag %s: invalid data URI", tag)
		}
		return &DataElement{tag, vr, NewBulkDataBuffer(raw), uint32(len(raw))}, nil
	}

	encoded := value
	if targetEncoding != charset.UTF8 {
		transcoded, err := charset.ConvertFromUtf8(value, targetEncoding)
		if err != nil {
			return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "tag %s value %q: charset transcode failed", tag, value)
		}
		encoded = transcoded
	}

	switch vr.kind {
	case textVR, uniqueIdentifierVR:
		parts := strings.Split(encoded, "\\")
		return &DataElement{tag, vr, parts, uint32(len(encoded))}, nil

	case numberBinaryVR:
		return fillNumberElement(tag, vr, encoded)

	case bulkDataVR:
		switch vr {
		case UCVR, URVR, UTVR:
			parts := strings.Split(encoded, "\\")
			return &DataElement{tag, vr, parts, uint32(len(encoded))}, nil
		case OLVR, ODVR, OFVR:
			return fillNumberElement(tag, vr, encoded)
		default:
			raw := []byte(encoded)
			if vr == OWVR && len(raw)%2 != 0 {
				return nil, dcmerr.New(dcmerr.BadFileFormat, "tag %s value %q: OW requires an even byte count", tag, value)
			}
			return &DataElement{tag, vr, NewBulkDataBuffer(raw), uint32(len(raw))}, nil
		}

	case tagVR:
		return nil, dcmerr.New(dcmerr.NotImplemented, "tag %s: AT is not writable via FillElement", tag)

	case sequenceVR:
		return nil, dcmerr.New(dcmerr.ParameterOutOfRange, "tag %s: SQ is not writable via FillElement", tag)

	default:
		return nil, dcmerr.New(dcmerr.NotImplemented, "tag %s: VR %s is not writable via FillElement", tag, vr)
	}
}

func fillNumberElement(tag DataElementTag, vr *VR, encoded string) (*DataElement, error) {
	parts := strings.Split(encoded, "\\")

	switch vr {
	case SSVR:
		out := make([]int16, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 16)
			if err != nil {
				return nil, outOfRange(tag, encoded, err)
			}
			out[i] = int16(v)
		}
		return &DataElement{tag, vr, out, uint32(len(out) * 2)}, nil
	case USVR:
		out := make([]uint16, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 16)
			if err != nil {
				return nil, outOfRange(tag, encoded, err)
			}
			out[i] = uint16(v)
		}
		return &DataElement{tag, vr, out, uint32(len(out) * 2)}, nil
	case SLVR:
		out := make([]int32, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
			if err != nil {
				return nil, outOfRange(tag, encoded, err)
			}
			out[i] = int32(v)
		}
		return &DataElement{tag, vr, out, uint32(len(out) * 4)}, nil
	case ULVR:
		out := make([]uint32, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
			if err != nil {
				return nil, outOfRange(tag, encoded, err)
			}
			out[i] = uint32(v)
		}
		return &DataElement{tag, vr, out, uint32(len(out) * 4)}, nil
	case FLVR, OFVR:
		out := make([]float32, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
			if err != nil {
				return nil, outOfRange(tag, encoded, err)
			}
			out[i] = float32(v)
		}
		return &DataElement{tag, vr, out, uint32(len(out) * 4)}, nil
	case FDVR, ODVR:
		out := make([]float64, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, outOfRange(tag, encoded, err)
			}
			out[i] = v
		}
		return &DataElement{tag, vr, out, uint32(len(out) * 8)}, nil
	case OLVR:
		out := make([]uint32, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
			if err != nil {
				return nil, outOfRange(tag, encoded, err)
			}
			out[i] = uint32(v)
		}
		return &DataElement{tag, vr, out, uint32(len(out) * 4)}, nil
	default:
		return nil, dcmerr.New(dcmerr.InternalError, "tag %s: unhandled numeric VR %s", tag, vr)
	}
}

func emptyNumberSlice(vr *VR) interface{} {
	switch vr {
	case SSVR:
		return []int16{}
	case USVR:
		return []uint16{}
	case SLVR:
		return []int32{}
	case ULVR:
		return []uint32{}
	case FLVR:
		return []float32{}
	case FDVR:
		return []float64{}
	default:
		return []byte{}
	}
}

func outOfRange(tag DataElementTag, value string, cause error) error {
	return dcmerr.Wrap(dcmerr.BadFileFormat, cause, "tag %s value %q: out of range", tag, value)
}

// decodeDataURI decodes a "data:<mime>;base64,<payload>" URI: the module's
// own base64 decoder for the data URI scheme used to embed binary values
// in JSON.
func decodeDataURI(uri string) (mime string, data []byte, err error) {
	rest := strings.TrimPrefix(uri, "data:")
	parts := strings.SplitN(rest, ",", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("malformed data URI: missing comma")
	}

	meta := parts[0]
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("malformed data URI: expected base64 payload")
	}
	mime = strings.TrimSuffix(meta, ";base64")

	data, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("decoding base64 payload: %w", err)
	}
	return mime, data, nil
}

// CreateElementForTag returns a new, empty leaf element typed per its
// dictionary VR. Private tags and binary VRs always get an empty
// BulkDataBuffer value and keep their dictionary VR (UN for a tag the
// dictionary does not know); no OB-or-OW pseudo-VR is assigned.
func CreateElementForTag(tag DataElementTag) (*DataElement, error) {
	vr := tag.DictionaryVR()

	if tag.asTag().IsPrivate() || vr.kind == bulkDataVR {
		return &DataElement{tag, vr, NewBulkDataBuffer(), 0}, nil
	}

	switch vr.kind {
	case sequenceVR:
		return nil, dcmerr.New(dcmerr.NotImplemented, "tag %s: cannot create an empty SQ element via CreateElementForTag", tag)
	case tagVR:
		return nil, dcmerr.New(dcmerr.ParameterOutOfRange, "tag %s: AT is not creatable via CreateElementForTag", tag)
	case textVR, uniqueIdentifierVR:
		return &DataElement{tag, vr, []string{}, 0}, nil
	default: // numberBinaryVR
		return &DataElement{tag, vr, emptyNumberSlice(vr), 0}, nil
	}
}

// readValue is the wire-reading counterpart to ConvertLeafElement's
// VR-dispatch above: it decodes one element's bytes off the wire into the
// Go-typed ValueField a DataElement carries in memory, dispatching on the
// same vr.kind groups. Both switches live here since they're two views of
// the same VR classification rather than independent concerns.
func readValue(tag DataElementTag, dr *dcmReader, vr *VR, length uint32, syntax transferSyntax) (interface{}, error) {
	switch vr.kind {
	case textVR:
		return readText(dr, length, vr, unicode.IsSpace)
	case numberBinaryVR:
		return readNumberBinary(dr, length, vr, syntax.byteOrder())
	case bulkDataVR:
		return readBulkData(dr, tag, length)
	case uniqueIdentifierVR:
		return readText(dr, length, vr, func(r rune) bool {
			return r == 0x00 || r == ' '
		})
	case sequenceVR:
		return readSequence(dr, length, syntax)
	case tagVR:
		return readTag(dr, syntax, length)
	default:
		return nil, fmt.Errorf("unknown vr type found: %v", vr.kind)
	}
}

func readTag(dr *dcmReader, syntax transferSyntax, length uint32) ([]uint32, error) {
	ret := make([]uint32, length/4) // 4 bytes per tag

	for i := range ret {
		t, err := dr.Tag(syntax.byteOrder())
		if err != nil {
			return nil, err
		}
		ret[i] = uint32(t)
	}
	return ret, nil
}

func readText(dr *dcmReader, length uint32, vr *VR, isPadding func(rune) bool) ([]string, error) {
	if length <= 0 {
		return []string{}, nil
	}

	valueField, err := dr.String(int64(length))
	if err != nil {
		return nil, fmt.Errorf("reading text field value: %v", err)
	}

	// deal with value multiplicity
	strs := strings.Split(valueField, "\\")
	for i, s := range strs {
		if vr == UTVR || vr == STVR || vr == LTVR {
			strs[i] = strings.TrimRightFunc(s, isPadding)
		} else {
			strs[i] = strings.TrimFunc(s, isPadding)
		}
	}
	return strs, nil
}

func readNumberBinary(dr *dcmReader, length uint32, vr *VR, order binary.ByteOrder) (interface{}, error) {
	var data interface{}

	switch vr {
	case SSVR:
		data = make([]int16, length/2)
	case USVR:
		data = make([]uint16, length/2)
	case SLVR:
		data = make([]int32, length/4)
	case ULVR:
		data = make([]uint32, length/4)
	case FLVR:
		data = make([]float32, length/4)
	case FDVR:
		data = make([]float64, length/8)
	default:
		return nil, fmt.Errorf("unknown vr: %v", vr)
	}

	if err := binary.Read(dr.cr, order, data); err != nil {
		return nil, fmt.Errorf("binary.Read(_, _, _) => %v", err)
	}

	return data, nil
}

func readBulkData(dr *dcmReader, tag DataElementTag, length uint32) (BulkDataIterator, error) {
	if length == UndefinedLength {
		if tag == PixelDataTag {
			// Specified in http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
			// (7FE0,0010) and undefined length means pixel data in encapsulated (compressed) format
			return NewEncapsulatedFormatIterator(dr.cr, dr.cr.bytesRead), nil
		}

		return nil, errors.New("syntax with undefined length in non-pixel data not supported")
	}

	// for native (uncompressed) formats, return regular bulk data stream
	limitedReader := limitCountReader(dr.cr, int64(length))
	return NewBulkDataIterator(limitedReader, dr.cr.bytesRead), nil
}

func readSequence(dr *dcmReader, length uint32, syntax transferSyntax) (SequenceIterator, error) {
	return newSequenceIterator(dr, length, syntax)
}
