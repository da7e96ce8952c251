package dicom

import (
	"encoding/binary"
	"strings"

	"github.com/orthancsoft/dicomcodec/charset"
	"github.com/orthancsoft/dicomcodec/dictionary"
	"github.com/orthancsoft/dicomcodec/dlog"
)

// StringAction is the outcome a Visitor.VisitString callback requests for
// the string leaf it was just shown.
type StringAction int

const (
	// KeepString leaves the element's value untouched.
	KeepString StringAction = iota
	// ReplaceString rewrites the element's value to VisitResult.NewValue,
	// re-encoded to the dataset's character set before being written back.
	ReplaceString
)

// VisitResult is what a Visitor.VisitString callback returns.
type VisitResult struct {
	Action   StringAction
	NewValue string
}

// KeepValue requests no change to the string leaf just visited.
func KeepValue() VisitResult { return VisitResult{Action: KeepString} }

// ReplaceValue requests the string leaf just visited be rewritten to newValue.
func ReplaceValue(newValue string) VisitResult {
	return VisitResult{Action: ReplaceString, NewValue: newValue}
}

// Visitor is the callback set Apply dispatches every leaf and structural
// element of a dataset to, in depth-first, insertion (ascending tag) order.
//
// Grounded on Orthanc's ITagVisitor / ApplyVisitorToLeaf dispatch.
type Visitor interface {
	// VisitNotSupported is called for an element whose VR cannot carry a
	// value at all (a DCMTK-internal structural placeholder reached where a
	// real tag was expected) or whose raw bytes are structurally malformed
	// for the VR declared.
	VisitNotSupported(parents []DataElementTag, indexes []int, tag DataElementTag, vr *VR)

	// VisitEmptySequence is called for a sequence element with zero items.
	// A non-empty sequence is never visited itself: Apply recurses straight
	// into its items instead.
	VisitEmptySequence(parents []DataElementTag, indexes []int, tag DataElementTag)

	// VisitBinary is called for an opaque binary leaf (OB, OW, UN). bytes is
	// always populated with a u8 view of the raw value. words is additionally
	// populated with a u16-aligned view when vr is OW, and nil otherwise.
	VisitBinary(parents []DataElementTag, indexes []int, tag DataElementTag, vr *VR, bytes []byte, words []uint16)

	// VisitIntegers is called for a fixed-width signed or unsigned integer
	// leaf (SS, US, SL, UL, OL). Components that fail to decode are silently
	// dropped from values rather than aborting the traversal.
	VisitIntegers(parents []DataElementTag, indexes []int, tag DataElementTag, vr *VR, values []int64)

	// VisitDoubles is called for a fixed-width floating point leaf (FL, FD,
	// OF, OD).
	VisitDoubles(parents []DataElementTag, indexes []int, tag DataElementTag, vr *VR, values []float64)

	// VisitAttributes is called for an AT leaf, decoding each raw uint32
	// component into a DataElementTag.
	VisitAttributes(parents []DataElementTag, indexes []int, tag DataElementTag, tags []DataElementTag)

	// VisitString is called for every textual leaf (including UI, UC, UR,
	// UT), already decoded to UTF-8 and with its components joined by "\\".
	VisitString(parents []DataElementTag, indexes []int, tag DataElementTag, vr *VR, utf8 string) VisitResult
}

// Apply walks dataset depth-first in ascending tag order, dispatching each
// element to visitor. The character set is resolved once, at the root, via
// the dataset's own SpecificCharacterSet element (falling back to
// defaultEncoding if absent or unrecognised), and is inherited unchanged by
// every nested sequence item: SpecificCharacterSet has no effect below the
// dataset it appears in per PS3.5 Section 6.1.2.3.
//
// A VisitString callback that returns ReplaceString rewrites the element's
// ValueField in place, re-encoded to the resolved character set. All other
// visits are read-only.
func Apply(dataset *DataSet, visitor Visitor, defaultEncoding charset.Encoding) error {
	enc, hasCodeExtensions := resolveEncoding(dataset, defaultEncoding)
	return walkDataset(dataset, visitor, enc, hasCodeExtensions, nil, nil)
}

func resolveEncoding(dataset *DataSet, defaultEncoding charset.Encoding) (charset.Encoding, bool) {
	element, ok := dataset.Elements[SpecificCharacterSetTag]
	if !ok {
		return defaultEncoding, false
	}
	raw, err := element.StringValue()
	if err != nil {
		dlog.Warn(dlog.Fields{"tag": SpecificCharacterSetTag}, "SpecificCharacterSet element is not a single string value, falling back to default encoding")
		return defaultEncoding, false
	}
	return charset.DetectEncoding(raw, defaultEncoding)
}

func walkDataset(dataset *DataSet, visitor Visitor, enc charset.Encoding, hasCodeExtensions bool, parents []DataElementTag, indexes []int) error {
	for _, t := range dataset.SortedTags() {
		element := dataset.Elements[t]
		if err := visitElement(element, visitor, enc, hasCodeExtensions, parents, indexes); err != nil {
			return err
		}
	}
	return nil
}

func visitElement(element *DataElement, visitor Visitor, enc charset.Encoding, hasCodeExtensions bool, parents []DataElementTag, indexes []int) error {
	if isDataless(element.Tag) {
		visitor.VisitNotSupported(parents, indexes, element.Tag, element.VR)
		return nil
	}

	vr := element.VR
	if vr == nil {
		vr = element.Tag.DictionaryVR()
	}

	switch vr.kind {
	case sequenceVR:
		return visitSequence(element, vr, visitor, enc, hasCodeExtensions, parents, indexes)

	case textVR, uniqueIdentifierVR:
		return visitString(element, vr, visitor, enc, hasCodeExtensions, parents, indexes)

	case numberBinaryVR:
		return visitNumber(element, vr, visitor, parents, indexes)

	case tagVR:
		return visitAttributes(element, vr, visitor, parents, indexes)

	case bulkDataVR:
		switch vr {
		case UCVR, URVR, UTVR:
			return visitString(element, vr, visitor, enc, hasCodeExtensions, parents, indexes)
		case OLVR, ODVR, OFVR:
			return visitNumber(element, vr, visitor, parents, indexes)
		default:
			return visitBinary(element, vr, visitor, parents, indexes)
		}

	default:
		visitor.VisitNotSupported(parents, indexes, element.Tag, vr)
		return nil
	}
}

// isDataless reports whether t's dictionary-declared VR is one of the
// DCMTK-internal placeholders that never carries a value (item/dataset/
// file-format markers, NA, UP, and the rest of the pseudo-VR family). These
// never appear as a real wire-level *VR (DictionaryVR collapses them to
// UNVR), so the check is made against the richer dictionary-level tag.VR,
// not the already-collapsed wire-level VR the rest of dispatch uses.
func isDataless(t DataElementTag) bool {
	entry, ok := dictionary.Lookup(t.asTag())
	return ok && entry.VR.IsDataless()
}

func visitSequence(element *DataElement, vr *VR, visitor Visitor, enc charset.Encoding, hasCodeExtensions bool, parents []DataElementTag, indexes []int) error {
	seq, ok := element.ValueField.(*Sequence)
	if !ok {
		visitor.VisitNotSupported(parents, indexes, element.Tag, vr)
		return nil
	}
	if len(seq.Items) == 0 {
		visitor.VisitEmptySequence(parents, indexes, element.Tag)
		return nil
	}

	childParents := append(append([]DataElementTag{}, parents...), element.Tag)
	for i, item := range seq.Items {
		childIndexes := append(append([]int{}, indexes...), i)
		if err := walkDataset(item, visitor, enc, hasCodeExtensions, childParents, childIndexes); err != nil {
			return err
		}
	}
	return nil
}

func visitString(element *DataElement, vr *VR, visitor Visitor, enc charset.Encoding, hasCodeExtensions bool, parents []DataElementTag, indexes []int) error {
	parts, ok := element.ValueField.([]string)
	if !ok {
		visitor.VisitNotSupported(parents, indexes, element.Tag, vr)
		return nil
	}

	decoded := make([]string, len(parts))
	for i, raw := range parts {
		if vr == UIVR {
			decoded[i] = raw
			continue
		}
		s, err := charset.ConvertToUtf8([]byte(raw), enc, hasCodeExtensions)
		if err != nil {
			visitor.VisitNotSupported(parents, indexes, element.Tag, vr)
			return nil
		}
		decoded[i] = s
	}

	result := visitor.VisitString(parents, indexes, element.Tag, vr, strings.Join(decoded, "\\"))
	if result.Action != ReplaceString {
		return nil
	}
	return replaceStringValue(element, vr, result.NewValue, enc)
}

func replaceStringValue(element *DataElement, vr *VR, newValue string, enc charset.Encoding) error {
	encoded := newValue
	if vr != UIVR {
		transcoded, err := charset.ConvertFromUtf8(newValue, enc)
		if err != nil {
			dlog.Warn(dlog.Fields{"tag": element.Tag}, "ignoring Replace: new value could not be re-encoded to the dataset's character set")
			return nil
		}
		encoded = transcoded
	}
	parts := strings.Split(encoded, "\\")
	element.ValueField = parts
	element.ValueLength = uint32(len(encoded))
	return nil
}

func visitNumber(element *DataElement, vr *VR, visitor Visitor, parents []DataElementTag, indexes []int) error {
	switch vr {
	case FLVR, OFVR, FDVR, ODVR:
		values, ok := numberLeafAsFloats(element.ValueField)
		if !ok {
			visitor.VisitNotSupported(parents, indexes, element.Tag, vr)
			return nil
		}
		visitor.VisitDoubles(parents, indexes, element.Tag, vr, values)
	default:
		values, ok := numberLeafAsInts(element.ValueField)
		if !ok {
			visitor.VisitNotSupported(parents, indexes, element.Tag, vr)
			return nil
		}
		visitor.VisitIntegers(parents, indexes, element.Tag, vr, values)
	}
	return nil
}

// numberLeafAsInts converts a signed or unsigned fixed-width integer
// ValueField into []int64. Nothing is dropped here: component loss only
// happens at the byte-layout layer when an element's declared length isn't a
// whole multiple of the VR's element width, which the reader already
// truncates down to the last complete component before this is reached.
func numberLeafAsInts(field interface{}) ([]int64, bool) {
	switch v := field.(type) {
	case []int16:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out, true
	case []uint16:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out, true
	case []int32:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out, true
	case []uint32:
		out := make([]int64, len(v))
		for i, x := range v {
			out[i] = int64(x)
		}
		return out, true
	default:
		return nil, false
	}
}

func numberLeafAsFloats(field interface{}) ([]float64, bool) {
	switch v := field.(type) {
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, true
	case []float64:
		return v, true
	default:
		return nil, false
	}
}

func visitAttributes(element *DataElement, vr *VR, visitor Visitor, parents []DataElementTag, indexes []int) error {
	raw, ok := element.ValueField.([]uint32)
	if !ok {
		visitor.VisitNotSupported(parents, indexes, element.Tag, vr)
		return nil
	}
	tags := make([]DataElementTag, len(raw))
	for i, t := range raw {
		tags[i] = DataElementTag(t)
	}
	visitor.VisitAttributes(parents, indexes, element.Tag, tags)
	return nil
}

func visitBinary(element *DataElement, vr *VR, visitor Visitor, parents []DataElementTag, indexes []int) error {
	raw, err := binaryBytesOf(element)
	if err != nil {
		visitor.VisitNotSupported(parents, indexes, element.Tag, vr)
		return nil
	}

	var words []uint16
	if vr == OWVR {
		words = bytesToUint16LE(raw)
	}
	visitor.VisitBinary(parents, indexes, element.Tag, vr, raw, words)
	return nil
}

func bytesToUint16LE(raw []byte) []uint16 {
	n := len(raw) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint16(raw[2*i : 2*i+2])
	}
	return out
}

// ChangeStringEncoding re-encodes every textual leaf of dataset, recursively
// through every sequence item, from source to target. It is a no-op if
// source == target. hasSourceCodeExt indicates whether source's raw bytes
// carry ISO 2022 escape sequences that must be honoured while decoding the
// existing value before it is rewritten in target.
//
// Grounded on Orthanc's FromDcmtkBridge::ChangeStringEncoding.
func ChangeStringEncoding(dataset *DataSet, source, target charset.Encoding, hasSourceCodeExt bool) error {
	if source == target {
		return nil
	}
	return changeEncodingInDataset(dataset, source, target, hasSourceCodeExt)
}

func changeEncodingInDataset(dataset *DataSet, source, target charset.Encoding, hasSourceCodeExt bool) error {
	for _, t := range dataset.SortedTags() {
		element := dataset.Elements[t]

		if seq, ok := element.ValueField.(*Sequence); ok {
			for _, item := range seq.Items {
				if err := changeEncodingInDataset(item, source, target, hasSourceCodeExt); err != nil {
					return err
				}
			}
			continue
		}

		vr := element.VR
		if vr == nil {
			vr = element.Tag.DictionaryVR()
		}
		applicable := (vr.kind == textVR && vr != UIVR) ||
			(vr.kind == bulkDataVR && (vr == UCVR || vr == URVR || vr == UTVR))
		if !applicable {
			continue
		}

		parts, ok := element.ValueField.([]string)
		if !ok {
			continue
		}

		rewritten := make([]string, len(parts))
		totalLen := 0
		for i, raw := range parts {
			utf8, err := charset.ConvertToUtf8([]byte(raw), source, hasSourceCodeExt)
			if err != nil {
				dlog.Warn(dlog.Fields{"tag": element.Tag}, "skipping element: could not decode existing value under the declared source encoding")
				rewritten = parts
				totalLen = -1
				break
			}
			encoded, err := charset.ConvertFromUtf8(utf8, target)
			if err != nil {
				dlog.Warn(dlog.Fields{"tag": element.Tag}, "skipping element: could not re-encode value to the target encoding")
				rewritten = parts
				totalLen = -1
				break
			}
			rewritten[i] = encoded
			totalLen += len(encoded)
		}
		if totalLen < 0 {
			continue
		}

		element.ValueField = rewritten
		element.ValueLength = uint32(totalLen)
	}
	return nil
}
