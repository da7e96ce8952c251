package dicom

import (
	"reflect"
	"testing"

	"github.com/orthancsoft/dicomcodec/charset"
)

// visitCall records one dispatch the walker made to a recordingVisitor,
// tagged by which Visit* method fired.
type visitCall struct {
	method  string
	parents []DataElementTag
	indexes []int
	tag     DataElementTag
	vr      *VR
	bytes   []byte
	words   []uint16
	ints    []int64
	doubles []float64
	tags    []DataElementTag
	str     string
}

type recordingVisitor struct {
	calls      []visitCall
	stringResp VisitResult
}

func (v *recordingVisitor) VisitNotSupported(parents []DataElementTag, indexes []int, tag DataElementTag, vr *VR) {
	v.calls = append(v.calls, visitCall{method: "NotSupported", parents: parents, indexes: indexes, tag: tag, vr: vr})
}

func (v *recordingVisitor) VisitEmptySequence(parents []DataElementTag, indexes []int, tag DataElementTag) {
	v.calls = append(v.calls, visitCall{method: "EmptySequence", parents: parents, indexes: indexes, tag: tag})
}

func (v *recordingVisitor) VisitBinary(parents []DataElementTag, indexes []int, tag DataElementTag, vr *VR, bytes []byte, words []uint16) {
	v.calls = append(v.calls, visitCall{method: "Binary", parents: parents, indexes: indexes, tag: tag, vr: vr, bytes: bytes, words: words})
}

func (v *recordingVisitor) VisitIntegers(parents []DataElementTag, indexes []int, tag DataElementTag, vr *VR, values []int64) {
	v.calls = append(v.calls, visitCall{method: "Integers", parents: parents, indexes: indexes, tag: tag, vr: vr, ints: values})
}

func (v *recordingVisitor) VisitDoubles(parents []DataElementTag, indexes []int, tag DataElementTag, vr *VR, values []float64) {
	v.calls = append(v.calls, visitCall{method: "Doubles", parents: parents, indexes: indexes, tag: tag, vr: vr, doubles: values})
}

func (v *recordingVisitor) VisitAttributes(parents []DataElementTag, indexes []int, tag DataElementTag, tags []DataElementTag) {
	v.calls = append(v.calls, visitCall{method: "Attributes", parents: parents, indexes: indexes, tag: tag, tags: tags})
}

func (v *recordingVisitor) VisitString(parents []DataElementTag, indexes []int, tag DataElementTag, vr *VR, utf8 string) VisitResult {
	v.calls = append(v.calls, visitCall{method: "String", parents: parents, indexes: indexes, tag: tag, vr: vr, str: utf8})
	return v.stringResp
}

func callsByMethod(calls []visitCall, method string) []visitCall {
	var out []visitCall
	for _, c := range calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func TestApply_dispatchesLeavesByVR(t *testing.T) {
	const textTag = DataElementTag(0x00100010)
	const intsTag = DataElementTag(0x00280010)
	const doublesTag = DataElementTag(0x00280030)
	const atTag = DataElementTag(0x00081140)
	const binaryTag = DataElementTag(0x7FE00010)

	dataset := &DataSet{Elements: map[DataElementTag]*DataElement{
		textTag:    {Tag: textTag, VR: LOVR, ValueField: []string{"Doe^John"}},
		intsTag:    {Tag: intsTag, VR: USVR, ValueField: []uint16{512}},
		doublesTag: {Tag: doublesTag, VR: FDVR, ValueField: []float64{1.5, 2.5}},
		atTag:      {Tag: atTag, VR: ATVR, ValueField: []uint32{0x00080010}},
		binaryTag:  {Tag: binaryTag, VR: OWVR, ValueField: []byte{0x01, 0x00, 0x02, 0x00}},
		ItemTag:    {Tag: ItemTag, VR: nil, ValueField: nil},
	}}

	v := &recordingVisitor{}
	if err := Apply(dataset, v, charset.ASCII); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	strCalls := callsByMethod(v.calls, "String")
	if len(strCalls) != 1 || strCalls[0].tag != textTag || strCalls[0].str != "Doe^John" {
		t.Fatalf("expected a single String call for %v, got %+v", textTag, strCalls)
	}

	intCalls := callsByMethod(v.calls, "Integers")
	if len(intCalls) != 1 || !reflect.DeepEqual(intCalls[0].ints, []int64{512}) {
		t.Fatalf("expected Integers call with [512], got %+v", intCalls)
	}

	dblCalls := callsByMethod(v.calls, "Doubles")
	if len(dblCalls) != 1 || !reflect.DeepEqual(dblCalls[0].doubles, []float64{1.5, 2.5}) {
		t.Fatalf("expected Doubles call with [1.5 2.5], got %+v", dblCalls)
	}

	atCalls := callsByMethod(v.calls, "Attributes")
	if len(atCalls) != 1 || !reflect.DeepEqual(atCalls[0].tags, []DataElementTag{0x00080010}) {
		t.Fatalf("expected Attributes call with [(0008,0010)], got %+v", atCalls)
	}

	binCalls := callsByMethod(v.calls, "Binary")
	if len(binCalls) != 1 {
		t.Fatalf("expected a single Binary call, got %+v", binCalls)
	}
	if !reflect.DeepEqual(binCalls[0].bytes, []byte{0x01, 0x00, 0x02, 0x00}) {
		t.Fatalf("expected raw bytes preserved, got %v", binCalls[0].bytes)
	}
	if !reflect.DeepEqual(binCalls[0].words, []uint16{1, 2}) {
		t.Fatalf("expected OW little-endian u16 view [1 2], got %v", binCalls[0].words)
	}

	notSupported := callsByMethod(v.calls, "NotSupported")
	if len(notSupported) != 1 || notSupported[0].tag != ItemTag {
		t.Fatalf("expected ItemTag to be reported NotSupported (dataless VR), got %+v", notSupported)
	}
}

func TestApply_binaryLeafWithoutOWHasNoWordsView(t *testing.T) {
	const obTag = DataElementTag(0x00420011)
	dataset := &DataSet{Elements: map[DataElementTag]*DataElement{
		obTag: {Tag: obTag, VR: OBVR, ValueField: []byte{0xAA, 0xBB, 0xCC}},
	}}

	v := &recordingVisitor{}
	if err := Apply(dataset, v, charset.ASCII); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	binCalls := callsByMethod(v.calls, "Binary")
	if len(binCalls) != 1 {
		t.Fatalf("expected a single Binary call, got %+v", binCalls)
	}
	if binCalls[0].words != nil {
		t.Fatalf("expected nil words view for OB, got %v", binCalls[0].words)
	}
}

func TestApply_emptySequence(t *testing.T) {
	dataset := &DataSet{Elements: map[DataElementTag]*DataElement{
		ReferencedStudySequenceTag: {
			Tag:        ReferencedStudySequenceTag,
			VR:         SQVR,
			ValueField: &Sequence{Items: nil},
		},
	}}

	v := &recordingVisitor{}
	if err := Apply(dataset, v, charset.ASCII); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	empty := callsByMethod(v.calls, "EmptySequence")
	if len(empty) != 1 || empty[0].tag != ReferencedStudySequenceTag {
		t.Fatalf("expected a single EmptySequence call for %v, got %+v", ReferencedStudySequenceTag, empty)
	}
}

func TestApply_recursesIntoNestedSequenceItems(t *testing.T) {
	const nestedTextTag = DataElementTag(0x00100010)

	item := &DataSet{Elements: map[DataElementTag]*DataElement{
		nestedTextTag: {Tag: nestedTextTag, VR: LOVR, ValueField: []string{"Nested^Value"}},
	}}
	outer := &DataSet{Elements: map[DataElementTag]*DataElement{
		ReferencedStudySequenceTag: {
			Tag:        ReferencedStudySequenceTag,
			VR:         SQVR,
			ValueField: &Sequence{Items: []*DataSet{item}},
		},
	}}

	v := &recordingVisitor{}
	if err := Apply(outer, v, charset.ASCII); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	strCalls := callsByMethod(v.calls, "String")
	if len(strCalls) != 1 {
		t.Fatalf("expected one nested String call, got %+v", strCalls)
	}
	call := strCalls[0]
	if call.str != "Nested^Value" {
		t.Fatalf("expected decoded value %q, got %q", "Nested^Value", call.str)
	}
	if !reflect.DeepEqual(call.parents, []DataElementTag{ReferencedStudySequenceTag}) {
		t.Fatalf("expected parents [%v], got %v", ReferencedStudySequenceTag, call.parents)
	}
	if !reflect.DeepEqual(call.indexes, []int{0}) {
		t.Fatalf("expected indexes [0], got %v", call.indexes)
	}
}

func TestApply_visitStringReplace(t *testing.T) {
	const textTag = DataElementTag(0x00100010)
	element := &DataElement{Tag: textTag, VR: LOVR, ValueField: []string{"Old^Value"}}
	dataset := &DataSet{Elements: map[DataElementTag]*DataElement{textTag: element}}

	v := &recordingVisitor{stringResp: ReplaceValue("New^Value")}
	if err := Apply(dataset, v, charset.ASCII); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if !reflect.DeepEqual(element.ValueField, []string{"New^Value"}) {
		t.Fatalf("expected ValueField to be rewritten, got %v", element.ValueField)
	}
	if element.ValueLength != uint32(len("New^Value")) {
		t.Fatalf("expected ValueLength to be recalculated, got %v", element.ValueLength)
	}
}

func TestApply_visitStringKeepLeavesValueUnchanged(t *testing.T) {
	const textTag = DataElementTag(0x00100010)
	element := &DataElement{Tag: textTag, VR: LOVR, ValueField: []string{"Unchanged"}, ValueLength: 9}
	dataset := &DataSet{Elements: map[DataElementTag]*DataElement{textTag: element}}

	v := &recordingVisitor{stringResp: KeepValue()}
	if err := Apply(dataset, v, charset.ASCII); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if !reflect.DeepEqual(element.ValueField, []string{"Unchanged"}) || element.ValueLength != 9 {
		t.Fatalf("expected element untouched, got %+v", element)
	}
}

func TestApply_uniqueIdentifierNeverTranscoded(t *testing.T) {
	element := &DataElement{Tag: TransferSyntaxUIDTag, VR: UIVR, ValueField: []string{"1.2.840.10008.1.2.1"}}
	dataset := &DataSet{Elements: map[DataElementTag]*DataElement{TransferSyntaxUIDTag: element}}

	v := &recordingVisitor{}
	// An encoding that would mangle plain ASCII digits and dots if it were
	// mistakenly applied to the UID is not needed here: the point of this
	// test is that ConvertToUtf8 is never invoked for UI, so any encoding
	// suffices as the default.
	if err := Apply(dataset, v, charset.Latin1); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	strCalls := callsByMethod(v.calls, "String")
	if len(strCalls) != 1 || strCalls[0].str != "1.2.840.10008.1.2.1" {
		t.Fatalf("expected UID value to pass through unchanged, got %+v", strCalls)
	}
}

func TestApply_sequenceValueFieldOfWrongTypeIsNotSupported(t *testing.T) {
	dataset := &DataSet{Elements: map[DataElementTag]*DataElement{
		ReferencedStudySequenceTag: {Tag: ReferencedStudySequenceTag, VR: SQVR, ValueField: "not a sequence"},
	}}

	v := &recordingVisitor{}
	if err := Apply(dataset, v, charset.ASCII); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	notSupported := callsByMethod(v.calls, "NotSupported")
	if len(notSupported) != 1 || notSupported[0].tag != ReferencedStudySequenceTag {
		t.Fatalf("expected NotSupported for malformed sequence ValueField, got %+v", notSupported)
	}
}

func TestResolveEncoding(t *testing.T) {
	tests := []struct {
		name              string
		dataset           *DataSet
		defaultEncoding   charset.Encoding
		wantEncoding      charset.Encoding
		wantCodeExtension bool
	}{
		{
			name:            "no SpecificCharacterSet element falls back to default",
			dataset:         &DataSet{Elements: map[DataElementTag]*DataElement{}},
			defaultEncoding: charset.ASCII,
			wantEncoding:    charset.ASCII,
		},
		{
			name: "single defined term resolves directly",
			dataset: &DataSet{Elements: map[DataElementTag]*DataElement{
				SpecificCharacterSetTag: {Tag: SpecificCharacterSetTag, VR: CSVR, ValueField: []string{"ISO_IR 100"}},
			}},
			defaultEncoding: charset.ASCII,
			wantEncoding:    charset.Latin1,
		},
		{
			name: "malformed SpecificCharacterSet element falls back to default",
			dataset: &DataSet{Elements: map[DataElementTag]*DataElement{
				SpecificCharacterSetTag: {Tag: SpecificCharacterSetTag, VR: CSVR, ValueField: []uint16{1}},
			}},
			defaultEncoding: charset.ASCII,
			wantEncoding:    charset.ASCII,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			enc, hasExt := resolveEncoding(tc.dataset, tc.defaultEncoding)
			if enc != tc.wantEncoding {
				t.Fatalf("got encoding %v, want %v", enc, tc.wantEncoding)
			}
			if hasExt != tc.wantCodeExtension {
				t.Fatalf("got hasCodeExtensions %v, want %v", hasExt, tc.wantCodeExtension)
			}
		})
	}
}

func TestChangeStringEncoding_noopWhenSourceEqualsTarget(t *testing.T) {
	const textTag = DataElementTag(0x00100010)
	element := &DataElement{Tag: textTag, VR: LOVR, ValueField: []string{"untouched"}, ValueLength: 9}
	dataset := &DataSet{Elements: map[DataElementTag]*DataElement{textTag: element}}

	if err := ChangeStringEncoding(dataset, charset.ASCII, charset.ASCII, false); err != nil {
		t.Fatalf("ChangeStringEncoding: %v", err)
	}
	if !reflect.DeepEqual(element.ValueField, []string{"untouched"}) || element.ValueLength != 9 {
		t.Fatalf("expected element unchanged on no-op, got %+v", element)
	}
}

func TestChangeStringEncoding_rewritesTextualLeavesRecursively(t *testing.T) {
	const nestedTextTag = DataElementTag(0x00100010)
	nestedElement := &DataElement{Tag: nestedTextTag, VR: LOVR, ValueField: []string{"value"}, ValueLength: 5}
	item := &DataSet{Elements: map[DataElementTag]*DataElement{nestedTextTag: nestedElement}}

	uidElement := &DataElement{Tag: ReferencedSOPInstanceUIDTag, VR: UIVR, ValueField: []string{"1.2.3"}, ValueLength: 6}
	outer := &DataSet{Elements: map[DataElementTag]*DataElement{
		ReferencedStudySequenceTag: {
			Tag:        ReferencedStudySequenceTag,
			VR:         SQVR,
			ValueField: &Sequence{Items: []*DataSet{item}},
		},
		ReferencedSOPInstanceUIDTag: uidElement,
	}}

	if err := ChangeStringEncoding(outer, charset.ASCII, charset.Latin1, false); err != nil {
		t.Fatalf("ChangeStringEncoding: %v", err)
	}

	if !reflect.DeepEqual(nestedElement.ValueField, []string{"value"}) {
		t.Fatalf("expected ASCII-only value to round-trip unchanged through Latin1, got %v", nestedElement.ValueField)
	}
	if !reflect.DeepEqual(uidElement.ValueField, []string{"1.2.3"}) {
		t.Fatalf("expected UI element to never be re-encoded, got %v", uidElement.ValueField)
	}
}

func TestIsDataless(t *testing.T) {
	if !isDataless(ItemTag) {
		t.Fatalf("expected ItemTag (dictionary VR NA) to be dataless")
	}
	if isDataless(SpecificCharacterSetTag) {
		t.Fatalf("expected SpecificCharacterSetTag (CS) to not be dataless")
	}
}
