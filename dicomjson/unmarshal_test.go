package dicomjson

import (
	"testing"

	"github.com/orthancsoft/dicomcodec/charset"
	"github.com/orthancsoft/dicomcodec/dicom"
)

func TestUnmarshal_shortShape(t *testing.T) {
	ds, err := Unmarshal([]byte(`{"00100010":"Doe^John","00100020":"12345"}`), Short, DefaultUnmarshalOptions())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	name, ok := ds.Elements[patientNameTag]
	if !ok {
		t.Fatalf("expected PatientName element present")
	}
	got, err := name.StringValue()
	if err != nil || got != "Doe^John" {
		t.Fatalf("got (%q, %v), want Doe^John", got, err)
	}
	if name.VR != dicom.PNVR {
		t.Fatalf("got VR %v, want PN", name.VR)
	}
}

func TestUnmarshal_humanShape(t *testing.T) {
	ds, err := Unmarshal([]byte(`{"PatientName":"Doe^John"}`), Human, DefaultUnmarshalOptions())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	name, ok := ds.Elements[patientNameTag]
	if !ok {
		t.Fatalf("expected PatientName element present, got %+v", ds.Elements)
	}
	got, _ := name.StringValue()
	if got != "Doe^John" {
		t.Fatalf("got %q, want Doe^John", got)
	}
}

func TestUnmarshal_humanShapeFallsBackToHexKeyForUnknownName(t *testing.T) {
	ds, err := Unmarshal([]byte(`{"00090099":"x"}`), Human, DefaultUnmarshalOptions())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := ds.Elements[dicom.DataElementTag(0x00090099)]; !ok {
		t.Fatalf("expected fallback hex-key tag present, got %+v", ds.Elements)
	}
}

func TestUnmarshal_fullShapeStringAndNull(t *testing.T) {
	ds, err := Unmarshal([]byte(`{
		"00100010": {"Name":"PatientName","Type":"String","Value":"Doe^John"},
		"00100020": {"Name":"PatientID","Type":"Null"}
	}`), Full, DefaultUnmarshalOptions())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := ds.Elements[patientIDTag]; ok {
		t.Fatalf("expected Null node to be skipped, not materialized")
	}
	name, ok := ds.Elements[patientNameTag]
	if !ok {
		t.Fatalf("expected PatientName present")
	}
	got, _ := name.StringValue()
	if got != "Doe^John" {
		t.Fatalf("got %q, want Doe^John", got)
	}
}

func TestUnmarshal_fullShapeSequence(t *testing.T) {
	ds, err := Unmarshal([]byte(`{
		"00081110": {"Name":"ReferencedStudySequence","Type":"Sequence","Value":[
			{"00100010": {"Name":"PatientName","Type":"String","Value":"Nested^Value"}}
		]}
	}`), Full, DefaultUnmarshalOptions())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	const seqTag = dicom.DataElementTag(0x00081110)
	element, ok := ds.Elements[seqTag]
	if !ok {
		t.Fatalf("expected sequence element present")
	}
	seq, ok := element.ValueField.(*dicom.Sequence)
	if !ok || len(seq.Items) != 1 {
		t.Fatalf("got %#v, want a one item sequence", element.ValueField)
	}
	nested, ok := seq.Items[0].Elements[patientNameTag]
	if !ok {
		t.Fatalf("expected nested PatientName element")
	}
	got, _ := nested.StringValue()
	if got != "Nested^Value" {
		t.Fatalf("got %q, want Nested^Value", got)
	}
}

func TestUnmarshal_privateTagResolvesCreatorScopedVR(t *testing.T) {
	ds, err := Unmarshal([]byte(`{
		"00090010": {"Name":"GEMSIdentPrivateCreator","Type":"String","Value":"GEMS_IDEN_01","PrivateCreator":"GEMS_IDEN_01"},
		"00091001": {"Name":"GEMSFullFidelity","Type":"String","Value":"yes","PrivateCreator":"GEMS_IDEN_01"}
	}`), Full, DefaultUnmarshalOptions())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	const privateTag = dicom.DataElementTag(0x00091001)
	element, ok := ds.Elements[privateTag]
	if !ok {
		t.Fatalf("expected private element present")
	}
	if element.VR != dicom.LOVR {
		t.Fatalf("got VR %v, want LO (GEMSFullFidelity's dictionary VR)", element.VR)
	}
}

func TestUnmarshal_dataURIBecomesBinaryLeaf(t *testing.T) {
	ds, err := Unmarshal([]byte(`{"00090011":{"Name":"","Type":"Binary","Value":"data:application/octet-stream;base64,3q0="}}`), Full, DefaultUnmarshalOptions())
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	element, ok := ds.Elements[dicom.DataElementTag(0x00090011)]
	if !ok {
		t.Fatalf("expected element present")
	}
	raw, ok := element.ValueField.(dicom.BulkDataBuffer)
	if !ok {
		t.Fatalf("got %#v, want a BulkDataBuffer", element.ValueField)
	}
	frames := raw.Data()
	if len(frames) != 1 || frames[0][0] != 0xDE || frames[0][1] != 0xAD {
		t.Fatalf("got %v, want [0xDE 0xAD]", frames)
	}
}

func TestUnmarshal_generateIdentifiersFillsMissingUIDsAndCharacterSet(t *testing.T) {
	opts := DefaultUnmarshalOptions()
	opts.GenerateIdentifiers = true
	opts.TargetEncoding = charset.ASCII

	ds, err := Unmarshal([]byte(`{"PatientName":"Doe^John"}`), Human, opts)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	for _, tc := range []dicom.DataElementTag{patientIDTag, dicom.DataElementTag(0x0020000D), dicom.DataElementTag(0x0020000E), dicom.DataElementTag(0x00080018)} {
		element, ok := ds.Elements[tc]
		if !ok {
			t.Fatalf("expected tag %s to be generated", tc)
		}
		v, err := element.StringValue()
		if err != nil || v == "" {
			t.Fatalf("tag %s: got (%q, %v), want a non-empty generated value", tc, v, err)
		}
	}

	charsetElement, ok := ds.Elements[dicom.SpecificCharacterSetTag]
	if !ok {
		t.Fatalf("expected SpecificCharacterSet to be synthesized")
	}
	got, _ := charsetElement.StringValue()
	if got != charset.ASCII.String() {
		t.Fatalf("got %q, want %q", got, charset.ASCII.String())
	}
}

func TestUnmarshal_generateIdentifiersDoesNotOverwriteExisting(t *testing.T) {
	opts := DefaultUnmarshalOptions()
	opts.GenerateIdentifiers = true

	ds, err := Unmarshal([]byte(`{"PatientID":"existing-id"}`), Human, opts)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	v, _ := ds.Elements[patientIDTag].StringValue()
	if v != "existing-id" {
		t.Fatalf("got %q, want existing-id to be preserved", v)
	}
}
