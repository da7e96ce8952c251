package dicom

import (
	"bytes"

	"github.com/orthancsoft/dicomcodec/dcmerr"
	"github.com/orthancsoft/dicomcodec/dlog"
)

// FileFormat pairs a file meta header (MetaInfo) with the payload it
// describes (Dataset), the split PS3.10 draws between the two. MetaInfo
// exclusively carries the file meta group (0002,xxxx); Dataset carries
// everything else.
type FileFormat struct {
	MetaInfo *DataSet
	Dataset  *DataSet
}

// Load parses buf as a complete DICOM file (preamble, signature, meta
// header, payload) and splits the result into a *FileFormat. Fails with
// dcmerr.BadFileFormat on any parse error, reporting the buffer size.
//
// All deferred (bulk data) element payloads are resident in memory in the
// returned FileFormat, per Parse's default buffering behaviour.
func Load(buf []byte, opts ...ParseOption) (*FileFormat, error) {
	combined, err := Parse(bytes.NewReader(buf), opts...)
	if err != nil {
		return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "parsing %d byte buffer", len(buf))
	}
	return splitFileFormat(combined), nil
}

func splitFileFormat(combined *DataSet) *FileFormat {
	meta := combined.MetaElements()
	dataset := &DataSet{Elements: map[DataElementTag]*DataElement{}, Length: combined.Length}
	for t, e := range combined.Elements {
		if !t.IsMetaElement() {
			dataset.Elements[t] = e
		}
	}
	return &FileFormat{MetaInfo: meta, Dataset: dataset}
}

// Save serializes ff back to a byte buffer.
//
// The transfer syntax is ff's own (tag 0002,0010 in MetaInfo) if present,
// else Explicit VR Little Endian. The meta header is validated, dropping
// any element outside the file meta group (0002,xxxx), and synthesized
// (or repaired) so a transfer syntax is always present to write with.
// Elements are written with explicit lengths and recalculated group
// lengths; no padding is added beyond what individual VR encodings
// require.
func Save(ff *FileFormat, opts ...ConstructOption) ([]byte, error) {
	meta := ensureTransferSyntax(sanitizeMetaInfo(ff.MetaInfo))

	dataset := ff.Dataset
	if dataset == nil {
		dataset = &DataSet{Elements: map[DataElementTag]*DataElement{}}
	}
	combined := dataset.Merge(meta)

	buf := bytes.NewBuffer(make([]byte, 0, estimateUpperBoundLength(combined)))
	if err := Construct(buf, combined, opts...); err != nil {
		return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "serializing file format")
	}
	return buf.Bytes(), nil
}

// sanitizeMetaInfo drops any element that does not belong to the file meta
// group, the only elements a meta header may legally carry.
func sanitizeMetaInfo(meta *DataSet) *DataSet {
	sanitized := map[DataElementTag]*DataElement{}
	if meta != nil {
		for t, e := range meta.Elements {
			if !t.IsMetaElement() {
				dlog.Warn(dlog.Fields{"tag": t}, "dropping non meta-group element found in file meta header")
				continue
			}
			sanitized[t] = e
		}
	}
	return &DataSet{Elements: sanitized}
}

// ensureTransferSyntax synthesizes an Explicit VR Little Endian
// TransferSyntaxUID element when meta does not already declare one, so
// Save always has a transfer syntax to write with.
func ensureTransferSyntax(meta *DataSet) *DataSet {
	if _, ok := meta.Elements[TransferSyntaxUIDTag]; ok {
		return meta
	}
	meta.Elements[TransferSyntaxUIDTag] = &DataElement{
		Tag:        TransferSyntaxUIDTag,
		VR:         UIVR,
		ValueField: []string{ExplicitVRLittleEndianUID},
	}
	return meta
}

// LookupTransferSyntax returns the transfer syntax UID declared in ff's
// MetaInfo (tag 0002,0010), and whether one was present.
func LookupTransferSyntax(ff *FileFormat) (string, bool) {
	if ff == nil || ff.MetaInfo == nil {
		return "", false
	}
	element, ok := ff.MetaInfo.Elements[TransferSyntaxUIDTag]
	if !ok {
		return "", false
	}
	uid, err := element.StringValue()
	if err != nil {
		return "", false
	}
	return uid, true
}

// estimateUpperBoundLength computes a generous upper bound on ds's encoded
// byte length so Save's output buffer can be pre-sized once instead of
// growing repeatedly. The 132-byte constant accounts for the 128-byte
// preamble and 4-byte "DICM" signature; the 12-byte per-element allowance
// covers the worst case explicit VR header (4-byte tag, 2-byte VR, 2-byte
// reserved, 4-byte length).
func estimateUpperBoundLength(ds *DataSet) int {
	const preambleAndSignature = 132
	const maxElementHeader = 12

	total := preambleAndSignature
	for _, e := range ds.Elements {
		total += maxElementHeader
		if e.ValueLength != UndefinedLength {
			total += int(e.ValueLength)
			continue
		}
		if seq, ok := e.ValueField.(*Sequence); ok {
			for _, item := range seq.Items {
				total += estimateUpperBoundLength(item)
			}
		}
	}
	return total
}
