package dicom

import (
	"io"
	"math"

	"github.com/orthancsoft/dicomcodec/dcmerr"
)

// DataElementWriter writes DataElements one at a time
type DataElementWriter interface {
	WriteElement(element *DataElement) error
}

var errExpectedMetaHeader = dcmerr.New(dcmerr.BadParameterType,
	"expected header to only contain file meta elements, use DataSet.MetaElements to filter DataSet")

// NewDataElementWriter writes the DICOM preamble, signature, and meta header to w and returns a
// DataElementWriter that writes DataElements in the transfer syntax specified by the header.
// The options are applied in the order given to all DataElements including File Meta Elements
// before being written to w.
func NewDataElementWriter(w io.Writer, header *DataSet, opts ...ConstructOption) (DataElementWriter, error) {
	if !header.isMetaHeader() {
		return nil, errExpectedMetaHeader
	}

	syntax, err := header.transferSyntax()
	if err != nil {
		return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "getting transfer syntax from header")
	}
	if syntax == deflatedExplicitVRLittleEndian {
		return nil, dcmerr.New(dcmerr.NotImplemented, "writing in the deflated syntax is not supported yet")
	}

	dw := &dcmWriter{w}
	if err := writeDicomSignature(dw); err != nil {
		return nil, err
	}

	// Process meta header elements before re-calculating the FileMetaInformationGroupLength in case
	// an option modifies the length of a DataElement.
	for tag, element := range header.Elements {
		element, err := processElementForConstruct(element, explicitVRLittleEndian, opts...)
		if err != nil {
			return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "tag %s: processing meta header element", tag)
		}
		header.Elements[tag] = element
	}

	// The FileMetaInformationGroupLength element is a critical component of the Meta Header. It
	// stores how long the meta header is. Thus, we need to re-calculate it properly.
	metaGroupLengthElement, err := createMetaGroupLengthElement(header)
	if err != nil {
		return nil, dcmerr.Wrap(dcmerr.InternalError, err, "creating meta group length element")
	}
	header.Elements[FileMetaInformationGroupLengthTag] = metaGroupLengthElement

	// Meta elements are always written in the Explicit VR Little Endian syntax in ascending order.
	for _, element := range header.SortedElements() {
		if err := writeDataElement(dw, explicitVRLittleEndian, element); err != nil {
			return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "tag %s: writing meta header element", element.Tag)
		}
	}

	return &dataElementWriter{dw, syntax, opts}, nil
}

type dataElementWriter struct {
	dw     *dcmWriter
	syntax transferSyntax
	opts   []ConstructOption
}

func (dew *dataElementWriter) WriteElement(element *DataElement) error {
	element, err := processElementForConstruct(element, dew.syntax, dew.opts...)
	if err != nil {
		return err
	}
	return writeDataElement(dew.dw, dew.syntax, element)
}

func writeDicomSignature(dw *dcmWriter) error {
	if err := dw.Bytes(make([]byte, 128)); err != nil {
		return dcmerr.Wrap(dcmerr.InternalError, err, "writing DICOM preamble")
	}

	if err := dw.String("DICM"); err != nil {
		return dcmerr.Wrap(dcmerr.InternalError, err, "writing DICOM signature")
	}

	return nil
}

func createMetaGroupLengthElement(header *DataSet) (*DataElement, error) {
	// Please refer to the DICOM Standard Part 10 for information on the File Meta Information Group
	// Length. http://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1

	size := uint32(0)
	for _, element := range header.Elements {
		if element.Tag == FileMetaInformationGroupLengthTag {
			// The FileMetaGroupLength byte count excludes itself from the calculation.
			continue
		}
		size += explicitVRLittleEndian.elementSize(element.VR, element.ValueLength)
	}

	return &DataElement{
		Tag:         FileMetaInformationGroupLengthTag,
		VR:          FileMetaInformationGroupLengthTag.DictionaryVR(),
		ValueField:  []uint32{size},
		ValueLength: 4, // 4bytes = sizeof uint32
	}, nil
}

func processElementForConstruct(element *DataElement, syntax transferSyntax, opts ...ConstructOption) (*DataElement, error) {
	element, err := applyConstructOptions(element, syntax, opts...)
	if err != nil {
		return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "tag %s: applying construct options", element.Tag)
	}

	if seq, ok := element.ValueField.(*Sequence); ok {
		processedSeq, err := processSequenceForConstruct(seq, syntax, opts...)
		if err != nil {
			return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "tag %s: processing sequence", element.Tag)
		}
		element.ValueField = processedSeq
	}

	return element, nil
}

func applyConstructOptions(element *DataElement, syntax transferSyntax, opts ...ConstructOption) (*DataElement, error) {
	var err error
	for i, opt := range opts {
		element, err = opt.transform(element)
		if err != nil {
			return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "tag %s: applying construct option %d", element.Tag, i)
		}
	}

	// As documented in ConstructOptionWithTransform, after a transforms are applied, the length is
	// re-calculated and VRs added from the Data Dictionary if nil
	vr := element.VR
	if vr == nil {
		vr = element.Tag.DictionaryVR()
	}

	length, err := calculateElementLength(element, syntax)
	if err != nil {
		return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "tag %s: calculating element length", element.Tag)
	}

	return &DataElement{element.Tag, vr, element.ValueField, length}, nil
}

func calculateElementLength(element *DataElement, syntax transferSyntax) (uint32, error) {
	if element.ValueLength == UndefinedLength {
		return UndefinedLength, nil
	}

	numBytes := int64(0)

	switch v := element.ValueField.(type) {
	case []string:
		for _, s := range v {
			numBytes += int64(len(s))
		}
		if len(v) > 0 { // requires "\" delimiter
			numBytes += int64(len(v)) - 1
		}
	case []int16:
		numBytes = int64(len(v)) * 2
	case []uint16:
		numBytes = int64(len(v)) * 2
	case []int32:
		numBytes = int64(len(v)) * 4
	case []uint32:
		numBytes = int64(len(v)) * 4
	case []float32:
		numBytes = int64(len(v)) * 4
	case []float64:
		numBytes = int64(len(v)) * 8
	case *Sequence:
		seqLen, err := calculateSequenceLength(v, syntax)
		if err != nil {
			return 0, dcmerr.Wrap(dcmerr.BadFileFormat, err, "tag %s: calculating sequence length", element.Tag)
		}
		numBytes = int64(seqLen)
	case SequenceIterator:
		numBytes = UndefinedLength // TODO support explicit length sequence construction
	case BulkDataBuffer:
		numBytes = v.Length()
		if numBytes < 0 {
			return 0, dcmerr.New(dcmerr.BadParameterType, "tag %s: explicit length must be provided to write BulkDataBuffer", element.Tag)
		}
	case BulkDataIterator:
		numBytes = v.Length()
		if numBytes < 0 {
			return 0, dcmerr.New(dcmerr.BadParameterType, "tag %s: explicit length must be provided to write BulkDataIterator", element.Tag)
		}
	default:
		return 0, dcmerr.New(dcmerr.BadParameterType, "tag %s: unexpected ValueField type %T", element.Tag, element.ValueField)
	}

	if numBytes >= math.MaxUint32 {
		return UndefinedLength, nil
	}

	if numBytes%2 != 0 {
		numBytes++
	}

	return uint32(numBytes), nil
}

func calculateSequenceLength(seq *Sequence, syntax transferSyntax) (uint32, error) {
	size := int64(0)
	for _, item := range seq.Items {
		itemLen, err := calculateDataSetLength(item, syntax)
		if err != nil {
			return 0, dcmerr.Wrap(dcmerr.BadFileFormat, err, "calculating sequence item length")
		}
		item.Length = itemLen
		size += tagSize + 4 /*32 bit length*/ + int64(itemLen)
	}

	if size > math.MaxUint32 {
		return UndefinedLength, nil
	}

	return uint32(size), nil
}

func calculateDataSetLength(item *DataSet, syntax transferSyntax) (uint32, error) {
	if item.Length >= UndefinedLength {
		return UndefinedLength, nil
	}

	size := int64(0)
	for _, elem := range item.Elements {
		elemLength, err := calculateElementLength(elem, syntax)
		if err != nil {
			return 0, dcmerr.Wrap(dcmerr.BadFileFormat, err, "tag %s: calculating data set element length", elem.Tag)
		}
		size += int64(syntax.elementSize(elem.VR, elemLength))
	}

	if size > math.MaxUint32 {
		return UndefinedLength, nil
	}

	return uint32(size), nil
}

func processSequenceForConstruct(sequence *Sequence, syntax transferSyntax, opts ...ConstructOption) (*Sequence, error) {
	ret := &Sequence{Items: []*DataSet{}}
	for _, item := range sequence.Items {
		processedItem, err := processItemForConstruct(item, syntax, opts...)
		if err != nil {
			return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "processing sequence item")
		}
		ret.append(processedItem)
	}
	return ret, nil
}

func processItemForConstruct(dataSet *DataSet, syntax transferSyntax, opts ...ConstructOption) (*DataSet, error) {
	ret := &DataSet{Elements: map[DataElementTag]*DataElement{}, Length: dataSet.Length}
	for _, element := range dataSet.SortedElements() {
		processedElement, err := processElementForConstruct(element, syntax, opts...)
		if err != nil {
			return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "tag %s: processing element", element.Tag)
		}
		ret.Elements[processedElement.Tag] = processedElement
	}
	return ret, nil
}
