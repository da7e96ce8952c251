package dicom

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/ioutil"
	"strings"
	"unicode"

	"github.com/orthancsoft/dicomcodec/dcmerr"
	"github.com/orthancsoft/dicomcodec/dlog"
)

// Parse parses a DICOM file represented as an io.Reader, returning the DataSet defined by applying
// options sequentially in the order given to DataElements in the file.
//
// By default, BulkDataIterators are transformed into their appropriate buffered types for the VR:
// BulkDataBuffer for OW, OB, UN
// []uint32 for OL
// []float64 for OD
// []float32 for OF
// []string for UR, UT, UC
// This behaviour can be overridden by supplying a ParseOption that transforms DataElements with
// ValueField of type BulkDataIterator to a ValueField other than BulkDataIterator.
func Parse(r io.Reader, opts ...ParseOption) (*DataSet, error) {
	iter, err := NewDataElementIterator(r)
	if err != nil {
		return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "creating data element iterator")
	}
	defer iter.Close()

	return CollectDataElements(iter, opts...)
}

// CollectDataElements returns the DataSet defined by the elements in the DataElementIterator.
// The options will be applied in the order given. The DataElementIterator will be closed.
func CollectDataElements(iter DataElementIterator, opts ...ParseOption) (*DataSet, error) {
	ds := &DataSet{map[DataElementTag]*DataElement{}, iter.Length()}

	for elem, err := iter.Next(); err != io.EOF; elem, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		processedElement, err := processElement(elem, iter.syntax().byteOrder(), opts...)
		if err != nil {
			return nil, err
		}
		if processedElement != nil { // nil check to test if ParseOption wants to filter out element
			ds.Elements[elem.Tag] = processedElement
		}
	}
	return ds, nil
}

// CollectSequence returns the Sequence defined by the items in the SequenceIterator.
// The options will be applied in the order given. The SequenceIterator will be closed.
func CollectSequence(iter SequenceIterator, opts ...ParseOption) (*Sequence, error) {
	var seq = &Sequence{[]*DataSet{}}
	for obj, err := iter.Next(); err != io.EOF; obj, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		dataSet, err := CollectDataElements(obj, opts...)
		if err != nil {
			return nil, err
		}
		seq.append(dataSet)
	}
	return seq, nil
}

// CollectFragments returns the sequence of byte slices defined by the sequence of BulkDataReaders
// in the BulkDataIterator. The BulkDataIterator will be closed.
func CollectFragments(iter BulkDataIterator) ([][]byte, error) {
	buff := make([][]byte, 0)
	for r, err := iter.Next(); err != io.EOF; r, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		fragment, err := ioutil.ReadAll(r)
		if err != nil {
			return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "reading fragment")
		}
		buff = append(buff, fragment)
	}

	return buff, nil
}

// CollectFragmentReferences returns the sequence of BulkDataReferences defined by the sequence of
// BulkDataReaders in the BulkDataIterator. The given BulkDataIterator will be closed.
func CollectFragmentReferences(iter BulkDataIterator) ([]BulkDataReference, error) {
	refs := make([]BulkDataReference, 0)
	for r, err := iter.Next(); err != io.EOF; r, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		fragmentSize, err := io.Copy(ioutil.Discard, r)
		if err != nil {
			return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "discarding fragment to measure its size")
		}

		refs = append(refs, BulkDataReference{ByteRegion{r.Offset, fragmentSize}})
	}

	return refs, nil
}

func processElement(element *DataElement, order binary.ByteOrder, opts ...ParseOption) (*DataElement, error) {
	if seqIter, ok := element.ValueField.(SequenceIterator); ok {
		// for sequence elements, apply options in post-order. (i.e process sequence items before
		// the sequence element)
		// Processing sequence items first protects options transforming SQ DataElements from the misuse
		// of the SequenceIterator (e.g. not collecting sequence items correctly)
		seq, err := CollectSequence(seqIter, opts...)
		if err != nil {
			return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "tag %s: collecting sequence", element.Tag)
		}

		processedSeq := &DataElement{element.Tag, element.VR, seq, element.ValueLength}
		return processElement(processedSeq, order, opts...)
	}

	return applyOptions(element, order, opts...)
}

func applyOptions(element *DataElement, order binary.ByteOrder, opts ...ParseOption) (*DataElement, error) {
	var err error
	for i, opt := range opts {
		element, err = opt.transform(element)
		if err != nil {
			return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "tag %s: applying parse option %d", element.Tag, i)
		}
		if element == nil { // option wants to filter this element out
			return nil, nil
		}
	}

	if _, ok := element.ValueField.(BulkDataIterator); ok {
		// As documented in Parse, when the options given do not collect data from the
		// BulkDataIterator we must collect the data in the byte stream somehow otherwise the
		// returned DataSet will not be coherent since it would contain a bunch of empty
		// BulkDataIterators.
		element, err = bufferBulkData(element, order)
	}

	return element, err
}

func bufferBulkData(element *DataElement, order binary.ByteOrder) (*DataElement, error) {
	fragmentIterator, ok := element.ValueField.(BulkDataIterator)
	if !ok {
		return nil, dcmerr.New(dcmerr.InternalError, "tag %s: expected a BulkDataIterator, got %T", element.Tag, element.ValueField)
	}

	fragments, err := fragmentIterator.ToBuffer()
	if err != nil {
		return nil, dcmerr.Wrap(dcmerr.BadFileFormat, err, "tag %s: buffering fragments", element.Tag)
	}
	buff := fragments.Data()

	var valueField interface{}
	switch {
	case element.VR == OWVR || element.VR == OBVR || element.VR == UNVR:
		valueField = fragments // preserve potentially multi-fragment types
	case len(buff) == 0:
		valueField, err = emptyFragmentForType(element.VR)
	case len(buff) == 1:
		valueField, err = decodeFragment(fragments.Data()[0], order, element.VR)
	default:
		dlog.Warn(dlog.Fields{"tag": element.Tag, "vr": element.VR.Name, "fragments": len(buff)},
			"more than one fragment found for a single-fragment VR")
		return nil, dcmerr.New(dcmerr.BadFileFormat, "tag %s: more than 1 fragment found for single fragment type: got %d, want 0 or 1", element.Tag, len(buff))
	}

	return &DataElement{element.Tag, element.VR, valueField, element.ValueLength}, err
}

func emptyFragmentForType(vr *VR) (interface{}, error) {
	switch vr {
	case UCVR, URVR, UTVR:
		return []string{}, nil
	case OLVR:
		return []uint32{}, nil
	case ODVR:
		return []float64{}, nil
	case OFVR:
		return []float32{}, nil
	}
	return nil, dcmerr.New(dcmerr.InternalError, "unexpected VR found for bulk data: %v", vr)
}

func decodeFragment(buff []byte, order binary.ByteOrder, vr *VR) (interface{}, error) {
	// Please refer to DICOM PS3.5 Part 5 for details on UC, UR, UT value representations
	// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.1

	var valueField interface{}
	switch vr {
	case UCVR:
		// UC may be padded with trailing spaces and uses the "\" to delimit multiple values
		return strings.Split(string(buff), "\\"), nil
	case URVR, UTVR:
		// UR: Trailing spaces shall be ignored. Backslash is not allowed. Shall be in ISO 2022 IR 6
		// UT: Trailing spaces may be ignored (and are in this implementation). Backslash not allowed.
		return []string{strings.TrimRightFunc(string(buff), unicode.IsSpace)}, nil
	case OLVR:
		valueField = make([]uint32, len(buff)/4)
	case ODVR:
		valueField = make([]float64, len(buff)/8)
	case OFVR:
		valueField = make([]float32, len(buff)/4)
	default:
		return nil, dcmerr.New(dcmerr.InternalError, "unexpected vr found: %v", vr)
	}

	if err := binary.Read(bytes.NewReader(buff), order, valueField); err != nil {
		return nil, dcmerr.Wrap(dcmerr.InternalError, err, "reading bulk data fragment to buffer")
	}

	return valueField, nil
}
