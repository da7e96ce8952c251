package dicom

import (
	"fmt"
	"io"
)

// readDataElement reads one data element's tag, VR and value off the wire,
// dispatching the value decode to readValue (codec.go) once the tag, VR and
// length are known. It returns io.EOF both at genuine end of stream and when
// it consumes an item delimitation item closing a nested data set parsed
// under an undefined-length sequence.
func readDataElement(dr *dcmReader, syntax transferSyntax) (*DataElement, error) {
	tag, err := dr.Tag(syntax.byteOrder())
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("getting tag: %v", err)
	}

	if tag == ItemDelimitationItemTag {
		// handles the case when we are parsing a nested data set within a sequence with undefined
		// length. This code should never run for the top level data set
		length, err := dr.UInt32(syntax.byteOrder())
		if err != nil {
			return nil, fmt.Errorf("reading 32 bit length of item delimitation: %v", err)
		}
		if length != 0 {
			return nil, fmt.Errorf("wrong length for item delimiter. got %v, want %v", length, 0)
		}
		return nil, io.EOF
	}

	vr, err := syntax.readVR(dr, tag)
	if err != nil {
		return nil, fmt.Errorf("getting vr %v", err)
	}

	length, err := syntax.readValueLength(dr, vr)
	if err != nil {
		return nil, fmt.Errorf("getting length: %v", err)
	}

	value, err := readValue(tag, dr, vr, length, syntax)
	if err != nil {
		return nil, fmt.Errorf("parsing value %v", err)
	}

	return &DataElement{tag, vr, value, length}, nil
}
