package dicom

import "github.com/orthancsoft/dicomcodec/charset"

// dicomMetaData represents information about how objects within the DICOM file are stored
type dicomMetaData struct {
	syntax   transferSyntax
	encoding charset.Encoding
}

var defaultMetaData = dicomMetaData{explicitVRLittleEndian, charset.ASCII}
