// Package dicomjson projects a dataset into and out of three JSON shapes
// (Short, Human, Full), and can fill PatientID/StudyInstanceUID/
// SeriesInstanceUID/SOPInstanceUID when a dataset assembled from JSON omits
// them.
//
// Grounded on Orthanc's FromDcmtkBridge::ElementToJson/DatasetToJson/
// ExtractDicomAsJson/FromJson.
package dicomjson

import "github.com/orthancsoft/dicomcodec/charset"

// Shape selects one of the three output/input JSON layouts.
type Shape int

const (
	// Short renders {"GGGGEEEE": value}.
	Short Shape = iota
	// Human renders {"<TagName>": value} using the dictionary's symbolic
	// name; a tag with no dictionary entry falls back to its hex key.
	Human
	// Full renders {"GGGGEEEE": {"Name", "Type", "Value"[, "PrivateCreator"]}}.
	Full
)

// MarshalOptions configures Marshal. The zero value is not a usable
// configuration; start from DefaultMarshalOptions.
type MarshalOptions struct {
	IncludePrivateTags   bool
	IncludeUnknownTags   bool
	IncludePixelData     bool
	IncludeBinary        bool
	ConvertBinaryToAscii bool
	ConvertBinaryToNull  bool

	// MaxStringLen bounds a decoded string leaf's length; 0 means
	// unbounded. Exceeding it yields Type=TooLong in the Full shape, or a
	// null value in Short/Human.
	MaxStringLen int

	// DefaultEncoding is used when the dataset carries no
	// SpecificCharacterSet element, or an unrecognised one.
	DefaultEncoding charset.Encoding
}

// DefaultMarshalOptions matches the conservative legacy preset: private
// tags, unknown tags, pixel data, and binary leaves are all excluded by
// default, and string leaves are unbounded.
func DefaultMarshalOptions() MarshalOptions {
	return MarshalOptions{DefaultEncoding: charset.ASCII}
}

// UnmarshalOptions configures Unmarshal.
type UnmarshalOptions struct {
	// GenerateIdentifiers fills missing PatientID/StudyInstanceUID/
	// SeriesInstanceUID/SOPInstanceUID after the JSON document has been
	// applied.
	GenerateIdentifiers bool

	// TargetEncoding is the character set string values are encoded to
	// before being stored in the built dataset. DefaultUnmarshalOptions sets
	// it to charset.ASCII; the zero value is charset.Unknown.
	TargetEncoding charset.Encoding

	// DecodeDataURI, when true, treats a string value beginning with
	// "data:" as a base64 data URI to decode into a binary leaf rather
	// than literal text. Defaults to true in DefaultUnmarshalOptions.
	DecodeDataURI bool
}

// DefaultUnmarshalOptions returns the conventional preset: data URIs are
// decoded, identifiers are not synthesized, and values are encoded as
// ASCII.
func DefaultUnmarshalOptions() UnmarshalOptions {
	return UnmarshalOptions{DecodeDataURI: true, TargetEncoding: charset.ASCII}
}
