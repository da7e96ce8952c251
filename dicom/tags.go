package dicom

// Well-known tags the wire-level codec and serializer reference directly,
// independent of what the process-wide dictionary has registered: file
// meta header elements, the item/sequence delimiters that have no VR of
// their own, pixel-data-family tags the bulk-data heuristics recognise,
// and a couple of tags exercised only by tests.
const (
	FileMetaInformationGroupLengthTag DataElementTag = 0x00020000
	FileMetaInformationVersionTag     DataElementTag = 0x00020001
	MediaStorageSOPClassUIDTag        DataElementTag = 0x00020002
	MediaStorageSOPInstanceUIDTag     DataElementTag = 0x00020003
	TransferSyntaxUIDTag              DataElementTag = 0x00020010
	ImplementationClassUIDTag         DataElementTag = 0x00020012
	ImplementationVersionNameTag      DataElementTag = 0x00020013
	SourceApplicationEntityTitleTag   DataElementTag = 0x00020016

	SpecificCharacterSetTag  DataElementTag = 0x00080005
	PatientWeightTag         DataElementTag = 0x00101030
	ReferencedStudySequenceTag DataElementTag = 0x00081110
	ReferencedImageSequenceTag DataElementTag = 0x00081140
	ReferencedCurveSequenceTag DataElementTag = 0x00081145
	ReferencedSOPInstanceUIDTag DataElementTag = 0x00081155
	SimpleFrameListTag       DataElementTag = 0x00081161
	TargetUIDTag             DataElementTag = 0x00083010

	FrameIncrementPointerTag DataElementTag = 0x00280009
	OverlayRowsTag           DataElementTag = 0x60000010
	GrayLookupTableDataTag   DataElementTag = 0x00281201
	TransformLabelTag        DataElementTag = 0x00221617
	PixelDataProviderURLTag  DataElementTag = 0x00287FE0

	EncapsulatedDocumentTag DataElementTag = 0x00420011

	MACParametersSequenceTag DataElementTag = 0x4FFE0001

	CurveDataTag          DataElementTag = 0x50003000
	AudioSampleDataTag    DataElementTag = 0x5000200C
	OverlayDataTag        DataElementTag = 0x60003000
	SpectroscopyDataTag   DataElementTag = 0x56000020
	WaveformDataTag       DataElementTag = 0x54001010
	FloatPixelDataTag     DataElementTag = 0x7FE00008
	DoubleFloatPixelDataTag DataElementTag = 0x7FE00009
	PixelDataTag          DataElementTag = 0x7FE00010

	ItemTag                     DataElementTag = 0xFFFEE000
	ItemDelimitationItemTag     DataElementTag = 0xFFFEE00D
	SequenceDelimitationItemTag DataElementTag = 0xFFFEE0DD

	// PrivateInformationCreatorUIDTag and PrivateInformationTag model the
	// standard's reserved pair (0007,0005)/(0007,0008) used for test
	// fixtures exercising private-block handling.
	PrivateInformationCreatorUIDTag DataElementTag = 0x00070005
	PrivateInformationTag           DataElementTag = 0x00070008

	// IdentifyingPrivateElementsTag is the standard (0008,0306) US element
	// test fixtures write in the big endian syntax.
	IdentifyingPrivateElementsTag DataElementTag = 0x00080306
)
