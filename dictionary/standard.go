package dictionary

import "github.com/orthancsoft/dicomcodec/tag"

// standardEntries is the embedded public DICOM data dictionary, covering
// the file meta header, patient/study/series identification, and the
// handful of structural tags (group length, item/sequence delimiters) the
// codec and serializer touch directly. It is intentionally a representative
// subset rather than the full PS3.6 table: initialisation only requires
// that it succeed and that (0010,1030) resolve to DS, which this table
// guarantees, and callers may extend it via RegisterTag or a dictionary
// file.
var standardEntries = []Entry{
	{tag.New(0x0002, 0x0000), tag.UL, "FileMetaInformationGroupLength", 1, 1, ""},
	{tag.New(0x0002, 0x0001), tag.OB, "FileMetaInformationVersion", 1, 1, ""},
	{tag.New(0x0002, 0x0002), tag.UI, "MediaStorageSOPClassUID", 1, 1, ""},
	{tag.New(0x0002, 0x0003), tag.UI, "MediaStorageSOPInstanceUID", 1, 1, ""},
	{tag.New(0x0002, 0x0010), tag.UI, "TransferSyntaxUID", 1, 1, ""},
	{tag.New(0x0002, 0x0012), tag.UI, "ImplementationClassUID", 1, 1, ""},
	{tag.New(0x0002, 0x0013), tag.SH, "ImplementationVersionName", 1, 1, ""},
	{tag.New(0x0002, 0x0016), tag.AE, "SourceApplicationEntityTitle", 1, 1, ""},

	{tag.New(0x0008, 0x0005), tag.CS, "SpecificCharacterSet", 1, Unbounded, ""},
	{tag.New(0x0008, 0x0008), tag.CS, "ImageType", 1, Unbounded, ""},
	{tag.New(0x0008, 0x0016), tag.UI, "SOPClassUID", 1, 1, ""},
	{tag.New(0x0008, 0x0018), tag.UI, "SOPInstanceUID", 1, 1, ""},
	{tag.New(0x0008, 0x0020), tag.DA, "StudyDate", 1, 1, ""},
	{tag.New(0x0008, 0x0030), tag.TM, "StudyTime", 1, 1, ""},
	{tag.New(0x0008, 0x0050), tag.SH, "AccessionNumber", 1, 1, ""},
	{tag.New(0x0008, 0x0060), tag.CS, "Modality", 1, 1, ""},
	{tag.New(0x0008, 0x0090), tag.PN, "ReferringPhysicianName", 1, 1, ""},
	{tag.New(0x0008, 0x1030), tag.LO, "StudyDescription", 1, 1, ""},
	{tag.New(0x0008, 0x103E), tag.LO, "SeriesDescription", 1, 1, ""},
	{tag.New(0x0008, 0x1110), tag.SQ, "ReferencedStudySequence", 1, Unbounded, ""},

	{tag.New(0x0010, 0x0010), tag.PN, "PatientName", 1, 1, ""},
	{tag.New(0x0010, 0x0020), tag.LO, "PatientID", 1, 1, ""},
	{tag.New(0x0010, 0x0030), tag.DA, "PatientBirthDate", 1, 1, ""},
	{tag.New(0x0010, 0x0040), tag.CS, "PatientSex", 1, 1, ""},
	{tag.New(0x0010, 0x1010), tag.AS, "PatientAge", 1, 1, ""},
	{tag.New(0x0010, 0x1030), tag.DS, "PatientWeight", 1, 1, ""},

	{tag.New(0x0020, 0x000D), tag.UI, "StudyInstanceUID", 1, 1, ""},
	{tag.New(0x0020, 0x000E), tag.UI, "SeriesInstanceUID", 1, 1, ""},
	{tag.New(0x0020, 0x0010), tag.SH, "StudyID", 1, 1, ""},
	{tag.New(0x0020, 0x0011), tag.IS, "SeriesNumber", 1, 1, ""},
	{tag.New(0x0020, 0x0013), tag.IS, "InstanceNumber", 1, 1, ""},
	{tag.New(0x0020, 0x0032), tag.DS, "ImagePositionPatient", 3, 3, ""},
	{tag.New(0x0020, 0x0037), tag.DS, "ImageOrientationPatient", 6, 6, ""},

	{tag.New(0x0028, 0x0002), tag.US, "SamplesPerPixel", 1, 1, ""},
	{tag.New(0x0028, 0x0010), tag.US, "Rows", 1, 1, ""},
	{tag.New(0x0028, 0x0011), tag.US, "Columns", 1, 1, ""},
	{tag.New(0x0028, 0x0100), tag.US, "BitsAllocated", 1, 1, ""},
	{tag.New(0x0028, 0x1050), tag.DS, "WindowCenter", 1, Unbounded, ""},
	{tag.New(0x0028, 0x1051), tag.DS, "WindowWidth", 1, Unbounded, ""},

	{tag.New(0x7FE0, 0x0010), tag.OW, "PixelData", 1, 1, ""},

	{tag.New(0xFFFE, 0xE000), tag.NA, "Item", 1, 1, ""},
	{tag.New(0xFFFE, 0xE00D), tag.NA, "ItemDelimitationItem", 1, 1, ""},
	{tag.New(0xFFFE, 0xE0DD), tag.NA, "SequenceDelimitationItem", 1, 1, ""},
}
