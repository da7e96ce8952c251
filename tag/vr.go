package tag

// VR is the closed enumeration of DICOM Value Representations, plus the
// DCMTK-internal pseudo-VRs that a faithful exhaustive dispatch must still
// account for (they arise only from the wire format of other toolkits'
// intermediate state, never from a conforming file; each has its own vrTable
// entry, so the category-based predicates below classify them too).
type VR int

// The standard VRs, per PS3.5 Section 6.2, followed by the sentinel and
// internal pseudo-VRs an exhaustive enumeration must close over.
const (
	AE VR = iota
	AS
	AT
	CS
	DA
	DS
	DT
	FL
	FD
	IS
	LO
	LT
	OB
	OD
	OF
	OL
	OW
	PN
	SH
	SL
	SQ
	SS
	ST
	TM
	UC
	UI
	UL
	UN
	UR
	US
	UT

	// NotSupported is the sentinel VR emitted by the codec when an element
	// cannot be represented (DCMTK pseudo-VRs below, or a malformed leaf).
	NotSupported

	// Unknown is used internally before dictionary resolution has happened.
	Unknown

	// OBOrOW is the DCMTK "ox" pseudo-VR: OB or OW depending on context
	// (used for pixel data whose true VR depends on the transfer syntax).
	OBOrOW

	// The remaining pseudo-VRs are internal to the reference toolkit this
	// module's dictionary and codec are modeled on. They never appear on
	// the wire; each has its own vrTable entry and category.
	XS       // SS or US depending on context
	LTInternal // US, SS, or OW depending on context (LUT Data)
	NA        // "not applicable": data with no VR
	UP        // "unsigned pointer", DICOMDIR support
	ItemVR
	MetaInfoVR
	DatasetVR
	FileFormatVR
	DicomDirVR
	DirRecordVR
	PixelSQVR
	PixelItemVR
	PixelDataVR
	OverlayDataVR
	Unknown4ByteLen // EVR_UNKNOWN: unknown VR, 4-byte explicit length field
	Unknown2ByteLen // EVR_UNKNOWN2B: unknown VR, 2-byte explicit length field
)

// widthCategory groups VRs by how their on-wire value is shaped, which is
// what most of the codec and serializer actually dispatch on.
type widthCategory int

const (
	categoryString widthCategory = iota
	categorySignedInt
	categoryUnsignedInt
	categoryFloat
	categoryBinary
	categorySequence
	categoryAttributeTag
	categoryOther // pseudo-VRs: never carry a value of their own
)

type vrInfo struct {
	name      string
	category  widthCategory
	textual   bool
	maxLength uint32 // 0 means "no fixed bound in this table"
}

var vrTable = map[VR]vrInfo{
	AE: {"AE", categoryString, true, 16},
	AS: {"AS", categoryString, true, 4},
	AT: {"AT", categoryAttributeTag, false, 4},
	CS: {"CS", categoryString, true, 16},
	DA: {"DA", categoryString, true, 8},
	DS: {"DS", categoryString, true, 16},
	DT: {"DT", categoryString, true, 26},
	FL: {"FL", categoryFloat, false, 4},
	FD: {"FD", categoryFloat, false, 8},
	IS: {"IS", categoryString, true, 12},
	LO: {"LO", categoryString, true, 64},
	LT: {"LT", categoryString, true, 10240},
	OB: {"OB", categoryBinary, false, 0},
	OD: {"OD", categoryBinary, false, 0},
	OF: {"OF", categoryBinary, false, 0},
	OL: {"OL", categoryBinary, false, 0},
	OW: {"OW", categoryBinary, false, 0},
	PN: {"PN", categoryString, true, 64 * 5},
	SH: {"SH", categoryString, true, 16},
	SL: {"SL", categorySignedInt, false, 4},
	SQ: {"SQ", categorySequence, false, 0},
	SS: {"SS", categorySignedInt, false, 2},
	ST: {"ST", categoryString, true, 1024},
	TM: {"TM", categoryString, true, 14},
	UC: {"UC", categoryString, true, 0},
	UI: {"UI", categoryString, true, 64},
	UL: {"UL", categoryUnsignedInt, false, 4},
	UN: {"UN", categoryBinary, false, 0},
	UR: {"UR", categoryString, true, 0},
	US: {"US", categoryUnsignedInt, false, 2},
	UT: {"UT", categoryString, true, 0},

	NotSupported: {"NotSupported", categoryOther, false, 0},
	Unknown:      {"Unknown", categoryOther, false, 0},
	OBOrOW:       {"ox", categoryBinary, false, 0},

	XS:              {"xs", categoryOther, false, 0},
	LTInternal:      {"lt", categoryOther, false, 0},
	NA:              {"na", categoryOther, false, 0},
	UP:              {"up", categoryOther, false, 0},
	ItemVR:          {"item", categoryOther, false, 0},
	MetaInfoVR:      {"metainfo", categoryOther, false, 0},
	DatasetVR:       {"dataset", categoryOther, false, 0},
	FileFormatVR:    {"fileFormat", categoryOther, false, 0},
	DicomDirVR:      {"dicomDir", categoryOther, false, 0},
	DirRecordVR:     {"dirRecord", categoryOther, false, 0},
	PixelSQVR:       {"pixelSQ", categoryOther, false, 0},
	PixelItemVR:     {"pixelItem", categoryOther, false, 0},
	PixelDataVR:     {"PixelData", categoryOther, false, 0},
	OverlayDataVR:   {"OverlayData", categoryOther, false, 0},
	Unknown4ByteLen: {"UNKNOWN", categoryOther, false, 0},
	Unknown2ByteLen: {"UNKNOWN2B", categoryOther, false, 0},
}

var vrByName = func() map[string]VR {
	m := make(map[string]VR, len(vrTable))
	for vr, info := range vrTable {
		m[info.name] = vr
	}
	return m
}()

// String returns the two (or more, for pseudo-VRs) character VR code.
func (vr VR) String() string {
	if info, ok := vrTable[vr]; ok {
		return info.name
	}
	return "Unknown"
}

// IsTextual reports whether values of this VR are subject to
// SpecificCharacterSet conversion.
func (vr VR) IsTextual() bool {
	return vrTable[vr].textual
}

// MaxLength returns the VR's maximum value length per the standard, or 0 if
// the VR has no fixed bound (e.g. the unlimited-length text/binary VRs).
func (vr VR) MaxLength() uint32 {
	return vrTable[vr].maxLength
}

// IsSequence reports whether the VR is SQ.
func (vr VR) IsSequence() bool {
	return vr == SQ
}

// IsBinary reports whether the VR carries an opaque byte payload.
func (vr VR) IsBinary() bool {
	return vrTable[vr].category == categoryBinary
}

// IsSignedInteger reports whether the VR is a fixed-width signed integer.
func (vr VR) IsSignedInteger() bool {
	return vrTable[vr].category == categorySignedInt
}

// IsUnsignedInteger reports whether the VR is a fixed-width unsigned integer.
func (vr VR) IsUnsignedInteger() bool {
	return vrTable[vr].category == categoryUnsignedInt
}

// IsFloat reports whether the VR is a fixed-width IEEE float.
func (vr VR) IsFloat() bool {
	return vrTable[vr].category == categoryFloat
}

// IsAttributeTag reports whether the VR is AT.
func (vr VR) IsAttributeTag() bool {
	return vr == AT
}

// Has32BitLength reports whether, in Explicit VR encoding, this VR's value
// length field is the 32-bit form (with two reserved bytes) rather than the
// 16-bit form.
func (vr VR) Has32BitLength() bool {
	switch vr {
	case OB, OD, OF, OL, OW, SQ, UC, UR, UT, UN:
		return true
	default:
		return false
	}
}

// IsDataless reports whether the VR is one of the pseudo-VRs that never
// carries a value of its own (NA, UP, item/dataset/file-format markers, and
// the rest of categoryOther). A walker encountering one of these on a real
// element has hit something it cannot meaningfully visit as data.
func (vr VR) IsDataless() bool {
	return vrTable[vr].category == categoryOther
}

// ByName looks up a VR by its two-character wire code (or pseudo-VR name).
func ByName(name string) (VR, bool) {
	vr, ok := vrByName[name]
	return vr, ok
}
