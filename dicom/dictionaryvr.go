package dicom

import (
	"github.com/orthancsoft/dicomcodec/dictionary"
	"github.com/orthancsoft/dicomcodec/tag"
)

// init loads the process-wide data dictionary once, before any parsing can
// occur. A failure here is fatal to the process:
// every subsequent VR lookup in this package depends on it having run.
func init() {
	if err := dictionary.Initialize(); err != nil {
		panic(err)
	}
}

// asTag converts the package's own wire-level DataElementTag into the
// dictionary package's value-object Tag.
func (t DataElementTag) asTag() tag.Tag {
	return tag.New(t.GroupNumber(), t.ElementNumber())
}

// DictionaryVR resolves t's VR from the process-wide data dictionary,
// returning the UNVR pseudo-entry when the tag has no dictionary entry.
// This is the bridge the Implicit VR reader and the Construct/
// DataElementWriter group-length calculation rely on to fill in a VR that
// never appears on the wire.
func (t DataElementTag) DictionaryVR() *VR {
	entry, ok := dictionary.Lookup(t.asTag())
	if !ok {
		return UNVR
	}

	vr, err := lookupVRByName(entry.VR.String())
	if err != nil {
		// Pseudo-VRs like NA have no wire-level *VR counterpart; treat as
		// opaque binary rather than fail VR resolution outright.
		return UNVR
	}
	return vr
}
