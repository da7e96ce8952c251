// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dicom

import (
	"fmt"

	"github.com/orthancsoft/dicomcodec/tag"
)

// vrType groups VRs by how the wire reader/writer and the leaf codec must
// treat their value field. It is derived from tag.VR's classification
// (tag/vr.go) rather than maintained as a second, independently authored
// table: tag/vr.go is the one place the VR-to-shape mapping lives.
type vrType int

const (
	// textVR is for value fields that will be interpreted as simple text with space padding
	textVR vrType = iota

	// numberBinaryVR is for value fields that are parsed as binary numbers
	numberBinaryVR

	// bulkDataVR groups sequences of binary numbers, and the unbounded-length
	// textual VRs (UC, UR, UT) that share the same 32-bit explicit-VR length
	// field encoding
	bulkDataVR

	// uniqueIdentifierVR is for VR: UI. It has null padding
	uniqueIdentifierVR

	// sequenceVR is for VR: SQ
	sequenceVR

	// tagVR is for tags. Distinct from numberBinaryVR due to little endian byte ordering
	tagVR
)

// kindOf maps a tag.VR to the wire-shape grouping above. It agrees with
// tag.VR.Has32BitLength for the bulkDataVR/textVR split: the VRs encoded
// with a 32-bit explicit-VR length field are exactly OB, OD, OF, OL, OW, UC,
// UN, UR, UT (SQ, AT and UI are pulled out first since they need their own
// wire treatment beyond just length width).
func kindOf(v tag.VR) vrType {
	switch {
	case v == tag.UI:
		return uniqueIdentifierVR
	case v.IsSequence():
		return sequenceVR
	case v.IsAttributeTag():
		return tagVR
	case v.Has32BitLength():
		return bulkDataVR
	case v.IsSignedInteger(), v.IsUnsignedInteger(), v.IsFloat():
		return numberBinaryVR
	default:
		return textVR
	}
}

// UndefinedLength as specified
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.1
const UndefinedLength = 0xffffffff

// VR models the DICOM Value representations (VR) as the wire reader and
// writer see them: an identity-comparable handle (so call sites can write
// `vr == UIVR`) over the shared tag.VR value.
//
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
type VR struct {
	// Name represents the 2-character VR Code
	Name string

	kind  vrType
	value tag.VR
}

var vrLookupMap = map[string]*VR{}

func newVR(name string) *VR {
	value, ok := tag.ByName(name)
	if !ok {
		panic(fmt.Sprintf("dicom: %q is not a standard VR known to the tag package", name))
	}
	vr := &VR{Name: name, kind: kindOf(value), value: value}
	vrLookupMap[vr.Name] = vr
	return vr
}

func lookupVRByName(name string) (*VR, error) {
	r, ok := vrLookupMap[name]
	if !ok {
		return nil, fmt.Errorf("unknown vr name: %v", name)
	}
	return r, nil
}

// VR list obtained from
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
var (
	// textual VRs
	CSVR = newVR("CS")
	SHVR = newVR("SH")
	LOVR = newVR("LO")
	STVR = newVR("ST")
	LTVR = newVR("LT")
	ASVR = newVR("AS")

	// person name
	PNVR = newVR("PN")

	// application entity
	AEVR = newVR("AE")

	// dates/time VR
	DAVR = newVR("DA")
	TMVR = newVR("TM")
	DTVR = newVR("DT")

	// textual numbers
	ISVR = newVR("IS")
	DSVR = newVR("DS")

	// binary numbers
	SSVR = newVR("SS")
	USVR = newVR("US")
	SLVR = newVR("SL")
	ULVR = newVR("UL")
	FLVR = newVR("FL")
	FDVR = newVR("FD")

	// large binary sequences
	OBVR = newVR("OB")
	ODVR = newVR("OD")
	OLVR = newVR("OL")
	OWVR = newVR("OW")
	OFVR = newVR("OF")

	// unlimited char
	UCVR = newVR("UC")

	// unknown
	UNVR = newVR("UN")

	// URL
	URVR = newVR("UR")

	// unlimited text
	UTVR = newVR("UT")

	// attribute tag
	ATVR = newVR("AT")

	// unique identifier
	UIVR = newVR("UI")

	// sequence
	SQVR = newVR("SQ")
)
