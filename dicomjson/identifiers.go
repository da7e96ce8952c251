package dicomjson

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"

	"github.com/google/uuid"

	"github.com/orthancsoft/dicomcodec/charset"
	"github.com/orthancsoft/dicomcodec/dicom"
	"github.com/orthancsoft/dicomcodec/tag"
)

// defaultUIDRoot is "2.25", the arc PS3.5 Annex B reserves for UIDs
// derived from a UUID's integer form, used whenever a SITE_*_UID_ROOT
// environment variable is unset.
const defaultUIDRoot = "2.25"

// maxUIDLength is the UI VR's maximum encoded length, per PS3.5 Section 6.2.
const maxUIDLength = 64

// generateIdentifiers fills PatientID, StudyInstanceUID, SeriesInstanceUID,
// and SOPInstanceUID on dataset wherever they are still missing, and
// ensures SpecificCharacterSet is present so downstream encoders see the
// dataset's actual character set rather than assuming one.
//
// Grounded on leo-cydar-_opendcm's NewRandInstanceUID (root prefix plus a
// crypto/rand-backed numeric suffix).
func generateIdentifiers(dataset *dicom.DataSet, targetEncoding charset.Encoding) error {
	if _, ok := dataset.Elements[dicom.SpecificCharacterSetTag]; !ok {
		name := targetEncoding.String()
		dataset.Elements[dicom.SpecificCharacterSetTag] = &dicom.DataElement{
			Tag: dicom.SpecificCharacterSetTag, VR: dicom.CSVR,
			ValueField: []string{name}, ValueLength: uint32(len(name)),
		}
	}

	patientIDTag := tagFrom(tag.PatientID)
	if _, ok := dataset.Elements[patientIDTag]; !ok {
		id := uuid.NewString()
		dataset.Elements[patientIDTag] = &dicom.DataElement{
			Tag: patientIDTag, VR: dicom.LOVR,
			ValueField: []string{id}, ValueLength: uint32(len(id)),
		}
	}

	for _, uidTag := range []struct {
		tag    dicom.DataElementTag
		envVar string
	}{
		{tagFrom(tag.StudyInstanceUID), "SITE_STUDY_UID_ROOT"},
		{tagFrom(tag.SeriesInstanceUID), "SITE_SERIES_UID_ROOT"},
		{tagFrom(tag.SOPInstanceUID), "SITE_INSTANCE_UID_ROOT"},
	} {
		if _, ok := dataset.Elements[uidTag.tag]; ok {
			continue
		}
		uid, err := newInstanceUID(uidRoot(uidTag.envVar))
		if err != nil {
			return fmt.Errorf("generating UID for %s: %w", uidTag.tag, err)
		}
		dataset.Elements[uidTag.tag] = &dicom.DataElement{
			Tag: uidTag.tag, VR: dicom.UIVR,
			ValueField: []string{uid}, ValueLength: uint32(len(uid)),
		}
	}

	return nil
}

func uidRoot(envVar string) string {
	if root := os.Getenv(envVar); root != "" {
		return root
	}
	return defaultUIDRoot
}

// newInstanceUID builds a UID as root + "." + a crypto/rand-backed 20 digit
// numeric suffix, truncated to the VR's 64 character bound.
func newInstanceUID(root string) (string, error) {
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(20), nil)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", err
	}

	uid := fmt.Sprintf("%s.%d", root, n)
	if len(uid) > maxUIDLength {
		uid = uid[:maxUIDLength]
	}
	return uid, nil
}
