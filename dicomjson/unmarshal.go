package dicomjson

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/orthancsoft/dicomcodec/dicom"
	"github.com/orthancsoft/dicomcodec/dictionary"
	"github.com/orthancsoft/dicomcodec/tag"
)

// vrByName resolves a dictionary entry's two-character VR code to the
// wire-level *dicom.VR FillElement dispatches on.
var vrByName = map[string]*dicom.VR{
	"AE": dicom.AEVR, "AS": dicom.ASVR, "AT": dicom.ATVR, "CS": dicom.CSVR,
	"DA": dicom.DAVR, "DS": dicom.DSVR, "DT": dicom.DTVR, "FL": dicom.FLVR,
	"FD": dicom.FDVR, "IS": dicom.ISVR, "LO": dicom.LOVR, "LT": dicom.LTVR,
	"OB": dicom.OBVR, "OD": dicom.ODVR, "OF": dicom.OFVR, "OL": dicom.OLVR,
	"OW": dicom.OWVR, "PN": dicom.PNVR, "SH": dicom.SHVR, "SL": dicom.SLVR,
	"SQ": dicom.SQVR, "SS": dicom.SSVR, "ST": dicom.STVR, "TM": dicom.TMVR,
	"UC": dicom.UCVR, "UI": dicom.UIVR, "UL": dicom.ULVR, "UN": dicom.UNVR,
	"UR": dicom.URVR, "US": dicom.USVR, "UT": dicom.UTVR,
}

// Unmarshal builds a *dicom.DataSet from data, interpreted as shape's JSON
// layout.
func Unmarshal(data []byte, shape Shape, opts UnmarshalOptions) (*dicom.DataSet, error) {
	var tree map[string]interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	dataset, err := datasetFromTree(tree, shape, opts)
	if err != nil {
		return nil, err
	}

	if opts.GenerateIdentifiers {
		if err := generateIdentifiers(dataset, opts.TargetEncoding); err != nil {
			return nil, fmt.Errorf("generating identifiers: %w", err)
		}
	}
	return dataset, nil
}

func datasetFromTree(tree map[string]interface{}, shape Shape, opts UnmarshalOptions) (*dicom.DataSet, error) {
	elements := make(map[dicom.DataElementTag]*dicom.DataElement, len(tree))
	for key, raw := range tree {
		t, creator, err := resolveTag(key, shape, raw)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}

		element, skip, err := elementFromNode(t, creator, raw, shape, opts)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		if skip {
			continue
		}
		elements[t] = element
	}
	return &dicom.DataSet{Elements: elements, Length: dicom.UndefinedLength}, nil
}

func resolveTag(key string, shape Shape, raw interface{}) (dicom.DataElementTag, string, error) {
	if shape == Human {
		if entry, ok := dictionary.LookupByName(key); ok {
			return tagFrom(entry.Tag), entry.PrivateCreator, nil
		}
	}

	t, err := parseHexTag(key)
	if err != nil {
		return 0, "", err
	}

	creator := ""
	if shape == Full {
		if obj, ok := raw.(map[string]interface{}); ok {
			if c, ok := obj["PrivateCreator"].(string); ok {
				creator = c
			}
		}
	}
	return t, creator, nil
}

func tagFrom(t tag.Tag) dicom.DataElementTag {
	return dicom.DataElementTag(uint32(t.Group)<<16 | uint32(t.Element))
}

func parseHexTag(key string) (dicom.DataElementTag, error) {
	v, err := strconv.ParseUint(key, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not a valid GGGGEEEE tag key: %w", key, err)
	}
	return dicom.DataElementTag(v), nil
}

func elementFromNode(t dicom.DataElementTag, creator string, raw interface{}, shape Shape, opts UnmarshalOptions) (*dicom.DataElement, bool, error) {
	if shape == Full {
		return elementFromFullNode(t, creator, raw, opts)
	}

	switch v := raw.(type) {
	case nil:
		return nil, true, nil
	case string:
		element, err := fillElement(t, creator, v, opts)
		return element, false, err
	case []interface{}:
		seq, err := sequenceFromNodes(v, shape, opts)
		if err != nil {
			return nil, false, err
		}
		return &dicom.DataElement{Tag: t, VR: dicom.SQVR, ValueField: seq, ValueLength: dicom.UndefinedLength}, false, nil
	default:
		return nil, false, fmt.Errorf("unsupported JSON value of type %T", raw)
	}
}

func elementFromFullNode(t dicom.DataElementTag, creator string, raw interface{}, opts UnmarshalOptions) (*dicom.DataElement, bool, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, false, fmt.Errorf("expected an object for the Full shape")
	}

	typ, _ := obj["Type"].(string)
	switch typ {
	case "Null", "TooLong", "":
		return nil, true, nil

	case "Sequence":
		items, _ := obj["Value"].([]interface{})
		seq, err := sequenceFromNodes(items, Full, opts)
		if err != nil {
			return nil, false, err
		}
		return &dicom.DataElement{Tag: t, VR: dicom.SQVR, ValueField: seq, ValueLength: dicom.UndefinedLength}, false, nil

	case "String", "Binary":
		value, _ := obj["Value"].(string)
		element, err := fillElement(t, creator, value, opts)
		return element, false, err

	default:
		return nil, false, fmt.Errorf("unrecognised Type %q", typ)
	}
}

func sequenceFromNodes(nodes []interface{}, shape Shape, opts UnmarshalOptions) (*dicom.Sequence, error) {
	items := make([]*dicom.DataSet, 0, len(nodes))
	for i, n := range nodes {
		obj, ok := n.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("sequence item %d: expected an object", i)
		}
		item, err := datasetFromTree(obj, shape, opts)
		if err != nil {
			return nil, fmt.Errorf("sequence item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return &dicom.Sequence{Items: items}, nil
}

func fillElement(t dicom.DataElementTag, creator string, value string, opts UnmarshalOptions) (*dicom.DataElement, error) {
	vr := vrFor(t, creator)
	element, err := dicom.FillElement(t, vr, value, opts.DecodeDataURI, opts.TargetEncoding)
	if err != nil {
		return nil, err
	}
	return element, nil
}

// vrFor resolves the wire-level VR to build a leaf with: the creator-scoped
// dictionary entry for a private tag, the public dictionary for anything
// else, falling back to UN when neither resolves.
func vrFor(t dicom.DataElementTag, creator string) *dicom.VR {
	if creator != "" {
		entry, ok := dictionary.LookupPrivate(tag.New(t.GroupNumber(), t.ElementNumber()), creator)
		if !ok {
			return dicom.UNVR
		}
		if vr, ok := vrByName[entry.VR.String()]; ok {
			return vr
		}
		return dicom.UNVR
	}
	return t.DictionaryVR()
}
