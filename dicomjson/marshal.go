package dicomjson

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/orthancsoft/dicomcodec/charset"
	"github.com/orthancsoft/dicomcodec/dicom"
	"github.com/orthancsoft/dicomcodec/dictionary"
	"github.com/orthancsoft/dicomcodec/tag"
)

// Marshal projects dataset into shape's JSON form.
func Marshal(dataset *dicom.DataSet, shape Shape, opts MarshalOptions) ([]byte, error) {
	tree, err := buildTree(dataset, shape, opts)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

func buildTree(dataset *dicom.DataSet, shape Shape, opts MarshalOptions) (map[string]interface{}, error) {
	enc, hasCodeExtensions := resolveEncoding(dataset, opts.DefaultEncoding)

	out := make(map[string]interface{}, len(dataset.Elements))
	for _, t := range dataset.SortedTags() {
		element := dataset.Elements[t]
		if !shouldInclude(t, element, opts) {
			continue
		}

		creator, _ := privateCreatorFor(dataset, t)
		node, skip, err := nodeFor(element, creator, shape, opts, enc, hasCodeExtensions)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", t, err)
		}
		if skip {
			continue
		}

		out[keyFor(t, creator, shape)] = node
	}
	return out, nil
}

func resolveEncoding(dataset *dicom.DataSet, defaultEncoding charset.Encoding) (charset.Encoding, bool) {
	element, ok := dataset.Elements[dicom.SpecificCharacterSetTag]
	if !ok {
		return defaultEncoding, false
	}
	raw, err := element.StringValue()
	if err != nil {
		return defaultEncoding, false
	}
	return charset.DetectEncoding(raw, defaultEncoding)
}

// privateCreatorFor resolves the private-creator label that owns t. For an
// ordinary private data element, that means looking up the creator element
// the standard reserves at (group, block), where block is t's element
// number's high byte, per PS3.5 Section 7.8.1. For a private-creator
// reservation slot itself ((group, 0010-00FF) with a zero high byte), the
// label is the element's own value: such a tag names the creator rather
// than being owned by one.
func privateCreatorFor(dataset *dicom.DataSet, t dicom.DataElementTag) (string, bool) {
	if !t.IsPrivate() {
		return "", false
	}
	elemNum := t.ElementNumber()

	if elemNum >= 0x0010 && elemNum <= 0x00FF {
		self, ok := dataset.Elements[t]
		if !ok {
			return "", false
		}
		creator, err := self.StringValue()
		if err != nil {
			return "", false
		}
		return creator, true
	}

	block := elemNum >> 8
	if block < 0x10 || block > 0xFF {
		return "", false
	}
	creatorTag := dicom.DataElementTag(uint32(t.GroupNumber())<<16 | uint32(block))
	creatorElement, ok := dataset.Elements[creatorTag]
	if !ok {
		return "", false
	}
	creator, err := creatorElement.StringValue()
	if err != nil {
		return "", false
	}
	return creator, true
}

func shouldInclude(t dicom.DataElementTag, element *dicom.DataElement, opts MarshalOptions) bool {
	if t.IsPrivate() && !opts.IncludePrivateTags {
		return false
	}
	if dicom.DefaultBulkDataDefinition(element) && !opts.IncludePixelData {
		return false
	}
	if !opts.IncludeUnknownTags && dictionary.IsUnknownVR(tag.New(t.GroupNumber(), t.ElementNumber())) {
		return false
	}
	return true
}

// nodeFor builds the JSON node for one element. skip is true when the
// element must be dropped from the tree entirely (an excluded binary
// leaf), as opposed to being kept with a null/TooLong placeholder.
func nodeFor(element *dicom.DataElement, creator string, shape Shape, opts MarshalOptions, enc charset.Encoding, hasCodeExtensions bool) (node interface{}, skip bool, err error) {
	if seq, ok := element.ValueField.(*dicom.Sequence); ok {
		return sequenceNode(seq, shape, opts)
	}

	value, tooLong, err := convertLeaf(element, opts, enc, hasCodeExtensions)
	if err != nil {
		return nil, false, err
	}

	if value.Kind == dicom.Binary {
		if opts.ConvertBinaryToNull {
			value = dicom.NullValue()
		} else if !opts.IncludeBinary {
			return nil, true, nil
		}
	}

	switch shape {
	case Full:
		return fullLeafNode(element.Tag, creator, value, tooLong, opts), false, nil
	default: // Short, Human
		if tooLong || value.Kind == dicom.Null {
			return nil, false, nil
		}
		if value.Kind == dicom.Binary {
			return binaryText(value.Bin, opts), false, nil
		}
		return value.Str, false, nil
	}
}

func convertLeaf(element *dicom.DataElement, opts MarshalOptions, enc charset.Encoding, hasCodeExtensions bool) (dicom.DicomValue, bool, error) {
	value, err := dicom.ConvertLeafElement(element, dicom.LeafCodecOptions{}, enc, hasCodeExtensions)
	if err != nil {
		return dicom.DicomValue{}, false, err
	}
	tooLong := opts.MaxStringLen > 0 && value.Kind == dicom.String && len(value.Str) > opts.MaxStringLen
	return value, tooLong, nil
}

func fullLeafNode(t dicom.DataElementTag, creator string, value dicom.DicomValue, tooLong bool, opts MarshalOptions) map[string]interface{} {
	node := map[string]interface{}{"Name": symbolicName(t, creator)}
	if creator != "" {
		node["PrivateCreator"] = creator
	}

	switch {
	case tooLong:
		node["Type"] = "TooLong"
	case value.Kind == dicom.Null:
		node["Type"] = "Null"
	case value.Kind == dicom.Binary:
		node["Type"] = "Binary"
		node["Value"] = binaryText(value.Bin, opts)
	default:
		node["Type"] = "String"
		node["Value"] = value.Str
	}
	return node
}

func binaryText(raw []byte, opts MarshalOptions) string {
	if opts.ConvertBinaryToAscii {
		return string(raw)
	}
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(raw)
}

func symbolicName(t dicom.DataElementTag, creator string) string {
	dictTag := tag.New(t.GroupNumber(), t.ElementNumber())

	if creator != "" {
		if entry, ok := dictionary.LookupPrivate(dictTag, creator); ok {
			return entry.Name
		}
		return ""
	}

	entry, ok := dictionary.Lookup(dictTag)
	if !ok {
		return ""
	}
	return entry.Name
}

func keyFor(t dicom.DataElementTag, creator string, shape Shape) string {
	if shape == Human {
		if name := symbolicName(t, creator); name != "" {
			return name
		}
	}
	return fmt.Sprintf("%08x", uint32(t))
}

func sequenceNode(seq *dicom.Sequence, shape Shape, opts MarshalOptions) (interface{}, bool, error) {
	items := make([]map[string]interface{}, 0, len(seq.Items))
	for _, item := range seq.Items {
		itemTree, err := buildTree(item, shape, opts)
		if err != nil {
			return nil, false, err
		}
		items = append(items, itemTree)
	}

	if shape != Full {
		return items, false, nil
	}
	return map[string]interface{}{"Name": "", "Type": "Sequence", "Value": items}, false, nil
}
