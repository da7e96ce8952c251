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

// Package dicom is the core package of this module. It provides the data
// structures and codec for manipulating the DICOM file format as specified
// in http://dicom.nema.org/medical/dicom/current/output/pdf/part05.pdf.
//
// The package is divided into two levels of abstraction for manipulating the
// DICOM file format. The low level API consists of streaming interfaces like
// DataElementIterator, BulkDataIterator, and BulkDataReader. The high level
// API consists of helper functions like Parse, which internally call the low
// level API and transform the streaming interfaces into more convenient,
// non-streaming interfaces. For example, Parse transforms a
// DataElementIterator into a collection of DataElements, known as a DataSet.
package dicom

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// DataElementTag is a unique identifier for a Data Element composed of an
// ordered pair of numbers called the group number and the element number
// as specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10.
//
// The least significant 16 bits is the element number. The most significant
// 16 bits is the group number.
type DataElementTag uint32

// GroupNumber returns the group number component of the DataElementTag.
func (t DataElementTag) GroupNumber() uint16 {
	return uint16(t >> 16)
}

// ElementNumber returns the element number component of the DataElementTag.
func (t DataElementTag) ElementNumber() uint16 {
	return uint16(t & 0xFFFF)
}

// IsMetaElement is true if and only if the tag belongs to the file meta
// information group (0002,xxxx).
func (t DataElementTag) IsMetaElement() bool {
	return t.GroupNumber() == uint16(0x0002)
}

// IsPrivate reports whether the tag's group number is odd, the convention
// that marks a private (non-standard) data element.
func (t DataElementTag) IsPrivate() bool {
	return t.GroupNumber()%2 == 1
}

// String renders the tag in the conventional "(GGGG,EEEE)" form.
func (t DataElementTag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.GroupNumber(), t.ElementNumber())
}

// DataElement models a DICOM Data Element as defined in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10.
type DataElement struct {
	Tag DataElementTag

	// VR is the Value Representation this element was encoded (or is to be
	// encoded) with.
	VR *VR

	// ValueField represents the field within a Data Element that contains its
	// value(s). Can be any of the following types:
	// []string, []int16, []uint16, []int32, []uint32, []float32, []float64,
	// BulkDataBuffer, BulkDataIterator, *Sequence.
	ValueField interface{}

	// ValueLength is equal to the length of the ValueField in bytes. Can be
	// equal to 0xFFFFFFFF to represent an undefined length:
	// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.1
	ValueLength uint32
}

// String renders the element in the conventional dump form,
// "(GGGG,EEEE) VR #Length [value]", recursing into sequence items with one
// additional ">" of indentation per nesting level.
func (e *DataElement) String() string {
	return e.render("")
}

func (e *DataElement) render(prefix string) string {
	vrName := "??"
	if e.VR != nil {
		vrName = e.VR.Name
	}

	if seq, ok := e.ValueField.(*Sequence); ok {
		lines := make([]string, 0)
		for _, item := range seq.Items {
			for _, t := range item.SortedTags() {
				lines = append(lines, prefix+">"+item.Elements[t].render(prefix+">"))
			}
		}
		header := fmt.Sprintf("%s %s #%d ", e.Tag.String(), vrName, e.ValueLength)
		return header + "\n" + strings.Join(lines, "\n")
	}

	return fmt.Sprintf("%s %s #%d [%s]", e.Tag.String(), vrName, e.ValueLength, formatValue(e.ValueField))
}

// formatValue renders a leaf ValueField as a backslash-delimited list of its
// components, the DICOM multi-valued-field convention.
func formatValue(v interface{}) string {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return fmt.Sprintf("%v", v)
	}
	parts := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		parts[i] = fmt.Sprintf("%v", rv.Index(i).Interface())
	}
	return strings.Join(parts, "\\")
}

// IntValue returns the element's first value converted to int64, failing if
// ValueField is not one of the fixed-width integer slice types or []string,
// or is empty, or (for []string) does not parse as a base-10 int64.
func (e *DataElement) IntValue() (int64, error) {
	switch v := e.ValueField.(type) {
	case []int16:
		if len(v) == 0 {
			return 0, fmt.Errorf("element %s: []int16 value is empty", e.Tag)
		}
		return int64(v[0]), nil
	case []uint16:
		if len(v) == 0 {
			return 0, fmt.Errorf("element %s: []uint16 value is empty", e.Tag)
		}
		return int64(v[0]), nil
	case []int32:
		if len(v) == 0 {
			return 0, fmt.Errorf("element %s: []int32 value is empty", e.Tag)
		}
		return int64(v[0]), nil
	case []uint32:
		if len(v) == 0 {
			return 0, fmt.Errorf("element %s: []uint32 value is empty", e.Tag)
		}
		return int64(v[0]), nil
	case []string:
		if len(v) == 0 {
			return 0, fmt.Errorf("element %s: []string value is empty", e.Tag)
		}
		n, err := strconv.ParseInt(v[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("element %s: %v", e.Tag, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("element %s: cannot convert %T to int64", e.Tag, e.ValueField)
	}
}

// StringValue returns the element's first string value, failing if
// ValueField is not a non-empty []string.
func (e *DataElement) StringValue() (string, error) {
	strs, ok := e.ValueField.([]string)
	if !ok || len(strs) == 0 {
		return "", fmt.Errorf("element %s: expected a non-empty []string value, got %T", e.Tag, e.ValueField)
	}
	return strs[0], nil
}

// DataSet models a DICOM Data Set as defined in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10.
type DataSet struct {
	// Elements is a map of DataElement tags to *DataElement.
	Elements map[DataElementTag]*DataElement

	// Length is the encoded byte length of the data set, or UndefinedLength.
	Length uint32
}

// NewDataSet builds a *DataSet from a map of tag to raw ValueField, resolving
// each element's VR from the dictionary. Length is UndefinedLength, the
// convention for a data set assembled in memory rather than parsed off the
// wire.
func NewDataSet(values map[DataElementTag]interface{}) *DataSet {
	elements := make(map[DataElementTag]*DataElement, len(values))
	for t, v := range values {
		elements[t] = &DataElement{Tag: t, VR: t.DictionaryVR(), ValueField: v}
	}
	return &DataSet{Elements: elements, Length: UndefinedLength}
}

// Merge returns a new *DataSet containing the receiver's elements overridden
// and extended by other's. Neither input is mutated.
func (ds *DataSet) Merge(other *DataSet) *DataSet {
	merged := make(map[DataElementTag]*DataElement, len(ds.Elements)+len(other.Elements))
	for t, e := range ds.Elements {
		merged[t] = e
	}
	for t, e := range other.Elements {
		merged[t] = e
	}
	return &DataSet{Elements: merged, Length: ds.Length}
}

// SortedTags returns the DataSet's tags in ascending (group, element) order,
// the order the write path must emit elements in per PS3.5 Section 7.1.
func (ds *DataSet) SortedTags() []DataElementTag {
	tags := make([]DataElementTag, 0, len(ds.Elements))
	for t := range ds.Elements {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// SortedElements returns the DataSet's elements in ascending tag order.
func (ds *DataSet) SortedElements() []*DataElement {
	tags := ds.SortedTags()
	elements := make([]*DataElement, 0, len(tags))
	for _, t := range tags {
		elements = append(elements, ds.Elements[t])
	}
	return elements
}

// string renders the data set's elements, one per line, each prefixed with
// indentLvl ">" characters. It backs Sequence.String, which nests a
// DataSet per sequence item.
func (ds *DataSet) string(indentLvl int) string {
	prefix := strings.Repeat(">", indentLvl)
	lines := make([]string, 0, len(ds.Elements))
	for _, t := range ds.SortedTags() {
		lines = append(lines, prefix+ds.Elements[t].render(prefix))
	}
	return strings.Join(lines, "\n")
}

// MetaElements returns a new *DataSet containing only the file meta
// information group (0002,xxxx) elements.
func (ds *DataSet) MetaElements() *DataSet {
	elements := map[DataElementTag]*DataElement{}
	for t, e := range ds.Elements {
		if t.IsMetaElement() {
			elements[t] = e
		}
	}
	return &DataSet{Elements: elements}
}
