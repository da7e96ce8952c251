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
	"io"
)

// Construct writes the given *DataSet as a DICOM file to the given io.Writer. The transfer syntax
// used for non meta elements is read from the TransferSyntaxUID DataElement (0002,0010) within
// dataSet. By default, there is no validation against the DICOM standard of any form.
//
// If a *DataElement in the *DataSet is missing VR it will be filled in from the DICOM Data
// Dictionary. The ValueLength of DataElements are ignored and re-calculated.
//
// Construct is a convenience wrapper around NewDataElementWriter for callers that already hold a
// complete data set (meta elements and data elements together) rather than wanting to stream
// elements one at a time.
func Construct(w io.Writer, dataSet *DataSet, opts ...ConstructOption) error {
	dew, err := NewDataElementWriter(w, dataSet.MetaElements(), opts...)
	if err != nil {
		return fmt.Errorf("creating data element writer: %v", err)
	}

	for _, element := range dataSet.SortedElements() {
		if element.Tag.IsMetaElement() {
			continue
		}
		if err := dew.WriteElement(element); err != nil {
			return fmt.Errorf("writing data element: %v", err)
		}
	}

	return nil
}

// isMetaHeader reports whether every element of ds belongs to the file meta information group
// (0002,xxxx), the precondition NewDataElementWriter requires of its header argument.
func (ds *DataSet) isMetaHeader() bool {
	for t := range ds.Elements {
		if !t.IsMetaElement() {
			return false
		}
	}
	return true
}

// transferSyntax resolves the transfer syntax declared by ds's TransferSyntaxUID element
// (0002,0010).
func (ds *DataSet) transferSyntax() (transferSyntax, error) {
	element, ok := ds.Elements[TransferSyntaxUIDTag]
	if !ok {
		return nil, fmt.Errorf("transfer syntax element is missing from data set")
	}

	uid, err := element.StringValue()
	if err != nil {
		return nil, fmt.Errorf("transfer syntax element cannot be converted to string: %v", err)
	}

	return lookupTransferSyntax(uid), nil
}
