package dicom

// ConstructOption configures how NewDataElementWriter/Construct transform
// DataElements on their way to the wire.
type ConstructOption struct {
	transform func(element *DataElement) (*DataElement, error)
}

// ConstructOptionWithTransform returns a ConstructOption that applies
// transform to each DataElement before it is written. For sequence
// DataElements, transform runs on the parent element first and then on its
// children (pre-order), the opposite order from ParseOption's post-order
// application in options.go.
//
// After every ConstructOption for an element has run, its length is
// recalculated and its VR is filled in from the dictionary if left nil.
// The recalculation defaults to explicit lengths unless the DataElement
// itself carries UndefinedLength in ValueLength.
func ConstructOptionWithTransform(transform func(element *DataElement) (*DataElement, error)) ConstructOption {
	return ConstructOption{transform: transform}
}

// ExplicitLengths forces every sequence and sequence item to be written
// with an explicit length. Apply it after any other ConstructOptions.
// Combining it with UndefinedLengths is undefined.
var ExplicitLengths = ConstructOptionWithTransform(func(element *DataElement) (*DataElement, error) {
	// Length recalculation happens after every option runs, so clearing
	// UndefinedLength here is enough to make it explicit again. Sequences
	// are written pre-order (parent length computed before children), so an
	// undefined-length child would otherwise force its parent undefined too
	// — walk the whole subtree to clear every level.
	var clearUndefinedLengths func(elem *DataElement)
	clearUndefinedLengths = func(elem *DataElement) {
		seq, ok := elem.ValueField.(*Sequence)
		if !ok {
			return
		}
		elem.ValueLength = 0
		for _, item := range seq.Items {
			item.Length = 0
			for _, itemElem := range item.Elements {
				clearUndefinedLengths(itemElem)
			}
		}
	}

	clearUndefinedLengths(element)
	return element, nil
})

// UndefinedLengths forces every sequence and sequence item to be written
// with undefined length. Apply it after any other ConstructOptions.
// Combining it with ExplicitLengths is undefined.
var UndefinedLengths = ConstructOptionWithTransform(func(element *DataElement) (*DataElement, error) {
	seq, ok := element.ValueField.(*Sequence)
	if !ok {
		return element, nil
	}

	element.ValueLength = UndefinedLength
	for _, item := range seq.Items {
		item.Length = UndefinedLength
	}
	return element, nil
})
