package dicom

import (
	"fmt"
	"sort"

	"github.com/codeninja55/go-dcmx/dicom/element"
	"github.com/codeninja55/go-dcmx/dicom/tag"
	"github.com/codeninja55/go-dcmx/dicom/vr"
)

// lazyEntry records where an as-yet-undecoded element's value lives in the
// original byte range, so LazyDataSet can decode it on first access instead
// of at parse time.
type lazyEntry struct {
	v      vr.VR
	length uint32
	offset int
}

// LazyDataSet is returned by ParseBytesLazy/ParseReaderLazy/ParseFileLazy;
// ParseBytes/ParseReader/ParseFile reject ModeLazy. Simple, defined-length elements are recorded as tag/VR/length/
// offset tuples and decoded only when first looked up; sequences,
// undefined-length elements, and pixel data are decoded eagerly at parse
// time since their internal structure must be walked to find the next
// sibling element's offset anyway.
//
// The input byte range must remain valid and unmodified for the lifetime of
// a LazyDataSet; it holds a borrowed reference, not a copy.
type LazyDataSet struct {
	decoded *DataSet
	entries map[tag.Tag]lazyEntry
	data    []byte
	ts      *TransferSyntax
}

func newLazyDataSet(data []byte, ts *TransferSyntax) *LazyDataSet {
	return &LazyDataSet{
		decoded: NewDataSet(),
		entries: make(map[tag.Tag]lazyEntry),
		data:    data,
		ts:      ts,
	}
}

// addDecoded stores an already-fully-decoded element (used for sequences,
// undefined-length elements, pixel data, and File Meta Information).
func (lds *LazyDataSet) addDecoded(elem *element.Element) {
	_ = lds.decoded.Add(elem)
}

// addLazy records a simple defined-length element's location without
// decoding its value.
func (lds *LazyDataSet) addLazy(t tag.Tag, v vr.VR, length uint32, offset int) {
	lds.entries[t] = lazyEntry{v: v, length: length, offset: offset}
}

// Get decodes (if necessary) and returns the element for t. Once decoded,
// the result is cached, so repeated lookups of the same tag only decode
// once.
func (lds *LazyDataSet) Get(t tag.Tag) (*element.Element, error) {
	if elem, err := lds.decoded.Get(t); err == nil {
		return elem, nil
	}

	entry, ok := lds.entries[t]
	if !ok {
		return nil, fmt.Errorf("element with tag %s not found", t)
	}

	r := NewReader(lds.data, lds.ts.ByteOrder)
	r.SetPosition(entry.offset)
	elemParser := NewElementParser(r, lds.ts)
	elem, err := elemParser.readValueAndBuild(t, entry.v, entry.length)
	if err != nil {
		return nil, fmt.Errorf("failed to lazily decode tag %s: %w", t, err)
	}

	lds.decoded.Add(elem)
	delete(lds.entries, t)
	return elem, nil
}

// GetByKeyword looks up an element by its DICOM keyword, decoding it if it
// has not been accessed yet.
func (lds *LazyDataSet) GetByKeyword(keyword string) (*element.Element, error) {
	info, err := tag.FindByKeyword(keyword)
	if err != nil {
		return nil, fmt.Errorf("unknown keyword %q: %w", keyword, err)
	}
	return lds.Get(info.Tag)
}

// Contains reports whether t is present, decoded or not.
func (lds *LazyDataSet) Contains(t tag.Tag) bool {
	if lds.decoded.Contains(t) {
		return true
	}
	_, ok := lds.entries[t]
	return ok
}

// Len returns the total number of elements, decoded or not.
func (lds *LazyDataSet) Len() int {
	return lds.decoded.Len() + len(lds.entries)
}

// Tags returns all tags present, sorted ascending.
func (lds *LazyDataSet) Tags() []tag.Tag {
	tags := make([]tag.Tag, 0, lds.Len())
	tags = append(tags, lds.decoded.Tags()...)
	for t := range lds.entries {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Compare(tags[j]) < 0 })
	return tags
}

// Materialize decodes every remaining lazy entry and returns the fully
// decoded DataSet. The LazyDataSet should not be used afterward.
func (lds *LazyDataSet) Materialize() (*DataSet, error) {
	for t := range lds.entries {
		if _, err := lds.Get(t); err != nil {
			return nil, err
		}
	}
	return lds.decoded, nil
}
