package dicom

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/codeninja55/go-dcmx/dicom/vr"
)

// ParseFileLazy is ParseFile's ModeLazy counterpart: main-dataset elements
// are recorded by location and decoded on first access through the
// returned LazyDataSet.
func ParseFileLazy(path string) (*LazyDataSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReaderLazy(file)
}

// ParseReaderLazy is ParseReader's ModeLazy counterpart. The input is still
// fully buffered up front (lazy decoding requires a stable backing byte
// range to read from later); only value decoding is deferred.
func ParseReaderLazy(r io.Reader) (*LazyDataSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return ParseBytesLazy(data)
}

// ParseBytesLazy is ParseBytes's ModeLazy counterpart.
func ParseBytesLazy(data []byte) (*LazyDataSet, error) {
	reader := NewReader(data, binary.LittleEndian)
	parser := &Parser{
		reader: reader,
		opts:   ParseOptions{Mode: ModeLazy},
	}

	if err := parser.readPreamble(); err != nil {
		return nil, fmt.Errorf("invalid DICOM file: %w", err)
	}

	metaInfo, err := parser.readFileMetaInformation()
	if err != nil {
		return nil, fmt.Errorf("failed to read File Meta Information: %w", err)
	}

	ts, err := parser.detectTransferSyntax(metaInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to detect transfer syntax: %w", err)
	}
	parser.ts = ts
	parser.reader.SetByteOrder(ts.ByteOrder)

	if ts.Deflated {
		return nil, fmt.Errorf("dicom: ModeLazy does not support deflated transfer syntaxes; use ParseBytes")
	}

	lds, err := parser.readLazyDataset()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	for _, elem := range metaInfo.Elements() {
		lds.addDecoded(elem)
	}

	return lds, nil
}

// readLazyDataset walks the main dataset recording simple defined-length
// elements as lazy tag/VR/length/offset tuples. Sequences, undefined-length
// elements, and Pixel Data are decoded eagerly, since locating the next
// sibling element requires walking their internal structure anyway.
func (p *Parser) readLazyDataset() (*LazyDataSet, error) {
	elemParser := NewElementParser(p.reader, p.ts)
	lds := newLazyDataSet(p.reader.Bytes(), p.ts)

	if p.bufferedElem != nil {
		lds.addDecoded(p.bufferedElem)
		p.bufferedElem = nil
	}

	for p.reader.Remaining() > 0 {
		headerStart := p.reader.Position()
		t, v, length, err := readElementHeader(elemParser, p.reader, p.ts)
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset element header: %w", err)
		}

		isPixelData := t.Group == 0x7FE0 && t.Element == 0x0010
		if v == vr.SequenceOfItems || length == 0xFFFFFFFF || isPixelData {
			p.reader.SetPosition(headerStart)
			elem, err := elemParser.ReadElement()
			if err != nil {
				return nil, fmt.Errorf("failed to read dataset element: %w", err)
			}
			lds.addDecoded(elem)
			continue
		}

		valueOffset := p.reader.Position()
		if _, err := p.reader.ReadBytes(int(length)); err != nil {
			return nil, fmt.Errorf("failed to skip value for tag %s: %w", t, err)
		}
		lds.addLazy(t, v, length, valueOffset)
	}

	return lds, nil
}
