// Package dicom provides DICOM file parsing and manipulation.
package dicom

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/codeninja55/go-dcmx/dicom/element"
	"github.com/codeninja55/go-dcmx/dicom/tag"
	"github.com/codeninja55/go-dcmx/dicom/value"
	"github.com/codeninja55/go-dcmx/dicom/vr"
)

// Delimiter and item tags used by sequences and encapsulated pixel data.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.5
const (
	itemTagValue                 = uint32(0xFFFEE000)
	itemDelimitationTagValue     = uint32(0xFFFEE00D)
	sequenceDelimitationTagValue = uint32(0xFFFEE0DD)
)

// ElementParser reads individual DICOM data elements from a binary stream.
//
// It handles both Explicit VR and Implicit VR encoding based on the Transfer Syntax.
// Element structure varies by VR:
//   - Explicit VR (most VRs): Tag(4) + VR(2) + Length(2) + Value(n)
//   - Explicit VR (OB/OW/SQ/etc): Tag(4) + VR(2) + Reserved(2) + Length(4) + Value(n)
//   - Implicit VR: Tag(4) + Length(4) + Value(n), VR looked up in dictionary
//
// Sequences and items recurse back into ReadElement; nesting depth is not
// limited by the parser.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
type ElementParser struct {
	reader *Reader
	ts     *TransferSyntax
}

// NewElementParser creates a new element parser with the specified reader and transfer syntax.
func NewElementParser(reader *Reader, ts *TransferSyntax) *ElementParser {
	return &ElementParser{
		reader: reader,
		ts:     ts,
	}
}

// ReadElement reads the next data element from the stream.
//
// Returns an error if the element cannot be parsed or if the stream ends unexpectedly.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1
func (p *ElementParser) ReadElement() (*element.Element, error) {
	t, err := p.readTag()
	if err != nil {
		return nil, fmt.Errorf("failed to read tag: %w", err)
	}

	var v vr.VR
	var length uint32

	if p.ts.ExplicitVR {
		v, err = p.readVRExplicit()
		if err != nil {
			return nil, fmt.Errorf("failed to read VR for tag %s: %w", t, err)
		}

		length, err = p.readLength(v)
		if err != nil {
			return nil, fmt.Errorf("failed to read length for tag %s: %w", t, err)
		}
	} else {
		length, err = p.reader.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("failed to read length for tag %s: %w", t, err)
		}

		v, err = p.readVRImplicit(t, length)
		if err != nil {
			return nil, fmt.Errorf("failed to look up VR for tag %s: %w", t, err)
		}
	}

	val, err := p.readValue(t, v, length)
	if err != nil {
		return nil, fmt.Errorf("failed to read value for tag %s: %w", t, err)
	}

	elem, err := element.NewElement(t, v, val)
	if err != nil {
		return nil, fmt.Errorf("failed to create element for tag %s: %w", t, err)
	}

	return elem, nil
}

// readValueAndBuild decodes length bytes per v starting at the reader's
// current position and wraps the result in an Element for the given tag.
// It is the tail half of ReadElement (value-decode-then-construct),
// exposed separately so the streaming driver's Finalize path can supply a
// length shorter than the one declared on the wire when truncating an
// incomplete trailing element.
func (p *ElementParser) readValueAndBuild(t tag.Tag, v vr.VR, length uint32) (*element.Element, error) {
	val, err := p.readValue(t, v, length)
	if err != nil {
		return nil, fmt.Errorf("failed to read value for tag %s: %w", t, err)
	}
	elem, err := element.NewElement(t, v, val)
	if err != nil {
		return nil, fmt.Errorf("failed to create element for tag %s: %w", t, err)
	}
	return elem, nil
}

// readTag reads a DICOM tag (group and element).
func (p *ElementParser) readTag() (tag.Tag, error) {
	group, err := p.reader.ReadUint16()
	if err != nil {
		return tag.Tag{}, fmt.Errorf("failed to read tag group: %w", err)
	}

	elem, err := p.reader.ReadUint16()
	if err != nil {
		return tag.Tag{}, fmt.Errorf("failed to read tag element: %w", err)
	}

	return tag.New(group, elem), nil
}

// readVRExplicit reads a 2-byte VR in Explicit VR encoding.
func (p *ElementParser) readVRExplicit() (vr.VR, error) {
	vrStr, err := p.reader.ReadString(2)
	if err != nil {
		return 0, fmt.Errorf("failed to read VR: %w", err)
	}

	v, err := vr.Parse(vrStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVR, vrStr)
	}

	return v, nil
}

// readVRImplicit looks up the VR for a tag from the DICOM data dictionary.
// This is used for Implicit VR transfer syntaxes where VR is not encoded in the file.
//
// For tags with multiple possible VRs (e.g., PixelData can be "OB or OW"),
// this returns the first VR in the list as the default. Tags absent from
// the dictionary (private or unrecognized public tags) fall back to
// inferImplicitVR's group and length heuristics.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
func (p *ElementParser) readVRImplicit(t tag.Tag, length uint32) (vr.VR, error) {
	info, err := tag.Find(t)
	if err != nil {
		return inferImplicitVR(t, length), nil
	}

	if len(info.VRs) == 0 {
		return inferImplicitVR(t, length), nil
	}

	return info.VRs[0], nil
}

// inferImplicitVR infers a VR for a tag not resolved by the data dictionary.
// Groups 0002, 0008, 0010, 0018, 0020 and 0028 get the group's default VR
// (element-specific VRs within them come only from the dictionary lookup);
// private (odd-group) tags get a VR inferred from the declared length; any
// other group gets UN.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
func inferImplicitVR(t tag.Tag, length uint32) vr.VR {
	if t.Group == 0x7FE0 && t.Element == 0x0010 {
		return vr.OtherByte
	}

	switch t.Group {
	case 0x0002:
		return vr.OtherByte
	case 0x0008, 0x0010, 0x0018:
		return vr.LongString
	case 0x0020:
		return vr.IntegerString
	case 0x0028:
		return vr.UnsignedShort
	}

	if t.Group%2 == 0 {
		return vr.Unknown
	}

	// Private (odd-group) elements: fall back to a VR inferred from the
	// declared value length.
	switch {
	case length == 0:
		return vr.Unknown
	case length == 2:
		return vr.UnsignedShort
	case length == 4:
		return vr.UnsignedLong
	case length <= 64:
		return vr.LongString
	case length == 0xFFFFFFFF:
		return vr.SequenceOfItems
	case length <= 1024:
		return vr.OtherByte
	default:
		return vr.OtherByte
	}
}

// readLength reads the value length field.
//
// Length encoding depends on VR:
//   - Most VRs: 2-byte uint16
//   - OB, OD, OF, OL, OV, SQ, UC, UN, UR, UT, UV, SV: 2-byte reserved (0x0000) + 4-byte uint32
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
func (p *ElementParser) readLength(v vr.VR) (uint32, error) {
	if v.UsesExplicitLength32() {
		if _, err := p.reader.ReadUint16(); err != nil {
			return 0, fmt.Errorf("failed to read reserved field: %w", err)
		}

		length, err := p.reader.ReadUint32()
		if err != nil {
			return 0, fmt.Errorf("failed to read 32-bit length: %w", err)
		}

		return length, nil
	}

	length16, err := p.reader.ReadUint16()
	if err != nil {
		return 0, fmt.Errorf("failed to read 16-bit length: %w", err)
	}

	return uint32(length16), nil
}

// readValue reads and parses the value field based on VR type.
func (p *ElementParser) readValue(t tag.Tag, v vr.VR, length uint32) (value.Value, error) {
	if length == 0xFFFFFFFF {
		// Encapsulated pixel data (compressed transfer syntaxes) always uses
		// undefined length on the OB/OW Pixel Data element.
		//
		// DICOM Standard Reference:
		// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
		if (v == vr.OtherByte || v == vr.OtherWord) && t.Group == 0x7FE0 && t.Element == 0x0010 {
			return p.readEncapsulatedPixelData(v)
		}

		// Any other VR with undefined length is a sequence: implicit-VR
		// private sequences infer a VR other than SQ, so length is the only
		// reliable signal once the pixel-data case above is excluded.
		return p.readSequenceValue(length)
	}

	if length == 0 {
		return p.createEmptyValue(v)
	}

	switch {
	case v == vr.SequenceOfItems:
		return p.readSequenceValue(length)
	case v.IsStringType():
		return p.readStringValue(v, length)
	case v == vr.FloatingPointSingle || v == vr.FloatingPointDouble:
		return p.readFloatValue(v, length)
	case v.IsNumericType():
		return p.readIntValue(v, length)
	case v.IsBinaryType():
		return p.readBytesValue(v, length)
	default:
		return p.readBytesValue(vr.Unknown, length)
	}
}

// createEmptyValue creates an empty value for the given VR.
func (p *ElementParser) createEmptyValue(v vr.VR) (value.Value, error) {
	switch {
	case v == vr.SequenceOfItems:
		return element.NewSequenceValue(nil), nil
	case v.IsStringType():
		return value.NewStringValue(v, []string{})
	case v.IsNumericType():
		return value.NewIntValue(v, []int64{})
	case v == vr.FloatingPointSingle || v == vr.FloatingPointDouble:
		return value.NewFloatValue(v, []float64{})
	case v.IsBinaryType():
		return value.NewBytesValue(v, []byte{})
	default:
		return value.NewBytesValue(vr.Unknown, []byte{})
	}
}

// readStringValue reads a string-based VR value.
//
// DICOM strings may contain multiple values separated by backslash (\).
// String values are space-padded for even length and may have trailing nulls for UI.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
func (p *ElementParser) readStringValue(v vr.VR, length uint32) (*value.StringValue, error) {
	str, err := p.reader.ReadString(int(length))
	if err != nil {
		return nil, fmt.Errorf("failed to read string data: %w", err)
	}

	var values []string
	if str == "" {
		values = []string{}
	} else {
		values = strings.Split(str, "\\")
	}

	val, err := value.NewStringValue(v, values)
	if err != nil {
		return nil, fmt.Errorf("failed to create string value: %w", err)
	}

	return val, nil
}

// readIntValue reads an integer VR value.
//
// Handles: SS (int16), US (uint16), SL (int32), UL (uint32), SV (int64), UV (uint64), AT (tag)
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
func (p *ElementParser) readIntValue(v vr.VR, length uint32) (*value.IntValue, error) {
	var values []int64

	var bytesPerValue int
	switch v {
	case vr.SignedShort, vr.UnsignedShort:
		bytesPerValue = 2
	case vr.SignedLong, vr.UnsignedLong, vr.AttributeTag:
		bytesPerValue = 4
	case vr.SignedVeryLong, vr.UnsignedVeryLong:
		bytesPerValue = 8
	default:
		return nil, fmt.Errorf("unsupported integer VR: %s", v.String())
	}

	numValues := int(length) / bytesPerValue
	if int(length)%bytesPerValue != 0 {
		return nil, fmt.Errorf("invalid length %d for VR %s (not multiple of %d)", length, v.String(), bytesPerValue)
	}

	for i := 0; i < numValues; i++ {
		var val int64

		switch v {
		case vr.SignedShort:
			u16, err := p.reader.ReadUint16()
			if err != nil {
				return nil, err
			}
			val = int64(int16(u16))

		case vr.UnsignedShort:
			u16, err := p.reader.ReadUint16()
			if err != nil {
				return nil, err
			}
			val = int64(u16)

		case vr.SignedLong:
			u32, err := p.reader.ReadUint32()
			if err != nil {
				return nil, err
			}
			val = int64(int32(u32))

		case vr.UnsignedLong:
			u32, err := p.reader.ReadUint32()
			if err != nil {
				return nil, err
			}
			val = int64(u32)

		case vr.AttributeTag:
			u32, err := p.reader.ReadUint32()
			if err != nil {
				return nil, err
			}
			val = int64(u32)

		case vr.SignedVeryLong:
			u64, err := p.reader.ReadUint64()
			if err != nil {
				return nil, err
			}
			val = int64(u64)

		case vr.UnsignedVeryLong:
			u64, err := p.reader.ReadUint64()
			if err != nil {
				return nil, err
			}
			val = int64(u64)
		}

		values = append(values, val)
	}

	intVal, err := value.NewIntValue(v, values)
	if err != nil {
		return nil, fmt.Errorf("failed to create int value: %w", err)
	}

	return intVal, nil
}

// readFloatValue reads a floating-point VR value.
//
// Handles: FL (float32), FD (float64)
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
func (p *ElementParser) readFloatValue(v vr.VR, length uint32) (*value.FloatValue, error) {
	var values []float64

	var bytesPerValue int
	switch v {
	case vr.FloatingPointSingle:
		bytesPerValue = 4
	case vr.FloatingPointDouble:
		bytesPerValue = 8
	default:
		return nil, fmt.Errorf("unsupported float VR: %s", v.String())
	}

	numValues := int(length) / bytesPerValue
	if int(length)%bytesPerValue != 0 {
		return nil, fmt.Errorf("invalid length %d for VR %s (not multiple of %d)", length, v.String(), bytesPerValue)
	}

	for i := 0; i < numValues; i++ {
		if v == vr.FloatingPointSingle {
			u32, err := p.reader.ReadUint32()
			if err != nil {
				return nil, err
			}
			values = append(values, float64(math.Float32frombits(u32)))
		} else {
			u64, err := p.reader.ReadUint64()
			if err != nil {
				return nil, err
			}
			values = append(values, math.Float64frombits(u64))
		}
	}

	floatVal, err := value.NewFloatValue(v, values)
	if err != nil {
		return nil, fmt.Errorf("failed to create float value: %w", err)
	}

	return floatVal, nil
}

// readBytesValue reads a binary VR value.
//
// Handles: OB, OD, OF, OL, OV, OW, UN
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
func (p *ElementParser) readBytesValue(v vr.VR, length uint32) (*value.BytesValue, error) {
	data, err := p.reader.ReadBytes(int(length))
	if err != nil {
		return nil, fmt.Errorf("failed to read binary data: %w", err)
	}

	bytesVal, err := value.NewBytesValue(v, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create bytes value: %w", err)
	}

	return bytesVal, nil
}

// readSequenceValue reads a sequence of items (SQ), defined or undefined
// length, building a real nested structure rather than skipping its bytes.
// Each item's elements are parsed by recursing back into ReadElement, so a
// sequence that itself contains sequences is handled without any special
// casing here.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.5
func (p *ElementParser) readSequenceValue(length uint32) (*element.SequenceValue, error) {
	bounded := length != 0xFFFFFFFF
	var end int
	if bounded {
		end = p.reader.Position() + int(length)
	}

	var items []*element.Item
	for {
		if bounded && p.reader.Position() >= end {
			return element.NewSequenceValue(items), nil
		}

		t, err := p.readTag()
		if err != nil {
			return nil, fmt.Errorf("failed to read item tag in sequence: %w", err)
		}
		tv := t.Uint32()

		itemLength, err := p.reader.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("failed to read item length in sequence: %w", err)
		}

		switch tv {
		case sequenceDelimitationTagValue:
			return element.NewSequenceValue(items), nil

		case itemTagValue:
			item, err := p.readItemBody(t, itemLength)
			if err != nil {
				return nil, err
			}
			items = append(items, item)

		default:
			return nil, fmt.Errorf("unexpected tag %s in sequence, expected Item or Sequence Delimitation", t)
		}
	}
}

// readItemBody parses a single item's elements, either up to a declared byte
// length or, for undefined length, up to an Item Delimitation Item.
func (p *ElementParser) readItemBody(itemTag tag.Tag, length uint32) (*element.Item, error) {
	item := element.NewItem()
	bounded := length != 0xFFFFFFFF

	if bounded {
		end := p.reader.Position() + int(length)
		if end > p.reader.Len() {
			return nil, &SequenceBoundsError{ItemTag: itemTag.Canonical(), Declared: length, Position: p.reader.Position()}
		}
		for p.reader.Position() < end {
			elem, err := p.ReadElement()
			if err != nil {
				return nil, fmt.Errorf("failed to read element within item: %w", err)
			}
			item.Add(elem)
		}
		return item, nil
	}

	for {
		snapshot := p.reader.Position()
		t, err := p.readTag()
		if err != nil {
			return nil, fmt.Errorf("failed to read tag within undefined-length item: %w", err)
		}
		if t.Uint32() == itemDelimitationTagValue {
			if _, err := p.reader.ReadUint32(); err != nil {
				return nil, fmt.Errorf("failed to read item delimitation length: %w", err)
			}
			return item, nil
		}
		p.reader.Rewind(snapshot)

		elem, err := p.ReadElement()
		if err != nil {
			return nil, fmt.Errorf("failed to read element within item: %w", err)
		}
		item.Add(elem)
	}
}

// readEncapsulatedPixelData reads a compressed Pixel Data element: a Basic
// Offset Table item followed by one or more compressed fragment items,
// terminated by a Sequence Delimitation Item.
//
// Item headers within encapsulated pixel data are always little-endian, per
// the standard's encapsulated-data convention, regardless of the dataset's
// declared transfer syntax byte order.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
func (p *ElementParser) readEncapsulatedPixelData(pixelVR vr.VR) (*element.EncapsulatedValue, error) {
	t, err := p.readTag()
	if err != nil {
		return nil, fmt.Errorf("failed to read Basic Offset Table item tag: %w", err)
	}
	if t.Uint32() != itemTagValue {
		return nil, fmt.Errorf("expected Basic Offset Table item, found tag %s", t)
	}

	botLength, err := p.reader.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("failed to read Basic Offset Table length: %w", err)
	}

	var bot []uint32
	if botLength > 0 {
		if botLength%4 != 0 {
			return nil, fmt.Errorf("invalid Basic Offset Table length %d: not a multiple of 4", botLength)
		}
		botBytes, err := p.reader.ReadBytes(int(botLength))
		if err != nil {
			return nil, fmt.Errorf("failed to read Basic Offset Table: %w", err)
		}
		bot = make([]uint32, botLength/4)
		for i := range bot {
			bot[i] = binary.LittleEndian.Uint32(botBytes[i*4 : i*4+4])
		}
	}

	var fragments []element.Fragment
	offset := 0
	for {
		t, err := p.readTag()
		if err != nil {
			return nil, fmt.Errorf("unexpected end of stream while reading pixel data fragments: %w", err)
		}
		tv := t.Uint32()

		if tv == sequenceDelimitationTagValue {
			if _, err := p.reader.ReadUint32(); err != nil {
				return nil, fmt.Errorf("failed to read sequence delimitation length: %w", err)
			}
			return element.NewEncapsulatedValue(pixelVR, bot, fragments), nil
		}

		if tv != itemTagValue {
			return nil, fmt.Errorf("unexpected tag %s in encapsulated pixel data (expected Item or Sequence Delimitation)", t)
		}

		fragLength, err := p.reader.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("failed to read fragment length: %w", err)
		}

		data, err := p.reader.ReadBytes(int(fragLength))
		if err != nil {
			return nil, fmt.Errorf("failed to read fragment data (%d bytes): %w", fragLength, err)
		}

		fragments = append(fragments, element.Fragment{Data: data, Offset: offset})
		offset += len(data)
	}
}
