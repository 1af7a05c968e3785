// Package wire implements the CAN-adaptation wire format: the 29-bit
// extended identifier layout, Node ID / Event ID big-endian marshaling, the
// multi-frame fragmentation flag, SNIP string validation, and the optional
// float16 train-speed helper (spec.md 6).
package wire

import "fmt"

// FrameType is the identifier's frame-category field (spec.md 6). The
// spec's prose describes this as "a 3-bit frame-type category" but then
// separately requires CID frames to be "categorized by sequence field
// 7/6/5/4" and datagram frames to carry ONLY/FIRST/MIDDLE/LAST directly in
// the identifier (spec.md 4.6, 4.8) — eleven distinct categories in total
// (CID7..CID4, control-other, OpenLCB message, four datagram fragment
// kinds, stream), which do not fit in 3 bits. This implementation widens
// the field to 4 bits so every category in the decision table gets its own
// value; the four CID frames take 0x7..0xA (CID7..CID4), and IsCID maps
// each back to its sequence number. See DESIGN.md for the full rationale.
type FrameType uint8

const (
	FrameTypeControlOther  FrameType = 0x0 // RID / AMD / AME / AMR / error info reports
	FrameTypeOpenLCB       FrameType = 0x1 // ordinary (non-datagram/stream) OpenLCB message
	FrameTypeStream        FrameType = 0x2
	FrameTypeDatagramOnly  FrameType = 0x3
	FrameTypeDatagramFirst FrameType = 0x4
	FrameTypeDatagramMid   FrameType = 0x5
	FrameTypeDatagramLast  FrameType = 0x6
)

// CID frame types (spec.md 4.6: "categorized by sequence field 7/6/5/4").
// Only CID7's type value equals its sequence number; CID6, CID5 and CID4
// take 0x8, 0x9 and 0xA. These sit outside the
// FrameTypeControlOther..FrameTypeDatagramLast range.
const (
	FrameTypeCID7 FrameType = 0x7
	FrameTypeCID6 FrameType = 0x8
	FrameTypeCID5 FrameType = 0x9
	FrameTypeCID4Seq FrameType = 0xA
)

// IsCID reports whether a frame type is one of the four Check-ID frames and
// returns its wire-observable sequence number (7, 6, 5, or 4).
func (t FrameType) IsCID() (seq uint8, ok bool) {
	switch t {
	case FrameTypeCID7:
		return 7, true
	case FrameTypeCID6:
		return 6, true
	case FrameTypeCID5:
		return 5, true
	case FrameTypeCID4Seq:
		return 4, true
	default:
		return 0, false
	}
}

// CIDFrameType returns the FrameType for a given CID sequence number
// (one of 7, 6, 5, 4).
func CIDFrameType(seq uint8) (FrameType, bool) {
	switch seq {
	case 7:
		return FrameTypeCID7, true
	case 6:
		return FrameTypeCID6, true
	case 5:
		return FrameTypeCID5, true
	case 4:
		return FrameTypeCID4Seq, true
	default:
		return 0, false
	}
}

// Identifier is the decoded form of the 29-bit extended CAN identifier.
//
//	bit 28        : reserved, always 1 on the wire
//	bits 27..24   : FrameType (4 bits)
//	bits 23..12   : Variable (12 bits) - meaning depends on FrameType:
//	                  OpenLCB message    -> MTI
//	                  CID7..CID4         -> 12-bit Node ID fragment
//	                  control-other      -> literal RID/AMD/AME/AMR constant
//	                  datagram/stream    -> destination alias
//	bits 11..0    : SourceAlias
type Identifier struct {
	Type        FrameType
	Variable    uint16 // 12 bits
	SourceAlias uint16 // 12 bits
}

const (
	idReservedBit   = 1 << 28
	idTypeShift     = 24
	idTypeMask      = 0xF
	idVariableShift = 12
	idVariableMask  = 0xFFF
	idAliasMask     = 0xFFF
)

// Encode packs the identifier into the low 29 bits of a uint32.
func (id Identifier) Encode() uint32 {
	return idReservedBit |
		(uint32(id.Type)&idTypeMask)<<idTypeShift |
		(uint32(id.Variable)&idVariableMask)<<idVariableShift |
		uint32(id.SourceAlias)&idAliasMask
}

// DecodeIdentifier unpacks a 29-bit extended CAN identifier.
func DecodeIdentifier(raw uint32) Identifier {
	return Identifier{
		Type:        FrameType((raw >> idTypeShift) & idTypeMask),
		Variable:    uint16((raw >> idVariableShift) & idVariableMask),
		SourceAlias: uint16(raw & idAliasMask),
	}
}

// Frame is a single CAN frame as it appears on the wire: a 29-bit extended
// identifier plus 0-8 data bytes.
type Frame struct {
	ID   Identifier
	Data []byte
}

// String renders the frame in a debug-friendly form, not GridConnect (see
// the gridconnect package for wire-compatible ASCII framing).
func (f Frame) String() string {
	return fmt.Sprintf("CAN{type=0x%x var=0x%03x src=0x%03x data=% x}", f.ID.Type, f.ID.Variable, f.ID.SourceAlias, f.Data)
}

// EncodeCID builds the Variable field for a Check-ID frame: 12 bits of the
// candidate Node ID.
func EncodeCID(nodeIDFragment uint16) uint16 {
	return nodeIDFragment & 0xFFF
}
