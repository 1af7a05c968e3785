package wire

// MultiFrameFlag marks a single addressed OpenLCB payload's fragment
// position, encoded in the top two bits of the first data byte for
// addressed (non-datagram) multi-frame messages (spec.md 6). The encoding
// is asymmetric: 0b00 is the "only" state, not "first".
type MultiFrameFlag uint8

const (
	MultiFrameOnly   MultiFrameFlag = 0b00
	MultiFrameFirst  MultiFrameFlag = 0b01
	MultiFrameLast   MultiFrameFlag = 0b10
	MultiFrameMiddle MultiFrameFlag = 0b11
)

// EncodeMultiFrameByte packs the flag into the top two bits of the first
// payload byte, preserving any destination-alias-derived low bits already
// present (callers pass 0 there; this exists for symmetry with Decode).
func EncodeMultiFrameByte(flag MultiFrameFlag) byte {
	return byte(flag) << 6
}

// DecodeMultiFrameByte extracts the flag from the first payload byte.
func DecodeMultiFrameByte(b byte) MultiFrameFlag {
	return MultiFrameFlag(b >> 6 & 0x3)
}

// PutNodeID writes a 48-bit Node ID into the low 6 bytes of dst, big-endian.
func PutNodeID(dst []byte, nodeID uint64) {
	_ = dst[5]
	dst[0] = byte(nodeID >> 40)
	dst[1] = byte(nodeID >> 32)
	dst[2] = byte(nodeID >> 24)
	dst[3] = byte(nodeID >> 16)
	dst[4] = byte(nodeID >> 8)
	dst[5] = byte(nodeID)
}

// NodeID reads a 48-bit big-endian Node ID from the first 6 bytes of src.
func NodeID(src []byte) uint64 {
	_ = src[5]
	return uint64(src[0])<<40 | uint64(src[1])<<32 | uint64(src[2])<<24 |
		uint64(src[3])<<16 | uint64(src[4])<<8 | uint64(src[5])
}

// PutEventID writes a 64-bit Event ID into the low 8 bytes of dst, big-endian.
func PutEventID(dst []byte, eventID uint64) {
	_ = dst[7]
	dst[0] = byte(eventID >> 56)
	dst[1] = byte(eventID >> 48)
	dst[2] = byte(eventID >> 40)
	dst[3] = byte(eventID >> 32)
	dst[4] = byte(eventID >> 24)
	dst[5] = byte(eventID >> 16)
	dst[6] = byte(eventID >> 8)
	dst[7] = byte(eventID)
}

// EventID reads a 64-bit big-endian Event ID from the first 8 bytes of src.
func EventID(src []byte) uint64 {
	_ = src[7]
	return uint64(src[0])<<56 | uint64(src[1])<<48 | uint64(src[2])<<40 | uint64(src[3])<<32 |
		uint64(src[4])<<24 | uint64(src[5])<<16 | uint64(src[6])<<8 | uint64(src[7])
}

// PutAlias writes a 12-bit alias into dst, big-endian, as used for the
// destination-alias prefix of addressed OpenLCB payloads.
func PutAlias(dst []byte, alias uint16) {
	_ = dst[1]
	dst[0] = byte(alias >> 8 & 0x0F)
	dst[1] = byte(alias)
}

// Alias reads a 12-bit destination alias from the first two bytes of src,
// masking off the multi-frame flag bits that share byte 0.
func Alias(src []byte) uint16 {
	_ = src[1]
	return uint16(src[0]&0x0F)<<8 | uint16(src[1])
}
