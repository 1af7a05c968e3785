package wire

import (
	"bytes"

	"github.com/openlcb/canlink/internal/constants"
)

// SNIPFieldCount is the number of null-terminated string fields in a
// well-formed Simple Node Information Protocol reply: mfg-name, model,
// hw-version, sw-version, user-name, user-description (spec.md 8 scenario 5).
const SNIPFieldCount = 6

// SNIPMaxLen is the maximum SNIP reply payload length (spec.md 3: the Snip
// buffer tier is 253 bytes).
const SNIPMaxLen = constants.TierSnipBytes

// ValidateSNIPReply reports whether payload is a well-formed SNIP reply: no
// more than SNIPMaxLen bytes, containing exactly SNIPFieldCount null
// terminators.
func ValidateSNIPReply(payload []byte) bool {
	if len(payload) > SNIPMaxLen {
		return false
	}
	return bytes.Count(payload, []byte{0}) == SNIPFieldCount
}

// SplitSNIPFields splits a validated SNIP reply at its null terminators,
// returning the six fields followed by a seventh element holding whatever
// follows the last terminator (empty for an exact-length reply). Callers
// must call ValidateSNIPReply first; behavior on a malformed payload is
// undefined (fewer elements returned).
func SplitSNIPFields(payload []byte) [][]byte {
	return bytes.SplitN(payload, []byte{0}, SNIPFieldCount+1)
}
