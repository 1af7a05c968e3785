// Package login implements the per-node CAN alias-allocation sequence:
// the 48-bit LFSR (spec.md 4.7) and the 10-state login state machine that
// drives CID/RID/AMD frame emission.
package login

import "github.com/openlcb/canlink/internal/constants"

// AdvanceSeed steps the 48-bit LFSR one iteration. This is wire-observable:
// two independent implementations must converge on the same sequence from
// the same starting seed (spec.md 4.7, 8).
func AdvanceSeed(seed uint64) uint64 {
	h := (seed >> 24) & constants.Mask24
	l := seed & constants.Mask24

	t1 := ((h << 9) | ((l >> 15) & 0x1FF)) & constants.Mask24
	t2 := (l << 9) & constants.Mask24

	hPrime := (h + t1 + constants.LFSRAddConstH) & constants.Mask24
	lSum := l + t2 + constants.LFSRAddConstL

	hDouble := hPrime + ((lSum & 0xFF000000) >> 24)
	lDouble := lSum & constants.Mask24

	return (hDouble << 24) | lDouble
}

// ExtractAlias derives the 12-bit candidate alias from a seed.
func ExtractAlias(seed uint64) uint16 {
	h := (seed >> 24) & constants.Mask24
	l := seed & constants.Mask24
	return uint16((h ^ l ^ (h >> 12) ^ (l >> 12)) & constants.Mask12)
}

// NextNonZeroAlias repeatedly advances seed and extracts an alias until a
// non-zero candidate is found (spec.md 4.7 GENERATE_ALIAS: "if zero,
// re-advance the seed and retry"). It returns the new seed and the alias.
func NextNonZeroAlias(seed uint64) (newSeed uint64, alias uint16) {
	for {
		seed = AdvanceSeed(seed)
		alias = ExtractAlias(seed)
		if alias != 0 {
			return seed, alias
		}
	}
}
