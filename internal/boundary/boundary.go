// Package boundary converts between UTF-8 byte offsets (the engine's
// native coordinate system) and UTF-16 code-unit offsets (what hosts
// indexing strings as UTF-16 — JavaScript, the browser DOM, most
// language-server-protocol clients — expect). It is the only place in
// the module aware of the discrepancy (spec §9 "Cross-boundary
// offsets").
package boundary

import (
	"unicode/utf16"
	"unicode/utf8"
)

// OffsetMap is a precomputed byte-offset <-> UTF-16 code-unit-offset
// translation for one source buffer, built in a single pass.
type OffsetMap struct {
	// byteToUnit[i] is the UTF-16 code-unit offset corresponding to byte
	// offset i, for every i that begins a rune; bytes inside a multi-byte
	// rune carry the offset of that rune's start. Length is len(source)+1:
	// the trailing entry covers the end-of-buffer offset.
	byteToUnit []int32
}

// Build scans source once and records, for every rune boundary, the
// corresponding UTF-16 code-unit offset. Invalid UTF-8 bytes are treated
// as single-byte runes (U+FFFD's width, one code unit), matching
// utf8.DecodeRune's own error behavior so the map never skips a byte.
func Build(source []byte) *OffsetMap {
	units := make([]int32, len(source)+1)
	var unit int32

	i := 0
	for i < len(source) {
		units[i] = unit
		r, size := utf8.DecodeRune(source[i:])
		if size <= 0 {
			size = 1
		}
		width := utf16.RuneLen(r)
		if width < 0 {
			width = 1 // replacement character, one code unit
		}
		for j := 1; j < size; j++ {
			if i+j < len(units) {
				units[i+j] = unit
			}
		}
		unit += int32(width)
		i += size
	}
	units[len(source)] = unit

	return &OffsetMap{byteToUnit: units}
}

// ByteToUnit translates a byte offset into the corresponding UTF-16
// code-unit offset. Offsets outside [0, len(source)] clamp to the
// nearest end.
func (m *OffsetMap) ByteToUnit(byteOffset uint32) uint32 {
	if int(byteOffset) >= len(m.byteToUnit) {
		return uint32(m.byteToUnit[len(m.byteToUnit)-1])
	}
	return uint32(m.byteToUnit[byteOffset])
}

// UnitToByte translates a UTF-16 code-unit offset back into the byte
// offset of the rune that starts at or before it. It is a binary search
// over the prebuilt map, O(log n) per call.
func (m *OffsetMap) UnitToByte(unitOffset uint32) uint32 {
	target := int32(unitOffset)
	lo, hi := 0, len(m.byteToUnit)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if m.byteToUnit[mid] <= target {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	for lo > 0 && m.byteToUnit[lo-1] == m.byteToUnit[lo] {
		lo--
	}
	return uint32(lo)
}

// TranslateRange converts one [start, end) byte range into the
// equivalent UTF-16 code-unit range. Callers translating a whole span
// stream typically call this once per span and keep the capture/language
// tags untouched — only byte offsets are boundary-layer concerns.
func (m *OffsetMap) TranslateRange(start, end uint32) (unitStart, unitEnd uint32) {
	return m.ByteToUnit(start), m.ByteToUnit(end)
}
