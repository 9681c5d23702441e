package xmltoken

import (
	"encoding/hex"
	"strconv"
)

// ParseBool accepts exactly "true", "1", "false", "0" per spec.md §4.5;
// anything else is invalid.
func ParseBool(s string) (value bool, ok bool) {
	switch s {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// ParseInt decodes a base-10 signed integer.
func ParseInt(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

// ParseUint decodes a base-10 unsigned integer.
func ParseUint(s string) (uint64, bool) {
	v, err := strconv.ParseUint(s, 10, 64)
	return v, err == nil
}

// ParseHexBinary decodes a stream of hex digit pairs and right-aligns
// the result into a target field of n bytes, zero-padding the front —
// spec.md §4.5 and §8 boundary scenario 6 ("ab12" into a 4-byte field
// yields 00 00 AB 12).
func ParseHexBinary(s string, n int) ([]byte, bool) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) > n {
		return nil, false
	}
	out := make([]byte, n)
	copy(out[n-len(raw):], raw)
	return out, true
}
