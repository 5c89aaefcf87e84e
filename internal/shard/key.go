package shard

import (
	"encoding/hex"
	"strings"
)

// escapeMarker introduces a hex-encoded file name suffix.
const escapeMarker = "~"

// Keyer maps arrangements to Shard Keys.
//
// Keyer is a value type and safe for concurrent use.
type Keyer struct {
	width int
}

// NewKeyer creates a Keyer for the given width.
// Widths below 1 are treated as 1 (a single shard).
func NewKeyer(width int) Keyer {
	if width < 1 {
		width = 1
	}
	return Keyer{width: width}
}

// Width returns the number of leading runes that form a key.
func (k Keyer) Width() int {
	return k.width
}

// Sharded reports whether arrangements are spread over more than one shard.
func (k Keyer) Sharded() bool {
	return k.width > 1
}

// KeyFor returns the Shard Key of an arrangement.
//
// With width 1 every arrangement maps to the empty key. Otherwise the key is
// the first width runes of the arrangement, or the whole arrangement when it
// is shorter than that.
func (k Keyer) KeyFor(arrangement string) string {
	if k.width <= 1 {
		return ""
	}
	n := 0
	for i := range arrangement {
		if n == k.width {
			return arrangement[:i]
		}
		n++
	}
	return arrangement
}

// WidthFor applies the static width policy: inputs longer than threshold
// get the configured width, everything else is unsharded.
func WidthFor(inputLen, threshold, width int) int {
	if inputLen > threshold && width > 1 {
		return width
	}
	return 1
}

// SafeName returns a file-name-safe rendering of s.
//
// Strings made only of safe characters are returned unchanged; anything else
// is returned as "~" followed by the hex encoding of s.
func SafeName(s string) string {
	for i := 0; i < len(s); i++ {
		if !isSafeByte(s[i]) {
			return escapeMarker + hex.EncodeToString([]byte(s))
		}
	}
	return s
}

// ParseSafeName reverses SafeName.
func ParseSafeName(name string) (string, error) {
	if encoded, ok := strings.CutPrefix(name, escapeMarker); ok {
		raw, err := hex.DecodeString(encoded)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return name, nil
}

func isSafeByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '-', b == '_', b == '.':
		return true
	}
	return false
}
