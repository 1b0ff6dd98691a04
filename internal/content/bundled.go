package content

import (
	_ "embed"
)

// BundledName is the display name of the built-in cheat sheet.
const BundledName = "react-cheatsheet.md"

//go:embed assets/react-cheatsheet.md
var bundled []byte

// Bundled returns the raw built-in cheat sheet.
func Bundled() []byte {
	out := make([]byte, len(bundled))
	copy(out, bundled)
	return out
}

// LoadBundled parses the built-in cheat sheet.
func LoadBundled() (*Document, error) {
	return Load(bundled)
}
