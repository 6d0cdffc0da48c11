package store

import (
	"encoding/hex"

	"github.com/zeebo/xxh3"
)

// ContentHash returns the hex xxh3 digest of src. Runs can be compared
// file by file without storing source text.
func ContentHash(src []byte) string {
	h := xxh3.New()
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}
