package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the lowercase hex encoding of the sha256 digest. All
// published lottery hashes use this encoding so that third parties can
// recompute them with any standard tooling.
func SHA256Hex(b []byte) string {
	hashed := sha256.Sum256(b)
	return hex.EncodeToString(hashed[:])
}
