package ecies

import (
	"crypto/sha256"

	"github.com/cipherwire/cipherwire-go/internal/bin"
)

// ConcatKDF expands secret into outLen bytes of keying material using the
// NIST SP 800-56A counter-mode construction over SHA-256: each round hashes
// a 32-bit big-endian counter (starting at 1), the secret, and the optional
// context bytes, and the final block is truncated to fit.
//
// The function is pure and performs no secret-dependent branching.
func ConcatKDF(secret, context []byte, outLen int) []byte {
	if outLen <= 0 {
		return []byte{}
	}
	out := make([]byte, 0, ((outLen+sha256.Size-1)/sha256.Size)*sha256.Size)
	var ctr [4]byte
	for counter := uint32(1); len(out) < outLen; counter++ {
		bin.PutU32BE(ctr[:], counter)
		h := sha256.New()
		h.Write(ctr[:])
		h.Write(secret)
		h.Write(context)
		out = h.Sum(out)
	}
	return out[:outLen]
}
