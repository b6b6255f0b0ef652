package wire

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

// ImportPubkey parses a 64-byte (prefix stripped) or 65-byte (0x04-prefixed)
// uncompressed public key.
func ImportPubkey(data []byte) (*secp256k1.PublicKey, error) {
	var full []byte
	switch len(data) {
	case pubLen:
		full = make([]byte, 1+pubLen)
		full[0] = 0x04
		copy(full[1:], data)
	case pubLen + 1:
		full = data
	default:
		return nil, fmt.Errorf("invalid public key length %d (expect 64/65)", len(data))
	}
	return secp256k1.ParsePubKey(full)
}

// ExportPubkey returns the 64-byte uncompressed representation without the
// format byte.
func ExportPubkey(pub *secp256k1.PublicKey) []byte {
	return pub.SerializeUncompressed()[1:]
}

// signRecoverable signs digest with prv and returns r || s || v where v is
// the recovery code in 0..3.
func signRecoverable(prv *secp256k1.PrivateKey, digest []byte) []byte {
	compact := ecdsa.SignCompact(prv, digest, false)
	sig := make([]byte, sigLen)
	copy(sig, compact[1:])
	sig[sigLen-1] = compact[0] - 27
	return sig
}

// recoverPubkey recovers the signing key from an r || s || v signature.
func recoverPubkey(sig, digest []byte) (*secp256k1.PublicKey, error) {
	if len(sig) != sigLen {
		return nil, fmt.Errorf("invalid signature length %d", len(sig))
	}
	compact := make([]byte, sigLen)
	compact[0] = sig[sigLen-1] + 27
	copy(compact[1:], sig[:sigLen-1])
	pub, _, err := ecdsa.RecoverCompact(compact, digest)
	return pub, err
}

func keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

func xor(one, other []byte) []byte {
	out := make([]byte, len(one))
	for i := range one {
		out[i] = one[i] ^ other[i]
	}
	return out
}
