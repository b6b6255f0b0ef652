package wire

import (
	"crypto/cipher"
	"fmt"
	"hash"
)

// MAC is the running authentication state for one direction of an
// established channel. Every encrypted header and body is absorbed into a
// keccak256 accumulator seeded during secret derivation; a tag is produced
// by encrypting the current digest under the MAC secret with a single block
// cipher call, XORing a 16-byte seed into the result, re-absorbing it, and
// truncating the new digest to 16 bytes.
//
// The state is strictly append-only. A skipped or reordered frame
// desynchronizes it permanently and the connection must be torn down.
type MAC struct {
	cipher     cipher.Block
	hash       hash.Hash
	aesBuffer  [macLen]byte
	hashBuffer [32]byte
	seedBuffer [32]byte
}

// NewMAC wraps a seeded keccak256 accumulator and the block cipher keyed
// with the MAC secret.
func NewMAC(block cipher.Block, h hash.Hash) *MAC {
	m := &MAC{cipher: block, hash: h}
	if block.BlockSize() != len(m.aesBuffer) {
		panic(fmt.Errorf("invalid MAC cipher block size %d", block.BlockSize()))
	}
	if h.Size() != len(m.hashBuffer) {
		panic(fmt.Errorf("invalid MAC digest size %d", h.Size()))
	}
	return m
}

// Update absorbs bulk ciphertext into the accumulator without producing a
// tag.
func (m *MAC) Update(data []byte) {
	m.hash.Write(data)
}

// Digest returns the low 16 bytes of the current accumulator value.
func (m *MAC) Digest() []byte {
	sum := m.hash.Sum(m.hashBuffer[:0])
	out := make([]byte, macLen)
	copy(out, sum[:macLen])
	return out
}

// UpdateHeader runs the chained step over an encrypted 16-byte frame header
// and returns its tag.
func (m *MAC) UpdateHeader(header []byte) []byte {
	sum1 := m.hash.Sum(m.hashBuffer[:0])
	return m.compute(sum1, header)
}

// UpdateBody absorbs an encrypted frame body and returns its tag. The tag
// derivation itself advances the accumulator, chaining each frame to the
// next.
func (m *MAC) UpdateBody(body []byte) []byte {
	m.hash.Write(body)
	seed := m.hash.Sum(m.seedBuffer[:0])
	return m.compute(seed, seed[:macLen])
}

// compute derives the tag for a 16-byte seed: encrypt the current digest
// under the MAC secret, XOR with the seed, absorb the result, and truncate
// the new digest.
func (m *MAC) compute(sum1, seed []byte) []byte {
	if len(seed) != len(m.aesBuffer) {
		panic("invalid MAC seed")
	}
	m.cipher.Encrypt(m.aesBuffer[:], sum1)
	for i := range m.aesBuffer {
		m.aesBuffer[i] ^= seed[i]
	}
	m.hash.Write(m.aesBuffer[:])
	sum2 := m.hash.Sum(m.hashBuffer[:0])
	return sum2[:macLen]
}
