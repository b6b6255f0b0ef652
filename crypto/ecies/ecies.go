// Package ecies implements the asymmetric envelope encryption used to
// protect handshake messages: ECDH over secp256k1, a counter-mode KDF,
// AES-128-CTR, and an HMAC-SHA256 tag.
//
// An envelope is self-contained and independently decryptable by the
// holder of the recipient's static secret key:
//
//	envelope = 0x04 || ephemeral_pub(64) || iv(16) || ciphertext || tag(32)
//
// The ephemeral keypair is generated per envelope and never reused.
package ecies

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	pubKeyLen = 65            // uncompressed point with 0x04 prefix
	ivLen     = aes.BlockSize // CTR initialization vector
	tagLen    = sha256.Size   // HMAC-SHA256 tag
	symKeyLen = 16            // AES-128 key

	// Overhead is the number of bytes Seal adds on top of the plaintext.
	Overhead = pubKeyLen + ivLen + tagLen
)

var (
	// ErrTagCheckFailed signals an authentication tag mismatch. The
	// envelope must be discarded without further parsing.
	ErrTagCheckFailed = errors.New("ecies: tag check failed")
	// ErrInvalidCiphertext signals an envelope shorter than the fixed
	// overhead.
	ErrInvalidCiphertext = errors.New("ecies: invalid ciphertext")
	// ErrInvalidPublicKey signals a point that is not on the curve or not
	// in uncompressed form.
	ErrInvalidPublicKey = errors.New("ecies: invalid public key")
)

// deriveKeys splits the KDF output into the AES key and the HMAC key.
// The HMAC key is the hash of the upper half, matching the reference
// implementations of this scheme.
func deriveKeys(sharedSecret, s1 []byte) (encKey []byte, macKey [32]byte) {
	k := ConcatKDF(sharedSecret, s1, 2*symKeyLen)
	encKey = k[:symKeyLen]
	macKey = sha256.Sum256(k[symKeyLen:])
	return encKey, macKey
}

// messageTag authenticates iv||ciphertext together with the shared
// context bytes s2 under the derived HMAC key.
func messageTag(macKey [32]byte, ivAndCiphertext, s2 []byte) []byte {
	m := hmac.New(sha256.New, macKey[:])
	m.Write(ivAndCiphertext)
	m.Write(s2)
	return m.Sum(nil)
}

// Seal encrypts plaintext to the recipient's static public key using a
// fresh single-use ephemeral keypair. s1 is mixed into key derivation and
// s2 into the authentication tag; either may be nil.
func Seal(rand io.Reader, pub *secp256k1.PublicKey, plaintext, s1, s2 []byte) ([]byte, error) {
	eph, err := secp256k1.GeneratePrivateKeyFromRand(rand)
	if err != nil {
		return nil, err
	}
	sharedSecret := secp256k1.GenerateSharedSecret(eph, pub)
	encKey, macKey := deriveKeys(sharedSecret, s1)

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}

	out := make([]byte, pubKeyLen+ivLen+len(plaintext)+tagLen)
	copy(out, eph.PubKey().SerializeUncompressed())

	iv := out[pubKeyLen : pubKeyLen+ivLen]
	if _, err := io.ReadFull(rand, iv); err != nil {
		return nil, err
	}
	ct := out[pubKeyLen+ivLen : pubKeyLen+ivLen+len(plaintext)]
	cipher.NewCTR(block, iv).XORKeyStream(ct, plaintext)

	tag := messageTag(macKey, out[pubKeyLen:pubKeyLen+ivLen+len(plaintext)], s2)
	copy(out[pubKeyLen+ivLen+len(plaintext):], tag)
	return out, nil
}

// Open authenticates and decrypts an envelope produced by Seal. The tag is
// verified in constant time before any ciphertext byte is decrypted.
func Open(prv *secp256k1.PrivateKey, envelope, s1, s2 []byte) ([]byte, error) {
	if len(envelope) < Overhead {
		return nil, ErrInvalidCiphertext
	}
	if envelope[0] != 0x04 {
		return nil, ErrInvalidPublicKey
	}
	ephPub, err := secp256k1.ParsePubKey(envelope[:pubKeyLen])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	sharedSecret := secp256k1.GenerateSharedSecret(prv, ephPub)
	encKey, macKey := deriveKeys(sharedSecret, s1)

	ivAndCiphertext := envelope[pubKeyLen : len(envelope)-tagLen]
	want := messageTag(macKey, ivAndCiphertext, s2)
	if !hmac.Equal(want, envelope[len(envelope)-tagLen:]) {
		return nil, ErrTagCheckFailed
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, err
	}
	iv := ivAndCiphertext[:ivLen]
	ct := ivAndCiphertext[ivLen:]
	plaintext := make([]byte, len(ct))
	cipher.NewCTR(block, iv).XORKeyStream(plaintext, ct)
	return plaintext, nil
}
