// Package wire implements the encrypted peer-to-peer transport: an
// ECIES-sealed two-message handshake that negotiates per-direction session
// secrets, and the AES-CTR frame codec with a chained keccak256 MAC that
// protects all traffic afterwards.
package wire

const (
	// ProtocolVersion is advertised in every auth and ack message.
	ProtocolVersion = 4

	sigLen   = 65 // r || s || v recoverable signature
	pubLen   = 64 // uncompressed public key without the format byte
	nonceLen = 32

	macLen    = 16 // truncated keccak digest after every header and body
	headerLen = 16

	// maxHandshakeMsg bounds the declared size of a sealed handshake
	// message. Padded auth/ack payloads stay well under this.
	maxHandshakeMsg = 2048

	maxUint24 = int(^uint32(0) >> 8)
)

// headerData fills the unused portion of a frame header. It is a fixed
// placeholder for future routing metadata.
var headerData = []byte{0xC2, 0x80, 0x80}
