package wire

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"hash"
	"io"
	mrand "math/rand"

	"github.com/cipherwire/cipherwire-go/crypto/ecies"
	"github.com/cipherwire/cipherwire-go/internal/bin"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

// Secrets is the output of a successful handshake: the symmetric cipher and
// MAC keys plus the seeded per-direction MAC accumulators. It is consumed
// once to initialize session state.
type Secrets struct {
	AES, MAC              []byte
	EgressMAC, IngressMAC hash.Hash

	remote *secp256k1.PublicKey
}

// handshakeState drives one side of the auth/ack exchange. It is used for a
// single connection attempt and discarded afterwards; the ephemeral key is
// zeroed as soon as the secrets are derived.
type handshakeState struct {
	initiator bool
	remote    *secp256k1.PublicKey

	initNonce, respNonce []byte
	ephemeralKey         *secp256k1.PrivateKey
	remoteEphemeralPub   *secp256k1.PublicKey

	rbuf readBuffer
	wbuf writeBuffer
}

// authMsg is the initiator's handshake payload. Trailing fields beyond the
// known set are collected into Rest and ignored, so longer future payloads
// still parse.
type authMsg struct {
	Signature       [sigLen]byte
	InitiatorPubkey [pubLen]byte
	Nonce           [nonceLen]byte
	Version         uint

	Rest []rlp.RawValue `rlp:"tail"`
}

// authAck is the recipient's handshake payload.
type authAck struct {
	EphemeralPubkey [pubLen]byte
	Nonce           [nonceLen]byte
	Version         uint

	Rest []rlp.RawValue `rlp:"tail"`
}

// runInitiator performs the dialing side of the handshake. The remote
// static public key must be known in advance.
func (h *handshakeState) runInitiator(conn io.ReadWriter, prv *secp256k1.PrivateKey, remote *secp256k1.PublicKey) (Secrets, error) {
	h.initiator = true
	h.remote = remote

	auth, err := h.makeAuthMsg(prv)
	if err != nil {
		return Secrets{}, err
	}
	authPacket, err := h.sealMsg(auth)
	if err != nil {
		return Secrets{}, err
	}
	if _, err := conn.Write(authPacket); err != nil {
		return Secrets{}, err
	}

	ackPacket, plain, err := h.readMsg(prv, conn)
	if err != nil {
		return Secrets{}, err
	}
	ack := new(authAck)
	if err := decodePayload(plain, ack); err != nil {
		return Secrets{}, fmt.Errorf("%w: %v", ErrInvalidAckData, err)
	}
	if err := h.handleAuthAck(ack); err != nil {
		return Secrets{}, err
	}
	return h.secrets(authPacket, ackPacket)
}

// runRecipient performs the listening side of the handshake. The remote
// static public key is learned from the recovered auth signature.
func (h *handshakeState) runRecipient(conn io.ReadWriter, prv *secp256k1.PrivateKey) (Secrets, error) {
	authPacket, plain, err := h.readMsg(prv, conn)
	if err != nil {
		return Secrets{}, err
	}
	auth := new(authMsg)
	if err := decodePayload(plain, auth); err != nil {
		return Secrets{}, fmt.Errorf("%w: %v", ErrInvalidAuthData, err)
	}
	if err := h.handleAuthMsg(auth, prv); err != nil {
		return Secrets{}, err
	}

	ack, err := h.makeAuthAck()
	if err != nil {
		return Secrets{}, err
	}
	ackPacket, err := h.sealMsg(ack)
	if err != nil {
		return Secrets{}, err
	}
	if _, err := conn.Write(ackPacket); err != nil {
		return Secrets{}, err
	}
	return h.secrets(authPacket, ackPacket)
}

// makeAuthMsg builds the initiator payload: a recoverable signature over
// static-shared-secret XOR nonce made with the ephemeral key, binding the
// ephemeral key to the long-term identity without exposing the static key.
func (h *handshakeState) makeAuthMsg(prv *secp256k1.PrivateKey) (*authMsg, error) {
	h.initNonce = make([]byte, nonceLen)
	if _, err := rand.Read(h.initNonce); err != nil {
		return nil, err
	}
	var err error
	h.ephemeralKey, err = secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	token := h.staticSharedSecret(prv)
	signed := xor(token, h.initNonce)
	sig := signRecoverable(h.ephemeralKey, signed)

	msg := new(authMsg)
	copy(msg.Signature[:], sig)
	copy(msg.InitiatorPubkey[:], ExportPubkey(prv.PubKey()))
	copy(msg.Nonce[:], h.initNonce)
	msg.Version = ProtocolVersion
	return msg, nil
}

func (h *handshakeState) handleAuthMsg(msg *authMsg, prv *secp256k1.PrivateKey) error {
	rpub, err := ImportPubkey(msg.InitiatorPubkey[:])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyAgreement, err)
	}
	h.initNonce = msg.Nonce[:]
	h.remote = rpub

	// A pre-set ephemeral key is kept, so tests can pin the handshake
	// randomness.
	if h.ephemeralKey == nil {
		h.ephemeralKey, err = secp256k1.GeneratePrivateKey()
		if err != nil {
			return err
		}
	}

	token := h.staticSharedSecret(prv)
	signedMsg := xor(token, h.initNonce)
	remoteEphemeral, err := recoverPubkey(msg.Signature[:], signedMsg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAuthData, err)
	}
	h.remoteEphemeralPub = remoteEphemeral
	return nil
}

func (h *handshakeState) makeAuthAck() (*authAck, error) {
	h.respNonce = make([]byte, nonceLen)
	if _, err := rand.Read(h.respNonce); err != nil {
		return nil, err
	}
	msg := new(authAck)
	copy(msg.EphemeralPubkey[:], ExportPubkey(h.ephemeralKey.PubKey()))
	copy(msg.Nonce[:], h.respNonce)
	msg.Version = ProtocolVersion
	return msg, nil
}

func (h *handshakeState) handleAuthAck(msg *authAck) error {
	h.respNonce = msg.Nonce[:]
	pub, err := ImportPubkey(msg.EphemeralPubkey[:])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAckData, err)
	}
	h.remoteEphemeralPub = pub
	return nil
}

// secrets derives the session material from the completed exchange. Both
// sides compute identical values; only the egress/ingress assignment of the
// seeded MAC accumulators differs by role.
func (h *handshakeState) secrets(auth, ack []byte) (Secrets, error) {
	if h.ephemeralKey == nil || h.remoteEphemeralPub == nil {
		return Secrets{}, ErrKeyAgreement
	}
	ecdhe := secp256k1.GenerateSharedSecret(h.ephemeralKey, h.remoteEphemeralPub)

	sharedSecret := keccak256(ecdhe, keccak256(h.respNonce, h.initNonce))
	aesSecret := keccak256(ecdhe, sharedSecret)
	s := Secrets{
		remote: h.remote,
		AES:    aesSecret,
		MAC:    keccak256(ecdhe, aesSecret),
	}

	// mac1 authenticates the direction that sent the auth packet, mac2
	// the direction that sent the ack.
	mac1 := sha3.NewLegacyKeccak256()
	mac1.Write(xor(s.MAC, h.respNonce))
	mac1.Write(auth)
	mac2 := sha3.NewLegacyKeccak256()
	mac2.Write(xor(s.MAC, h.initNonce))
	mac2.Write(ack)
	if h.initiator {
		s.EgressMAC, s.IngressMAC = mac1, mac2
	} else {
		s.EgressMAC, s.IngressMAC = mac2, mac1
	}

	h.ephemeralKey.Zero()
	return s, nil
}

// staticSharedSecret is the ECDH agreement between the local static key and
// the remote static key.
func (h *handshakeState) staticSharedSecret(prv *secp256k1.PrivateKey) []byte {
	return secp256k1.GenerateSharedSecret(prv, h.remote)
}

// sealMsg encrypts a handshake payload to the remote static key. The
// plaintext is padded with 100-199 zero bytes and the 2-byte size prefix is
// bound into the envelope tag as shared data.
func (h *handshakeState) sealMsg(msg interface{}) ([]byte, error) {
	h.wbuf.reset()
	if err := rlp.Encode(&h.wbuf, msg); err != nil {
		return nil, err
	}
	h.wbuf.appendZero(mrand.Intn(100) + 100)

	prefix := make([]byte, 2)
	bin.PutU16BE(prefix, uint16(len(h.wbuf.data)+ecies.Overhead))

	enc, err := ecies.Seal(rand.Reader, h.remote, h.wbuf.data, nil, prefix)
	return append(prefix, enc...), err
}

// readMsg reads one sealed handshake message and returns both the raw
// packet bytes (needed for the MAC seeds) and the decrypted payload.
func (h *handshakeState) readMsg(prv *secp256k1.PrivateKey, r io.Reader) (packet, plain []byte, err error) {
	h.rbuf.reset()
	h.rbuf.grow(512)

	prefix, err := h.rbuf.read(r, 2)
	if err != nil {
		return nil, nil, err
	}
	size := bin.U16BE(prefix)
	if int(size) > maxHandshakeMsg {
		return nil, nil, ErrMessageTooLarge
	}
	body, err := h.rbuf.read(r, int(size))
	if err != nil {
		return nil, nil, err
	}
	plain, err = ecies.Open(prv, body, nil, prefix)
	if err != nil {
		return nil, nil, err
	}
	return h.rbuf.data[:2+int(size)], plain, nil
}

// decodePayload decodes a single RLP list from plain. Trailing data after
// the list is tolerated.
func decodePayload(plain []byte, msg interface{}) error {
	s := rlp.NewStream(bytes.NewReader(plain), 0)
	return s.Decode(msg)
}
