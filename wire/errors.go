package wire

import (
	"errors"

	"github.com/cipherwire/cipherwire-go/crypto/ecies"
)

var (
	// ErrTagCheckFailed is returned when a MAC tag does not verify, on a
	// handshake envelope or on a frame. The connection is unusable after.
	ErrTagCheckFailed = ecies.ErrTagCheckFailed

	// ErrInvalidAuthData is returned when an auth message decrypts but is
	// structurally malformed, undersized, or carries an unrecoverable
	// signature.
	ErrInvalidAuthData = errors.New("invalid auth data")

	// ErrInvalidAckData is returned when an ack message decrypts but is
	// structurally malformed or undersized.
	ErrInvalidAckData = errors.New("invalid ack data")

	// ErrKeyAgreement is returned when an elliptic-curve operation fails,
	// typically because a peer supplied an invalid public key.
	ErrKeyAgreement = errors.New("key agreement failed")

	// ErrMessageTooLarge is returned for handshake messages over the
	// declared size cap and for frame payloads over 24 bits of length.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrHandshakeNotDone is returned by frame operations before a
	// handshake or InitWithSecrets has established session state.
	ErrHandshakeNotDone = errors.New("handshake not performed")

	// ErrHandshakeDone is returned when session state would be
	// established twice on one connection.
	ErrHandshakeDone = errors.New("handshake already performed")
)
