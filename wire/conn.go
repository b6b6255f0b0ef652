package wire

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cipherwire/cipherwire-go/observability"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/rlp"
)

// Conn wraps a byte-stream connection with the encrypted transport. The
// underlying connection must not be used for anything else once wrapped.
//
// Handshake must complete before messages flow. A Conn is not safe for
// general concurrent use, but one reader and one writer may run
// concurrently after the handshake.
type Conn struct {
	dialDest *secp256k1.PublicKey
	conn     net.Conn
	session  *sessionState

	obs observability.ChannelObserver
}

// NewConn wraps conn. A non-nil dialDest makes the connection run the
// initiator side of the handshake; nil makes it the recipient.
func NewConn(conn net.Conn, dialDest *secp256k1.PublicKey) *Conn {
	return &Conn{
		dialDest: dialDest,
		conn:     conn,
		obs:      observability.NoopChannelObserver,
	}
}

// SetObserver installs a metrics observer. Call before Handshake.
func (c *Conn) SetObserver(obs observability.ChannelObserver) {
	if obs == nil {
		obs = observability.NoopChannelObserver
	}
	c.obs = obs
}

// Handshake runs the auth/ack exchange and derives the session secrets. A
// context deadline bounds the whole exchange. On success the remote static
// public key is returned; for a recipient this is how the peer identity is
// learned.
func (c *Conn) Handshake(ctx context.Context, prv *secp256k1.PrivateKey) (*secp256k1.PublicKey, error) {
	if c.session != nil {
		return nil, ErrHandshakeDone
	}
	role := observability.RoleRecipient
	if c.dialDest != nil {
		role = observability.RoleInitiator
	}
	c.obs.HandshakeStarted(role)
	start := time.Now()

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return nil, err
		}
		defer c.conn.SetDeadline(time.Time{})
	}

	var (
		h   handshakeState
		sec Secrets
		err error
	)
	if c.dialDest != nil {
		sec, err = h.runInitiator(c.conn, prv, c.dialDest)
	} else {
		sec, err = h.runRecipient(c.conn, prv)
	}
	if err == nil {
		err = c.InitWithSecrets(sec)
	}
	if err != nil {
		c.obs.Handshake(role, observability.HandshakeFail, time.Since(start))
		return nil, err
	}
	c.session.rbuf = h.rbuf
	c.session.wbuf = h.wbuf
	c.obs.Handshake(role, observability.HandshakeOK, time.Since(start))
	return sec.remote, nil
}

// InitWithSecrets installs session state as if a handshake had completed.
// It cannot be combined with Handshake on the same connection.
func (c *Conn) InitWithSecrets(sec Secrets) error {
	if c.session != nil {
		return ErrHandshakeDone
	}
	s, err := newSessionState(sec)
	if err != nil {
		return err
	}
	c.session = s
	return nil
}

// ReadMsg reads the next frame and splits it into a message code and
// payload. The returned payload is valid until the next call.
func (c *Conn) ReadMsg() (code uint64, data []byte, err error) {
	if c.session == nil {
		return 0, nil, ErrHandshakeNotDone
	}
	frame, err := c.session.readFrame(c.conn)
	if err != nil {
		if errors.Is(err, ErrTagCheckFailed) {
			c.obs.TagCheckFailed(observability.DirIngress)
		}
		return 0, nil, err
	}
	code, data, err = rlp.SplitUint64(frame)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid message code: %v", err)
	}
	c.obs.FrameRead(len(data))
	return code, data, nil
}

// WriteMsg writes one frame carrying code and data.
func (c *Conn) WriteMsg(code uint64, data []byte) error {
	if c.session == nil {
		return ErrHandshakeNotDone
	}
	if len(data) > maxUint24 {
		return ErrMessageTooLarge
	}
	if err := c.session.writeFrame(c.conn, code, data); err != nil {
		return err
	}
	c.obs.FrameWritten(len(data))
	return nil
}

// LocalAddr returns the local address of the underlying connection.
func (c *Conn) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// RemoteAddr returns the remote address of the underlying connection.
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// SetReadDeadline sets the deadline for future reads.
func (c *Conn) SetReadDeadline(t time.Time) error { return c.conn.SetReadDeadline(t) }

// SetWriteDeadline sets the deadline for future writes.
func (c *Conn) SetWriteDeadline(t time.Time) error { return c.conn.SetWriteDeadline(t) }

// SetDeadline sets the deadline for future reads and writes.
func (c *Conn) SetDeadline(t time.Time) error { return c.conn.SetDeadline(t) }

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.conn.Close() }
