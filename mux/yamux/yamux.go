// Package yamux multiplexes independent byte streams over one established
// encrypted channel.
package yamux

import (
	"net"
	"time"

	"github.com/cipherwire/cipherwire-go/wire"
	"github.com/hashicorp/yamux"
)

// DataCode is the message code carrying multiplexed session bytes. Frames
// with other codes are skipped by the stream adapter so application-level
// control messages can share the channel.
const DataCode uint64 = 0x10

// Stream adapts an established wire connection to a byte stream for the mux
// session.
func Stream(c *wire.Conn) net.Conn {
	return &msgStream{c: c}
}

type msgStream struct {
	c   *wire.Conn
	buf []byte
}

func (m *msgStream) Read(p []byte) (int, error) {
	for len(m.buf) == 0 {
		code, data, err := m.c.ReadMsg()
		if err != nil {
			return 0, err
		}
		if code != DataCode {
			continue
		}
		m.buf = append(m.buf[:0], data...)
	}
	n := copy(p, m.buf)
	m.buf = m.buf[n:]
	return n, nil
}

func (m *msgStream) Write(p []byte) (int, error) {
	if err := m.c.WriteMsg(DataCode, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (m *msgStream) Close() error         { return m.c.Close() }
func (m *msgStream) LocalAddr() net.Addr  { return m.c.LocalAddr() }
func (m *msgStream) RemoteAddr() net.Addr { return m.c.RemoteAddr() }

func (m *msgStream) SetDeadline(t time.Time) error      { return m.c.SetDeadline(t) }
func (m *msgStream) SetReadDeadline(t time.Time) error  { return m.c.SetReadDeadline(t) }
func (m *msgStream) SetWriteDeadline(t time.Time) error { return m.c.SetWriteDeadline(t) }

// NewClient starts the dialing side of a mux session over an established
// channel. Defaults apply if cfg is nil.
func NewClient(c *wire.Conn, cfg *yamux.Config) (*yamux.Session, error) {
	if cfg == nil {
		cfg = yamux.DefaultConfig()
	}
	return yamux.Client(Stream(c), cfg)
}

// NewServer starts the accepting side of a mux session over an established
// channel. Defaults apply if cfg is nil.
func NewServer(c *wire.Conn, cfg *yamux.Config) (*yamux.Session, error) {
	if cfg == nil {
		cfg = yamux.DefaultConfig()
	}
	return yamux.Server(Stream(c), cfg)
}
