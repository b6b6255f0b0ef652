package defaults

import "time"

const (
	// ConnectTimeout is the default timeout for establishing the
	// underlying byte-stream connection.
	ConnectTimeout = 10 * time.Second
	// HandshakeTimeout is the default timeout for completing the
	// transport handshake.
	HandshakeTimeout = 10 * time.Second
)
