package wire

import "io"

// readBuffer accumulates reads from the connection so a complete packet can
// be handed back as one slice without per-read allocation.
type readBuffer struct {
	data []byte
}

func (b *readBuffer) reset() {
	b.data = b.data[:0]
}

func (b *readBuffer) grow(n int) {
	if cap(b.data)-len(b.data) < n {
		grown := make([]byte, len(b.data), len(b.data)+n)
		copy(grown, b.data)
		b.data = grown
	}
}

// read pulls exactly n more bytes from r and returns the slice holding them.
// The slice stays valid until the next reset.
func (b *readBuffer) read(r io.Reader, n int) ([]byte, error) {
	offset := len(b.data)
	b.grow(n)
	b.data = b.data[:offset+n]
	buf := b.data[offset : offset+n]
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// writeBuffer assembles one outgoing packet before a single conn.Write.
type writeBuffer struct {
	data []byte
}

func (b *writeBuffer) reset() {
	b.data = b.data[:0]
}

func (b *writeBuffer) appendZero(n int) []byte {
	offset := len(b.data)
	b.data = append(b.data, make([]byte, n)...)
	return b.data[offset:]
}

func (b *writeBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}
