package wire

import (
	"bytes"
	"net"
	"testing"
)

func BenchmarkHandshake(b *testing.B) {
	initPrv, recPrv := mustKey(b), mustKey(b)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c1, c2 := net.Pipe()
		done := make(chan error, 1)
		go func() {
			var h handshakeState
			_, err := h.runRecipient(c2, recPrv)
			done <- err
		}()
		var h handshakeState
		if _, err := h.runInitiator(c1, initPrv, recPrv.PubKey()); err != nil {
			b.Fatal(err)
		}
		if err := <-done; err != nil {
			b.Fatal(err)
		}
		c1.Close()
		c2.Close()
	}
}

func BenchmarkWriteFrame(b *testing.B) {
	a, _ := mirroredSessions(b)
	payload := make([]byte, 4096)
	var buf bytes.Buffer
	b.SetBytes(int64(len(payload)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := a.writeFrame(&buf, 1, payload); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFrameRoundTrip(b *testing.B) {
	wa, rb := mirroredSessions(b)
	payload := make([]byte, 4096)
	var buf bytes.Buffer
	b.SetBytes(int64(len(payload)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := wa.writeFrame(&buf, 1, payload); err != nil {
			b.Fatal(err)
		}
		if _, err := rb.readFrame(&buf); err != nil {
			b.Fatal(err)
		}
	}
}
