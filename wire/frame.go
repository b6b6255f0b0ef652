package wire

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"fmt"
	"io"

	"github.com/cipherwire/cipherwire-go/internal/bin"
	"github.com/ethereum/go-ethereum/rlp"
)

// sessionState holds the per-direction ciphers and MAC chains of an
// established channel. The egress half is touched only by writes, the
// ingress half only by reads.
type sessionState struct {
	enc cipher.Stream
	dec cipher.Stream

	egressMAC  *MAC
	ingressMAC *MAC
	rbuf       readBuffer
	wbuf       writeBuffer
}

func newSessionState(sec Secrets) (*sessionState, error) {
	macc, err := aes.NewCipher(sec.MAC)
	if err != nil {
		return nil, fmt.Errorf("%w: bad MAC secret: %v", ErrKeyAgreement, err)
	}
	encc, err := aes.NewCipher(sec.AES)
	if err != nil {
		return nil, fmt.Errorf("%w: bad AES secret: %v", ErrKeyAgreement, err)
	}
	// A zero IV is fine here: the AES key is unique to this session.
	iv := make([]byte, encc.BlockSize())
	return &sessionState{
		enc:        cipher.NewCTR(encc, iv),
		dec:        cipher.NewCTR(encc, iv),
		egressMAC:  NewMAC(macc, sec.EgressMAC),
		ingressMAC: NewMAC(macc, sec.IngressMAC),
	}, nil
}

// readFrame reads one frame and returns the decrypted body. Both tags are
// verified before any ciphertext is decrypted.
func (s *sessionState) readFrame(conn io.Reader) ([]byte, error) {
	s.rbuf.reset()

	head, err := s.rbuf.read(conn, headerLen+macLen)
	if err != nil {
		return nil, err
	}
	wantHeaderMAC := s.ingressMAC.UpdateHeader(head[:headerLen])
	if !hmac.Equal(wantHeaderMAC, head[headerLen:]) {
		return nil, ErrTagCheckFailed
	}

	s.dec.XORKeyStream(head[:headerLen], head[:headerLen])
	bsize := int(bin.U24BE(head[:headerLen]))
	// Body padded up to a 16 byte boundary on the wire.
	rsize := bsize
	if padding := bsize % 16; padding > 0 {
		rsize += 16 - padding
	}

	body, err := s.rbuf.read(conn, rsize)
	if err != nil {
		return nil, err
	}
	bodyMAC, err := s.rbuf.read(conn, macLen)
	if err != nil {
		return nil, err
	}
	wantBodyMAC := s.ingressMAC.UpdateBody(body)
	if !hmac.Equal(wantBodyMAC, bodyMAC) {
		return nil, ErrTagCheckFailed
	}

	s.dec.XORKeyStream(body, body)
	return body[:bsize], nil
}

// writeFrame encrypts and authenticates one frame carrying the message code
// and data, then writes it out in a single call.
func (s *sessionState) writeFrame(conn io.Writer, code uint64, data []byte) error {
	s.wbuf.reset()

	bsize := rlp.IntSize(code) + len(data)
	if bsize > maxUint24 {
		return ErrMessageTooLarge
	}
	header := s.wbuf.appendZero(headerLen)
	bin.PutU24BE(header, uint32(bsize))
	copy(header[3:], headerData)
	s.enc.XORKeyStream(header, header)

	s.wbuf.Write(s.egressMAC.UpdateHeader(header))

	offset := len(s.wbuf.data)
	s.wbuf.data = rlp.AppendUint64(s.wbuf.data, code)
	s.wbuf.Write(data)
	if padding := bsize % 16; padding > 0 {
		s.wbuf.appendZero(16 - padding)
	}
	body := s.wbuf.data[offset:]
	s.enc.XORKeyStream(body, body)

	s.wbuf.Write(s.egressMAC.UpdateBody(body))

	_, err := conn.Write(s.wbuf.data)
	return err
}
