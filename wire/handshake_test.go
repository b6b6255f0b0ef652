package wire

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/rlp"
)

func mustKey(t testing.TB) *secp256k1.PrivateKey {
	t.Helper()
	prv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	return prv
}

type readWriter struct {
	io.Reader
	io.Writer
}

type handshakeResult struct {
	sec Secrets
	err error
}

func runHandshakePair(t *testing.T, initPrv, recPrv *secp256k1.PrivateKey) (initSec, recSec Secrets) {
	t.Helper()
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	ch := make(chan handshakeResult, 1)
	go func() {
		var h handshakeState
		sec, err := h.runRecipient(c2, recPrv)
		ch <- handshakeResult{sec, err}
	}()

	var h handshakeState
	initSec, err := h.runInitiator(c1, initPrv, recPrv.PubKey())
	if err != nil {
		t.Fatalf("initiator: %v", err)
	}
	res := <-ch
	if res.err != nil {
		t.Fatalf("recipient: %v", res.err)
	}
	return initSec, res.sec
}

func TestHandshakeSecretsSymmetry(t *testing.T) {
	initPrv, recPrv := mustKey(t), mustKey(t)
	initSec, recSec := runHandshakePair(t, initPrv, recPrv)

	if !bytes.Equal(initSec.AES, recSec.AES) {
		t.Fatal("AES secrets differ")
	}
	if !bytes.Equal(initSec.MAC, recSec.MAC) {
		t.Fatal("MAC secrets differ")
	}
	if !bytes.Equal(initSec.EgressMAC.Sum(nil), recSec.IngressMAC.Sum(nil)) {
		t.Fatal("initiator egress MAC state does not mirror recipient ingress")
	}
	if !bytes.Equal(initSec.IngressMAC.Sum(nil), recSec.EgressMAC.Sum(nil)) {
		t.Fatal("initiator ingress MAC state does not mirror recipient egress")
	}
	if !initSec.remote.IsEqual(recPrv.PubKey()) {
		t.Fatal("initiator learned wrong remote identity")
	}
	if !recSec.remote.IsEqual(initPrv.PubKey()) {
		t.Fatal("recipient recovered wrong remote identity")
	}
}

// Fresh nonces and ephemeral keys mean two handshakes between the same
// static keys never derive the same secrets.
func TestHandshakeSecretsFresh(t *testing.T) {
	initPrv, recPrv := mustKey(t), mustKey(t)
	first, _ := runHandshakePair(t, initPrv, recPrv)
	second, _ := runHandshakePair(t, initPrv, recPrv)
	if bytes.Equal(first.AES, second.AES) {
		t.Fatal("two handshakes derived the same AES secret")
	}
}

func TestHandshakeTamperedAuth(t *testing.T) {
	initPrv, recPrv := mustKey(t), mustKey(t)

	h := &handshakeState{initiator: true, remote: recPrv.PubKey()}
	auth, err := h.makeAuthMsg(initPrv)
	if err != nil {
		t.Fatal(err)
	}
	packet, err := h.sealMsg(auth)
	if err != nil {
		t.Fatal(err)
	}
	packet[len(packet)-1] ^= 0x01

	var rec handshakeState
	_, err = rec.runRecipient(readWriter{bytes.NewReader(packet), io.Discard}, recPrv)
	if !errors.Is(err, ErrTagCheckFailed) {
		t.Fatalf("got %v, want ErrTagCheckFailed", err)
	}
}

func TestHandshakeWrongRecipientKey(t *testing.T) {
	initPrv, recPrv, otherPrv := mustKey(t), mustKey(t), mustKey(t)

	h := &handshakeState{initiator: true, remote: recPrv.PubKey()}
	auth, err := h.makeAuthMsg(initPrv)
	if err != nil {
		t.Fatal(err)
	}
	packet, err := h.sealMsg(auth)
	if err != nil {
		t.Fatal(err)
	}

	var rec handshakeState
	_, err = rec.runRecipient(readWriter{bytes.NewReader(packet), io.Discard}, otherPrv)
	if !errors.Is(err, ErrTagCheckFailed) {
		t.Fatalf("got %v, want ErrTagCheckFailed", err)
	}
}

func TestHandshakeOversizedMessage(t *testing.T) {
	recPrv := mustKey(t)
	packet := []byte{0x08, 0x01} // declares 2049 bytes

	var rec handshakeState
	_, err := rec.runRecipient(readWriter{bytes.NewReader(packet), io.Discard}, recPrv)
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("got %v, want ErrMessageTooLarge", err)
	}
}

// An auth payload carrying extra trailing fields must still parse; the
// unknown fields land in Rest.
func TestAuthPayloadTrailingFields(t *testing.T) {
	type extendedAuth struct {
		Signature       [sigLen]byte
		InitiatorPubkey [pubLen]byte
		Nonce           [nonceLen]byte
		Version         uint
		FutureFlag      uint
		FutureBlob      []byte
	}
	in := extendedAuth{Version: ProtocolVersion, FutureFlag: 7, FutureBlob: []byte("later")}
	encoded, err := rlp.EncodeToBytes(&in)
	if err != nil {
		t.Fatal(err)
	}

	var msg authMsg
	if err := decodePayload(encoded, &msg); err != nil {
		t.Fatalf("extended payload rejected: %v", err)
	}
	if msg.Version != ProtocolVersion {
		t.Fatalf("version %d, want %d", msg.Version, ProtocolVersion)
	}
	if len(msg.Rest) != 2 {
		t.Fatalf("trailing field count %d, want 2", len(msg.Rest))
	}
}

func TestAuthPayloadUndersized(t *testing.T) {
	type truncatedAuth struct {
		Signature       [sigLen]byte
		InitiatorPubkey [pubLen]byte
	}
	encoded, err := rlp.EncodeToBytes(&truncatedAuth{})
	if err != nil {
		t.Fatal(err)
	}
	var msg authMsg
	if err := decodePayload(encoded, &msg); err == nil {
		t.Fatal("undersized payload parsed")
	}
}

// Sealed undersized payloads must surface as ErrInvalidAuthData through the
// recipient path.
func TestHandshakeUndersizedAuth(t *testing.T) {
	recPrv := mustKey(t)

	type truncatedAuth struct {
		Signature [sigLen]byte
		Nonce     [nonceLen]byte
	}
	h := &handshakeState{remote: recPrv.PubKey()}
	packet, err := h.sealMsg(&truncatedAuth{})
	if err != nil {
		t.Fatal(err)
	}

	var rec handshakeState
	_, err = rec.runRecipient(readWriter{bytes.NewReader(packet), io.Discard}, recPrv)
	if !errors.Is(err, ErrInvalidAuthData) {
		t.Fatalf("got %v, want ErrInvalidAuthData", err)
	}
}

// Padding in sealed handshake messages is randomized, so two seals of the
// same payload differ in length across attempts.
func TestSealMsgPadding(t *testing.T) {
	recPrv := mustKey(t)
	h := &handshakeState{remote: recPrv.PubKey()}

	msg := &authAck{Version: ProtocolVersion}
	sizes := make(map[int]bool)
	for i := 0; i < 32; i++ {
		packet, err := h.sealMsg(msg)
		if err != nil {
			t.Fatal(err)
		}
		if len(packet) > maxHandshakeMsg {
			t.Fatalf("sealed message %d bytes exceeds cap", len(packet))
		}
		sizes[len(packet)] = true
	}
	if len(sizes) < 2 {
		t.Fatal("padding does not vary across seals")
	}
}

func TestSignRecoverableRoundTrip(t *testing.T) {
	prv := mustKey(t)
	digest := bytes.Repeat([]byte{0x5A}, 32)
	sig := signRecoverable(prv, digest)
	if len(sig) != sigLen {
		t.Fatalf("signature length %d, want %d", len(sig), sigLen)
	}
	if v := sig[sigLen-1]; v > 3 {
		t.Fatalf("recovery code %d out of range", v)
	}
	pub, err := recoverPubkey(sig, digest)
	if err != nil {
		t.Fatal(err)
	}
	if !pub.IsEqual(prv.PubKey()) {
		t.Fatal("recovered key does not match signer")
	}
}

func TestImportExportPubkey(t *testing.T) {
	prv := mustKey(t)
	raw := ExportPubkey(prv.PubKey())
	if len(raw) != pubLen {
		t.Fatalf("exported length %d, want %d", len(raw), pubLen)
	}
	got, err := ImportPubkey(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsEqual(prv.PubKey()) {
		t.Fatal("round-tripped key differs")
	}
	if _, err := ImportPubkey(raw[:pubLen-1]); err == nil {
		t.Fatal("truncated key imported")
	}
	if _, err := ImportPubkey(make([]byte, pubLen)); err == nil {
		t.Fatal("all-zero key imported")
	}
}
