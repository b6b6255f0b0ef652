// Command cipherwire-harness runs a loopback encrypted channel: a recipient
// listener and an initiator dialer in one process, exchanging echo messages.
// It is the quickest way to verify an installation and to eyeball handshake
// latency and frame throughput, optionally exporting Prometheus metrics.
package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/cipherwire/cipherwire-go/cwerrors"
	"github.com/cipherwire/cipherwire-go/internal/cmdutil"
	"github.com/cipherwire/cipherwire-go/internal/contextutil"
	"github.com/cipherwire/cipherwire-go/internal/defaults"
	cwversion "github.com/cipherwire/cipherwire-go/internal/version"
	"github.com/cipherwire/cipherwire-go/observability"
	"github.com/cipherwire/cipherwire-go/observability/prom"
	"github.com/cipherwire/cipherwire-go/wire"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/sirupsen/logrus"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	codeEcho     uint64 = 0x01
	codeShutdown uint64 = 0x02
)

type report struct {
	Messages     int    `json:"messages"`
	PayloadBytes int    `json:"payload_bytes"`
	ElapsedMs    int64  `json:"elapsed_ms"`
	Peer         string `json:"peer"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	showVersion := false

	listenAddr := cmdutil.EnvString("CW_HARNESS_LISTEN", "127.0.0.1:0")
	metricsAddr := cmdutil.EnvString("CW_HARNESS_METRICS_ADDR", "")
	messages, err := cmdutil.EnvInt("CW_HARNESS_MESSAGES", 16)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	payloadSize, err := cmdutil.EnvInt("CW_HARNESS_PAYLOAD_SIZE", 1024)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	hsTimeout, err := cmdutil.EnvDuration("CW_HARNESS_HANDSHAKE_TIMEOUT", defaults.HandshakeTimeout)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	fs := flag.NewFlagSet("cipherwire-harness", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.StringVar(&listenAddr, "listen", listenAddr, "loopback listen address (env: CW_HARNESS_LISTEN)")
	fs.StringVar(&metricsAddr, "metrics-addr", metricsAddr, "serve Prometheus metrics on this address (env: CW_HARNESS_METRICS_ADDR)")
	fs.IntVar(&messages, "messages", messages, "number of echo round trips (env: CW_HARNESS_MESSAGES)")
	fs.IntVar(&payloadSize, "payload-size", payloadSize, "payload bytes per message (env: CW_HARNESS_PAYLOAD_SIZE)")
	fs.DurationVar(&hsTimeout, "handshake-timeout", hsTimeout, "handshake timeout (env: CW_HARNESS_HANDSHAKE_TIMEOUT)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if showVersion {
		_, _ = fmt.Fprintln(stdout, cwversion.String(version, commit, date))
		return 0
	}
	if messages <= 0 || payloadSize < 0 {
		fmt.Fprintln(stderr, "messages must be positive and payload-size non-negative")
		return 2
	}

	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	obs := observability.NoopChannelObserver
	if metricsAddr != "" {
		reg := prom.NewRegistry()
		obs = prom.NewChannelObserver(reg)
		go func() {
			log.WithField("addr", metricsAddr).Info("serving metrics")
			if err := http.ListenAndServe(metricsAddr, prom.Handler(reg)); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	serverKey, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		log.WithError(err).Error("generate server key")
		return 1
	}
	clientKey, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		log.WithError(err).Error("generate client key")
		return 1
	}

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		log.WithError(err).Error("listen")
		return 1
	}
	defer ln.Close()
	log.WithField("addr", ln.Addr().String()).Info("listening")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- echoServer(ln, serverKey, hsTimeout, obs)
	}()

	rep, err := runClient(ln.Addr().String(), clientKey, serverKey.PubKey(), messages, payloadSize, hsTimeout, obs, log)
	if err != nil {
		log.WithError(err).Error("client failed")
		return 1
	}
	if err := <-serverErr; err != nil {
		log.WithError(err).Error("server failed")
		return 1
	}
	_ = cmdutil.WriteJSON(stdout, rep)
	return 0
}

func echoServer(ln net.Listener, key *secp256k1.PrivateKey, hsTimeout time.Duration, obs observability.ChannelObserver) error {
	raw, err := ln.Accept()
	if err != nil {
		return err
	}
	conn := wire.NewConn(raw, nil)
	conn.SetObserver(obs)
	defer conn.Close()

	ctx, cancel := contextutil.WithTimeout(context.Background(), hsTimeout)
	defer cancel()
	if _, err := conn.Handshake(ctx, key); err != nil {
		return cwerrors.Wrap(cwerrors.RoleRecipient, cwerrors.StageHandshake, cwerrors.ClassifyHandshake(err), err)
	}

	for {
		code, data, err := conn.ReadMsg()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if code == codeShutdown {
			return nil
		}
		if err := conn.WriteMsg(code, data); err != nil {
			return err
		}
	}
}

func runClient(addr string, key *secp256k1.PrivateKey, serverPub *secp256k1.PublicKey, messages, payloadSize int, hsTimeout time.Duration, obs observability.ChannelObserver, log *logrus.Logger) (*report, error) {
	raw, err := net.DialTimeout("tcp", addr, defaults.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	conn := wire.NewConn(raw, serverPub)
	conn.SetObserver(obs)
	defer conn.Close()

	ctx, cancel := contextutil.WithTimeout(context.Background(), hsTimeout)
	defer cancel()
	peer, err := conn.Handshake(ctx, key)
	if err != nil {
		return nil, cwerrors.Wrap(cwerrors.RoleInitiator, cwerrors.StageHandshake, cwerrors.ClassifyHandshake(err), err)
	}
	peerHex := hex.EncodeToString(wire.ExportPubkey(peer))
	log.WithField("peer", peerHex[:16]).Info("channel established")

	payload := bytes.Repeat([]byte{0xA5}, payloadSize)
	start := time.Now()
	for i := 0; i < messages; i++ {
		if err := conn.WriteMsg(codeEcho, payload); err != nil {
			return nil, err
		}
		code, data, err := conn.ReadMsg()
		if err != nil {
			return nil, err
		}
		if code != codeEcho || !bytes.Equal(data, payload) {
			return nil, errors.New("echo mismatch")
		}
	}
	elapsed := time.Since(start)
	log.WithFields(logrus.Fields{
		"messages":      messages,
		"payload_bytes": payloadSize,
		"elapsed":       elapsed.String(),
	}).Info("echo round trips complete")

	if err := conn.WriteMsg(codeShutdown, nil); err != nil {
		return nil, err
	}
	return &report{
		Messages:     messages,
		PayloadBytes: payloadSize,
		ElapsedMs:    elapsed.Milliseconds(),
		Peer:         peerHex,
	}, nil
}
