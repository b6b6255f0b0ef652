package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cipherwire/cipherwire-go/internal/cmdutil"
	"github.com/cipherwire/cipherwire-go/internal/securefile"
	cwversion "github.com/cipherwire/cipherwire-go/internal/version"
	"github.com/cipherwire/cipherwire-go/wire"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type readyRecord struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	KeyFile   string `json:"key_file"`
	PublicKey string `json:"public_key"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	showVersion := false

	outDir := cmdutil.EnvString("CW_KEYGEN_OUT_DIR", ".")
	keyFile := cmdutil.EnvString("CW_KEYGEN_KEY_FILE", "")
	var overwrite bool

	fs := flag.NewFlagSet("cipherwire-keygen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.StringVar(&outDir, "out-dir", outDir, "output directory for generated files (env: CW_KEYGEN_OUT_DIR)")
	fs.StringVar(&keyFile, "key-file", keyFile, "output file for the identity private key (default: <out-dir>/identity_key.hex) (env: CW_KEYGEN_KEY_FILE)")
	fs.BoolVar(&overwrite, "overwrite", false, "overwrite existing files")
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

	if outDir == "" {
		outDir = "."
	}
	if err := securefile.MkdirAllOwnerOnly(outDir); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if keyFile == "" {
		keyFile = filepath.Join(outDir, "identity_key.hex")
	} else if !filepath.IsAbs(keyFile) {
		keyFile = filepath.Join(outDir, keyFile)
	}
	if err := cmdutil.RefuseOverwrite(keyFile, overwrite); err != nil {
		fmt.Fprintln(stderr, err)
		if cmdutil.IsUsage(err) {
			return 2
		}
		return 1
	}

	prv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	keyHex := hex.EncodeToString(prv.Serialize()) + "\n"
	if err := securefile.WriteFileAtomic(keyFile, []byte(keyHex), 0o600); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	abs, err := filepath.Abs(keyFile)
	if err != nil {
		abs = keyFile
	}
	_ = cmdutil.WriteJSON(stdout, readyRecord{
		Version:   version,
		Commit:    commit,
		Date:      date,
		KeyFile:   abs,
		PublicKey: hex.EncodeToString(wire.ExportPubkey(prv.PubKey())),
	})
	return 0
}
