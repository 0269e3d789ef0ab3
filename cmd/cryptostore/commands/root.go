package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"cryptostore/internal/app"
	"cryptostore/internal/domain/types"
	"cryptostore/internal/store"
	"cryptostore/internal/util/memzero"
)

// passphraseEnv is read when --passphrase is not given.
const passphraseEnv = "CRYPTOSTORE_PASSPHRASE"

var (
	cfg        app.Config
	storeName  string
	passphrase string
	keyFile    string
	wire       *app.Wire
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if wire != nil {
		wire.Close()
		wire = nil
	}
	if err != nil {
		printError(errOut, err)
	}
	return exitCode(err)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cryptostore",
		Short:         "Manage end-to-end encryption key stores",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			w, err := app.NewWire(cfg)
			if err != nil {
				return err
			}
			wire = w
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.ConfigFile, "config", "", "settings file (default ~/.cryptostore/config.yaml)")
	flags.StringVar(&cfg.Root, "root", "", "store directory (overrides the settings file)")
	flags.BoolVar(&cfg.AllowInsecure, "allow-insecure", false, "allow creating unencrypted stores")
	flags.StringVar(&cfg.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVarP(&storeName, "store", "s", "", "store name; empty selects a memory store")
	flags.StringVarP(&passphrase, "passphrase", "p", "", "store passphrase (or $"+passphraseEnv+")")
	flags.StringVar(&keyFile, "key-file", "", "file holding a hex-encoded 32-byte store key")

	root.AddCommand(
		initCmd(),
		exportSecretsCmd(),
		importSecretsCmd(),
		inspectCmd(),
		withheldCmd(),
		backupKeyCmd(),
	)
	return root
}

// credentials collects the store credential from flags, environment and key
// file. The caller hands the result to wire.Open, which wipes it.
func credentials() (app.Credentials, error) {
	var cred app.Credentials

	pass := passphrase
	if pass == "" {
		pass = os.Getenv(passphraseEnv)
	}
	if pass != "" {
		cred.Passphrase = []byte(pass)
	}

	if keyFile != "" {
		raw, err := os.ReadFile(keyFile)
		if err != nil {
			cred.Release()
			return app.Credentials{}, types.ConfigurationError("key-file", err.Error())
		}
		defer memzero.Zero(raw)
		text := strings.TrimSpace(string(raw))
		key, err := hex.DecodeString(text)
		if err != nil {
			cred.Release()
			return app.Credentials{}, types.ValidationError("key-file", "key file must hold hex", err)
		}
		cred.Key = key
	}
	return cred, nil
}

// openStore opens the store selected by the global flags.
func openStore(ctx context.Context) (*app.App, error) {
	cred, err := credentials()
	if err != nil {
		return nil, err
	}
	return wire.Open(ctx, storeName, cred)
}

func describe(info store.Info) string {
	if info.Variant == store.VariantMemory {
		return fmt.Sprintf("memory store %s", info.ID)
	}
	return fmt.Sprintf("store %q (%s, id %s)", info.Name, info.Encryption, info.ID)
}
