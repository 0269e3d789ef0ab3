package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cryptostore/internal/crypto"
	"cryptostore/internal/domain/types"
	"cryptostore/internal/secrets"
	"cryptostore/internal/store"
)

func importSecretsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-secrets <file|->",
		Short: "Import a secrets bundle into a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer crypto.Wipe(raw)

			var bundle secrets.Bundle
			if err := bundle.UnmarshalJSON(raw); err != nil {
				return err
			}
			defer bundle.Destroy()

			a, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			wroteBackup, err := secrets.Import(cmd.Context(), a.Store, &bundle)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s into %s\n", color.GreenString("Imported"), bundle.String(), describe(a.Store.Info()))
			if wroteBackup {
				bb, _ := bundle.BackupBundle()
				fmt.Fprintf(w, "Backup key for version %s stored\n", bb.BackupVersion)
			}
			return nil
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := store.ReadSecretFile(path)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, types.ConfigurationError("import-secrets", fmt.Sprintf("%s: %v", path, os.ErrNotExist))
	}
	return raw, nil
}
