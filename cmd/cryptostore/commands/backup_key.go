package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cryptostore/internal/crypto"
	"cryptostore/internal/secrets"
)

func backupKeyCmd() *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "backup-key",
		Short: "Generate and store a new backup decryption key",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			priv, err := crypto.GenerateBackupKey()
			if err != nil {
				return err
			}
			defer crypto.Wipe(priv)

			bb := secrets.BackupSecretsBundle{Key: crypto.EncodeBase64(priv), BackupVersion: version}
			pub, err := bb.PublicKey()
			if err != nil {
				return err
			}
			if err := secrets.StoreBackupKey(cmd.Context(), a.Store, bb); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s backup key for version %s\n", color.GreenString("Stored"), version)
			fmt.Fprintf(w, "Public key:  %s\n", pub)
			fmt.Fprintf(w, "Fingerprint: %s\n", crypto.Fingerprint(pub.Slice()))
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", "1", "backup version the key belongs to")
	return cmd
}
