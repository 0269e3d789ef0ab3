package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cryptostore/internal/crypto"
	"cryptostore/internal/secrets"
	"cryptostore/internal/store"
)

func exportSecretsCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-secrets",
		Short: "Write the secrets bundle of a store as JSON",
		Long: "Export the cross-signing seeds and backup decryption key needed to\n" +
			"activate another device. The output is plaintext key material.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			bundle, err := secrets.Export(cmd.Context(), a.Store)
			if errors.Is(err, secrets.ErrMissingCrossSigningKey) {
				return fmt.Errorf("%s holds no cross-signing keys: %w", describe(a.Store.Info()), err)
			}
			if err != nil {
				return err
			}
			defer bundle.Destroy()

			raw, err := bundle.MarshalJSON()
			if err != nil {
				return err
			}
			defer crypto.Wipe(raw)

			if out == "" || out == "-" {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", raw)
				return err
			}
			if err := store.WriteSecretFile(out, raw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.GreenString("Secrets written to"), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
