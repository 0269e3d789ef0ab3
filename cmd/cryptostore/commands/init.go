package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cryptostore/internal/domain/types"
	"cryptostore/internal/store"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a persistent store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if storeName == "" {
				return types.ConfigurationError("init", "a store name is required (--store)")
			}
			ok, err := wire.Opener.Exists(storeName)
			if err != nil {
				return err
			}
			if ok {
				return types.ConfigurationError("init", fmt.Sprintf("store %q already exists", storeName))
			}

			a, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			info := a.Store.Info()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("Created"), describe(info))
			fmt.Fprintf(cmd.OutOrStdout(), "Path: %s\n", info.Path)
			if info.Encryption == store.EncryptionNone {
				fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("warning: this store is not encrypted"))
			}
			return nil
		},
	}
}
