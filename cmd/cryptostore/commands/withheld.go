package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cryptostore/internal/domain"
	"cryptostore/internal/domain/types"
)

func withheldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withheld",
		Short: "List or record withheld room key notices",
	}
	cmd.AddCommand(withheldListCmd(), withheldAddCmd())
	return cmd
}

func withheldListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <room-id>",
		Short: "List the sessions of a room whose keys were withheld",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			notices, err := a.RoomKeys.ListWithheld(cmd.Context(), domain.RoomID(args[0]))
			if err != nil {
				return err
			}
			if len(notices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No withheld sessions.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SESSION\tSENDER\tCODE\tALGORITHM")
			for _, n := range notices {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.SessionID(), n.Sender(), n.WithheldCode(), n.Algorithm())
			}
			return tw.Flush()
		},
	}
}

func withheldAddCmd() *cobra.Command {
	var room, session, sender, code, algorithm string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a received withheld notice",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			info := types.NewRoomKeyWithheldInfo(
				domain.UserID(sender),
				domain.EncryptionAlgorithm(algorithm),
				domain.WithheldCode(code),
				domain.RoomID(room),
				session,
			)
			if err := a.RoomKeys.RecordWithheld(cmd.Context(), info); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s session %s in %s (%s)\n", color.GreenString("Recorded"), session, room, code)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&room, "room", "", "room id")
	f.StringVar(&session, "session", "", "session id")
	f.StringVar(&sender, "sender", "", "user id of the sender of the notice")
	f.StringVar(&code, "code", string(types.WithheldUnverified), "withheld code")
	f.StringVar(&algorithm, "algorithm", string(types.AlgorithmMegolmV1), "session algorithm")
	return cmd
}
