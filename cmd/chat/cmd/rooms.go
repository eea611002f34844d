package cmd

import (
	"github.com/spf13/cobra"
)

func newRoomsCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List your rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			a.checkToken(cmd)

			rooms, err := client.Rooms(cmd.Context())
			if err != nil {
				return err
			}
			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), rooms)
			}
			renderRooms(cmd.OutOrStdout(), rooms)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table|json)")
	return cmd
}
