package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUnreadCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "unread [ROOM]",
		Short: "Show the number of unread messages, in one room or overall",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			a.checkToken(cmd)

			var roomID string
			if len(args) == 1 {
				roomID = args[0]
			}
			count, err := client.UnreadCount(cmd.Context(), roomID)
			if err != nil {
				return err
			}

			if format == "json" {
				out := struct {
					RoomID string `json:"room_id,omitempty"`
					Unread int    `json:"unread_count"`
				}{roomID, count}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			if roomID == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%d unread across all rooms\n", count)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d unread in room %s\n", count, roomID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table|json)")
	return cmd
}
