package cmd

import (
	"github.com/spf13/cobra"

	"github.com/realReloadTime/web-development/internal/api"
	"github.com/realReloadTime/web-development/internal/envelope"
)

func newParticipantsCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:     "participants ROOM",
		Aliases: []string{"members"},
		Short:   "List the members of a room and who is online",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			a.checkToken(cmd)

			ctx := cmd.Context()
			roster, err := api.LoadRoster(ctx, client, args[0])
			if err != nil {
				return err
			}
			online := make(map[envelope.ID]bool)
			users, err := client.OnlineUsers(ctx, args[0])
			if err != nil {
				a.logger.Warn("online users unavailable", "room", args[0], "error", err)
			}
			for _, u := range users {
				online[u.UserID] = true
			}

			if format == "json" {
				type row struct {
					api.Participant
					DisplayName string `json:"display_name"`
					Online      bool   `json:"online"`
				}
				rows := make([]row, 0)
				for _, p := range roster.Participants() {
					rows = append(rows, row{Participant: p, DisplayName: roster.DisplayName(p.UserID), Online: online[p.UserID]})
				}
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			renderParticipants(cmd.OutOrStdout(), roster, online)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table|json)")
	return cmd
}
