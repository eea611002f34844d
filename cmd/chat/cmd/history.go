package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/realReloadTime/web-development/internal/api"
	"github.com/realReloadTime/web-development/internal/envelope"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit  int
		offset int
		format string
	)
	cmd := &cobra.Command{
		Use:   "history ROOM",
		Short: "Print stored messages of a room",
		Example: `  chat history 5
  chat history 5 --limit 20 --offset 40 -f json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			if offset < 0 {
				return fmt.Errorf("--offset must not be negative, got %d", offset)
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			a.checkToken(cmd)

			ctx := cmd.Context()
			msgs, err := client.Messages(ctx, args[0], limit, offset)
			if err != nil {
				return err
			}
			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), msgs)
			}

			roster, err := api.LoadRoster(ctx, client, args[0])
			if err != nil {
				a.logger.Warn("room members unavailable, showing raw user ids", "room", args[0], "error", err)
				roster = api.NewRoster(nil, nil)
			}
			view := newChatView(cmd.OutOrStdout(), roster, envelope.ID(a.cfg.UserID))
			if len(msgs) == 0 {
				view.notice("no messages")
				return nil
			}
			view.messages(msgs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of messages")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of messages to skip")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table|json)")
	return cmd
}
