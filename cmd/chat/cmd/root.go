package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/realReloadTime/web-development/internal/api"
	"github.com/realReloadTime/web-development/internal/config"
	"github.com/realReloadTime/web-development/internal/logging"
)

// app carries the state shared by all subcommands.
type app struct {
	envFile  string
	apiURL   string
	tokenArg string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "chat",
		Short: "Terminal client for the chat service",
		Long: `chat is a terminal client for the chat service.

It joins a room over a websocket, keeps the connection alive across
server restarts and network drops, and prints messages, presence and
typing activity as they happen.

Available commands:
  join           Join a room and chat interactively
  rooms          List your rooms
  participants   List the members of a room
  history        Print stored messages of a room
  unread         Show unread message counts

Configuration is read from the environment (CHAT_*), optionally seeded
from a .env file.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "Read configuration from this file instead of .env")
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "Chat API base URL (overrides CHAT_API_URL)")
	root.PersistentFlags().StringVar(&a.tokenArg, "token", "", "Access token (overrides CHAT_TOKEN)")

	root.AddCommand(
		newJoinCmd(a),
		newRoomsCmd(a),
		newParticipantsCmd(a),
		newHistoryCmd(a),
		newUnreadCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	var files []string
	if a.envFile != "" {
		files = append(files, a.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.tokenArg != "" {
		cfg.Token = a.tokenArg
	}

	a.cfg = cfg
	a.logger = logging.New(cfg.LogFormat, cfg.LogLevel, cmd.ErrOrStderr())
	return nil
}

func (a *app) client() (*api.Client, error) {
	return api.NewClient(a.cfg.APIURL,
		api.WithToken(a.cfg.Token),
		api.WithTimeout(a.cfg.HTTPTimeout),
		api.WithLogger(a.logger),
	)
}

// checkToken warns about a token that is unreadable or already expired; the
// server has the final say, so neither stops the command.
func (a *app) checkToken(cmd *cobra.Command) {
	if a.cfg.Token == "" {
		return
	}
	info, err := api.InspectToken(a.cfg.Token)
	if err != nil {
		a.logger.Debug("access token is not a readable JWT", "error", err)
		return
	}
	if info.Expired(timeNow()) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: access token for %s expired at %s\n",
			info.Subject, info.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
}
