package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frahmantamala/gearguard/internal/board"
	"github.com/frahmantamala/gearguard/internal/board/restclient"
	"github.com/frahmantamala/gearguard/internal/request"
	"github.com/frahmantamala/gearguard/pkg/logger"
)

// board flags fall back to GEARGUARD_* environment variables.
var boardEnv = viper.New()

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Terminal kanban board",
	Long:  `Show and move maintenance requests on the kanban board of a running server.`,
}

var boardListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the board",
	RunE: func(cmd *cobra.Command, _ []string) error {
		syncer, _, err := connectBoard(cmd.Context())
		if err != nil {
			return err
		}
		printBoard(syncer)
		return nil
	},
}

var boardMoveCmd = &cobra.Command{
	Use:   "move <request-id> <status>",
	Short: "Move a request to another column",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("request id %q is not a number", args[0])
		}
		status, ok := request.ParseStatus(args[1])
		if !ok {
			return fmt.Errorf("unknown status %q", args[1])
		}

		syncer, _, err := connectBoard(cmd.Context())
		if err != nil {
			return err
		}
		if err := syncer.Move(cmd.Context(), id, status); err != nil {
			printBoard(syncer)
			return fmt.Errorf("move #%d to %s: %w", id, status, err)
		}
		printBoard(syncer)
		return nil
	},
}

var boardWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Redraw the board whenever it changes on the server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		redraw := make(chan struct{}, 1)
		syncer, client, err := connectBoard(ctx, board.WithOnChange(func([]request.Request) {
			select {
			case redraw <- struct{}{}:
			default:
			}
		}))
		if err != nil {
			return err
		}

		wsURL, err := client.WebSocketURL()
		if err != nil {
			return err
		}

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-redraw:
					fmt.Print("\033[H\033[2J")
					printBoard(syncer)
				}
			}
		}()

		if err := syncer.Watch(ctx, wsURL); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

// connectBoard logs in (or reuses a token) and loads the board.
func connectBoard(ctx context.Context, opts ...board.Option) (*board.Synchronizer, *restclient.Client, error) {
	lg := logger.LoggerWrapper()
	client := restclient.NewClient(restclient.Config{
		BaseURL: strings.TrimRight(boardEnv.GetString("server"), "/") + "/api/v1",
		Token:   boardEnv.GetString("token"),
	}, lg)

	if client.Token() == "" {
		email, password := boardEnv.GetString("email"), boardEnv.GetString("password")
		if email == "" || password == "" {
			return nil, nil, errors.New("set --token, or --email and --password")
		}
		if _, err := client.Login(ctx, email, password); err != nil {
			return nil, nil, fmt.Errorf("login: %w", err)
		}
	}

	syncer := board.NewSynchronizer(client, lg, opts...)
	if err := syncer.Refresh(ctx); err != nil {
		return nil, nil, fmt.Errorf("load board: %w", err)
	}
	return syncer, client, nil
}

func printBoard(syncer *board.Synchronizer) {
	width := boardEnv.GetInt("width")
	if width <= 0 {
		width = 120
	}
	fmt.Fprintln(os.Stdout, board.Render(syncer.Board(), width))
}

func init() {
	flags := boardCmd.PersistentFlags()
	flags.String("server", "http://localhost:8080", "GearGuard server base URL")
	flags.String("token", "", "access token; skips login")
	flags.String("email", "", "login email")
	flags.String("password", "", "login password")
	flags.Int("width", 120, "terminal width for rendering")

	boardEnv.SetEnvPrefix("GEARGUARD")
	boardEnv.AutomaticEnv()
	for _, name := range []string{"server", "token", "email", "password", "width"} {
		_ = boardEnv.BindPFlag(name, flags.Lookup(name))
	}

	boardCmd.AddCommand(boardListCmd, boardMoveCmd, boardWatchCmd)
	rootCmd.AddCommand(boardCmd)
}
