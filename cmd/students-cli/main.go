// students-cli is a terminal client for the Student Marks API. It offers
// what the browser screen offers: a paginated table, a create/edit form and
// delete with confirmation.
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/students-cli
//
// Commands can also be piped in, e.g. for scripting:
//
//	printf 'set name Ada\nset email ada@x.com\nadd\n' | go run ./cmd/students-cli --config=config/local.yaml
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aanand-mishra/student-marks-api/internal/cli"
	"github.com/aanand-mishra/student-marks-api/internal/client"
	"github.com/aanand-mishra/student-marks-api/internal/config"
	"github.com/aanand-mishra/student-marks-api/internal/logger"
)

func main() {
	cfg := config.MustLoad()

	// Diagnostics go to stderr so they never mix with the table on stdout.
	slog.SetDefault(logger.New(os.Stderr, cfg.Env))
	slog.Debug("students-cli starting",
		slog.String("api", cfg.Client.BaseURL),
		slog.Int("page_size", cfg.Client.PageSize))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := cli.NewTerminal(os.Stdin, os.Stdout, cli.IsInteractive(os.Stdin))
	api := client.NewAPI(cfg.Client.BaseURL, cfg.Client.Timeout)
	ctrl := client.NewController(api, term, term, cfg.Client.PageSize)

	cli.Run(ctx, ctrl, term)
}
