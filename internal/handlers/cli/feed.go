package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gabapcia/movewatch/internal/eventfeed"

	"github.com/urfave/cli/v3"
)

// startFeedCommand returns a CLI command that runs the event decoration
// pipeline, printing each decorated envelope as one JSON line.
//
// Usage example:
//
//	movewatch feed
//
// The process runs until the source stream ends or it receives an interrupt
// (SIGINT or SIGTERM).
func startFeedCommand(feed eventfeed.Service) *cli.Command {
	return &cli.Command{
		Name:        "feed",
		Description: "Run the event decoration pipeline, emitting decorated envelopes as JSON lines.",
		Usage:       "Starts the pipeline over the configured event source. Terminates gracefully on Ctrl+C or termination signals.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			defer close(quit)

			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			envelopes, err := feed.Start(ctx)
			if err != nil {
				return err
			}
			defer feed.Close()

			for {
				select {
				case <-quit:
					return nil
				case envelope, ok := <-envelopes:
					if !ok {
						return nil
					}

					line, err := json.Marshal(envelope)
					if err != nil {
						return err
					}

					if _, err := fmt.Fprintln(c.Root().Writer, string(line)); err != nil {
						return err
					}
				}
			}
		},
	}
}
