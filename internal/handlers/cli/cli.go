package cli

import (
	"context"
	"os"

	"github.com/gabapcia/movewatch/internal/eventfeed"
	"github.com/gabapcia/movewatch/internal/moveschema"

	"github.com/urfave/cli/v3"
)

// ModulePublisher registers Move module definitions so that payload decoding
// can later resolve them.
type ModulePublisher interface {
	PublishModule(ctx context.Context, module *moveschema.ModuleDefinition) error
}

// Run initializes and executes the movewatch CLI application.
//
// It registers all available commands, including:
//
//   - `decode`: Decodes one Move event payload against the module registry.
//   - `publish`: Registers a module definition in the registry.
//   - `feed`: Runs the event decoration pipeline until interrupted.
//
// Parameters:
//   - ctx: Context used to control the lifecycle of the CLI application.
//   - resolver: The module resolver used by the decode command.
//   - publisher: The registry writer used by the publish command.
//   - feed: The decoration pipeline used by the feed command.
//
// This function sets up shell completion and invokes the CLI framework to parse and run commands.
func Run(ctx context.Context, resolver moveschema.ModuleResolver, publisher ModulePublisher, feed eventfeed.Service) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "movewatch",
		Description:           "Command-line interface for decoding Move events and managing the module registry.",
		Usage:                 "movewatch [command] [flags]",
		Commands: []*cli.Command{
			decodePayloadCommand(resolver),
			publishModuleCommand(publisher),
			startFeedCommand(feed),
		},
	}

	return app.Run(ctx, os.Args)
}
