package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gabapcia/movewatch/internal/moveschema"

	"github.com/urfave/cli/v3"
)

// publishModuleCommand returns a CLI command that registers a Move module
// definition in the registry, making its structs resolvable by decoders.
//
// Usage example:
//
//	movewatch publish --file ./coin.module.json
func publishModuleCommand(publisher ModulePublisher) *cli.Command {
	return &cli.Command{
		Name:        "publish",
		Description: "Register a module definition in the registry so its event payloads can be decoded.",
		Usage:       "Publishes a JSON module definition file. Must provide the file path.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "Path to the module definition JSON file",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			data, err := os.ReadFile(c.String("file"))
			if err != nil {
				return err
			}

			var module moveschema.ModuleDefinition
			if err := json.Unmarshal(data, &module); err != nil {
				return fmt.Errorf("invalid module definition: %w", err)
			}

			return publisher.PublishModule(ctx, &module)
		},
	}
}
