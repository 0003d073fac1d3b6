package cli

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gabapcia/movewatch/internal/moveschema"
	"github.com/gabapcia/movewatch/internal/movevalue"

	"github.com/urfave/cli/v3"
)

// decodePayloadCommand returns a CLI command that decodes one Move event
// payload against the module registry and prints the rendered value as JSON.
//
// Usage example:
//
//	movewatch decode --type "0x2::coin::Coin<u64>" --contents 2a00000000000000
func decodePayloadCommand(resolver moveschema.ModuleResolver) *cli.Command {
	return &cli.Command{
		Name:        "decode",
		Description: "Decode a Move event payload into structured JSON using the module registry.",
		Usage:       "Decodes a hex payload against its declared struct type. Must provide both type and contents.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "type",
				Usage:    "Struct type of the payload (e.g., 0x2::coin::Coin<u64>)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "contents",
				Usage:    "Payload bytes as a hex string, with or without the 0x prefix",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "include-types",
				Usage: "Annotate every struct in the output with its type",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			tag, err := moveschema.ParseStructTag(c.String("type"))
			if err != nil {
				return err
			}

			contents, err := hex.DecodeString(strings.TrimPrefix(c.String("contents"), "0x"))
			if err != nil {
				return fmt.Errorf("invalid contents hex: %w", err)
			}

			format := moveschema.Format{IncludeTypes: c.Bool("include-types")}
			value, err := movevalue.DecodeWithResolver(ctx, contents, tag, format, resolver)
			if err != nil {
				return err
			}

			rendered, err := json.MarshalIndent(value.Render(), "", "  ")
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(c.Root().Writer, string(rendered))
			return err
		},
	}
}
