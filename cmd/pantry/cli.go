package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/pantry/internal/config"
	"github.com/hpungsan/pantry/internal/errors"
	"github.com/hpungsan/pantry/internal/mcp"
	"github.com/hpungsan/pantry/internal/ops"
	"github.com/hpungsan/pantry/internal/pantry"
	"github.com/hpungsan/pantry/internal/score"
	"github.com/hpungsan/pantry/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, logger *zap.Logger) *cli.App {
	app := &cli.App{
		Name:    "pantry",
		Usage:   "Inventory and recipe reconciliation",
		Version: Version,
		Commands: []*cli.Command{
			validateCmd(db),
			proposeCmd(db),
			confirmCmd(db),
			inventoryCmd(db),
			recipesCmd(db, cfg),
			catalogCmd(db),
			evalCmd(),
			serveCmd(db, cfg, logger),
			mcpCmd(db, cfg, logger),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

var userFlag = &cli.StringFlag{
	Name:    "user",
	Aliases: []string{"u"},
	EnvVars: []string{"PANTRY_USER"},
	Usage:   "Owner id",
}

var fileFlag = &cli.StringFlag{
	Name:    "file",
	Aliases: []string{"f"},
	Usage:   "Read the JSON input from this file instead of stdin",
}

// validateCmd creates the validate command.
func validateCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Match ingredient names against the catalog and your unrecognized entries",
		ArgsUsage: "<name>...",
		Flags:     []cli.Flag{userFlag},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("at least one ingredient name is required"))
			}
			output, err := ops.ValidateIngredients(c.Context, db, ops.ValidateInput{
				OwnerID:         c.String("user"),
				IngredientNames: c.Args().Slice(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// proposeCmd creates the propose command.
func proposeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "propose",
		Usage: "Build an inventory proposal from an extraction (JSON via stdin or --file)",
		Flags: []cli.Flag{userFlag, fileFlag},
		Action: func(c *cli.Context) error {
			var ext ops.InventoryExtraction
			if err := readJSONInput(c, &ext); err != nil {
				return outputError(err)
			}
			output, err := ops.BuildProposal(c.Context, db, c.String("user"), ext)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// confirmCmd creates the confirm command.
func confirmCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "confirm",
		Usage: "Apply a confirmed proposal (JSON via stdin or --file)",
		Flags: []cli.Flag{userFlag, fileFlag},
		Action: func(c *cli.Context) error {
			var input ops.ConfirmInput
			if err := readJSONInput(c, &input); err != nil {
				return outputError(err)
			}
			input.OwnerID = c.String("user")
			output, err := ops.ConfirmProposal(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// inventoryCmd creates the inventory command group.
func inventoryCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "inventory",
		Usage: "List and edit inventory",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List inventory entries",
				Flags: []cli.Flag{userFlag},
				Action: func(c *cli.Context) error {
					output, err := ops.ListInventory(c.Context, db, c.String("user"))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
			{
				Name:  "set",
				Usage: "Set one entry to an exact quantity",
				Flags: []cli.Flag{
					userFlag,
					&cli.StringFlag{Name: "catalog-id", Usage: "Catalog ingredient id"},
					&cli.StringFlag{Name: "unrecognized-id", Usage: "Unrecognized entry id"},
					&cli.IntFlag{Name: "quantity", Aliases: []string{"q"}, Required: true, Usage: "Quantity level 0-3"},
					&cli.BoolFlag{Name: "staple", Usage: "Mark as pantry staple (--staple=false clears it)"},
				},
				Action: func(c *cli.Context) error {
					input := ops.SetInventoryInput{
						OwnerID:       c.String("user"),
						Ref:           pantry.Ref{CatalogID: c.String("catalog-id"), FallbackID: c.String("unrecognized-id")},
						QuantityLevel: c.Int("quantity"),
					}
					if c.IsSet("staple") {
						staple := c.Bool("staple")
						input.IsPantryStaple = &staple
					}
					output, err := ops.SetInventory(c.Context, db, input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete one entry",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{userFlag},
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if err := ops.DeleteInventory(c.Context, db, c.String("user"), id); err != nil {
						return outputError(err)
					}
					return outputJSON(c, map[string]any{"deleted": true, "id": id})
				},
			},
			{
				Name:      "resolve",
				Usage:     "Mark an unrecognized entry as promoted to the catalog",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{userFlag},
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if err := ops.MarkResolved(c.Context, db, c.String("user"), id); err != nil {
						return outputError(err)
					}
					return outputJSON(c, map[string]any{"resolved": true, "id": id})
				},
			},
		},
	}
}

// recipesCmd creates the recipes command group.
func recipesCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "recipes",
		Usage: "Apply recipe tool results and read recipes",
		Subcommands: []*cli.Command{
			{
				Name:  "apply",
				Usage: "Persist a JSON array of recipe tool results (stdin or --file)",
				Flags: []cli.Flag{userFlag, fileFlag},
				Action: func(c *cli.Context) error {
					var raw []json.RawMessage
					if err := readJSONInput(c, &raw); err != nil {
						return outputError(err)
					}
					results, err := ops.DecodeToolResults(raw)
					if err != nil {
						return outputError(err)
					}
					output, err := ops.ApplyRecipes(c.Context, db, cfg, ops.ApplyRecipesInput{
						OwnerID: c.String("user"),
						Recipes: results,
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
			{
				Name:  "session",
				Usage: `Apply tool results to an unsaved session ({"session", "recipes"} via stdin or --file)`,
				Flags: []cli.Flag{fileFlag},
				Action: func(c *cli.Context) error {
					var input ops.SessionInput
					if err := readJSONInput(c, &input); err != nil {
						return outputError(err)
					}
					output, err := ops.ApplySession(input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
			{
				Name:  "list",
				Usage: "List recipes with availability",
				Flags: []cli.Flag{userFlag},
				Action: func(c *cli.Context) error {
					output, err := ops.ListRecipes(c.Context, db, c.String("user"))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
			{
				Name:      "get",
				Usage:     "Get one recipe",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{userFlag},
				Action: func(c *cli.Context) error {
					output, err := ops.GetRecipe(c.Context, db, c.String("user"), c.Args().First())
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
		},
	}
}

// catalogCmd creates the catalog command group.
func catalogCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Manage the shared ingredient catalog",
		Subcommands: []*cli.Command{
			{
				Name:      "seed",
				Usage:     "Upsert catalog ingredients from a JSON file",
				ArgsUsage: "<path>",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return outputError(errors.NewInvalidRequest("seed file path is required"))
					}
					seeds, err := ops.LoadCatalogFile(c.Args().First())
					if err != nil {
						return outputError(err)
					}
					output, err := ops.SeedCatalog(c.Context, db, seeds)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
			{
				Name:  "list",
				Usage: "List catalog ingredients",
				Action: func(c *cli.Context) error {
					output, err := ops.ListCatalog(c.Context, db)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(c, output)
				},
			},
		},
	}
}

// evalCmd creates the eval command.
func evalCmd() *cli.Command {
	return &cli.Command{
		Name:      "eval",
		Usage:     "Score extraction output against gold cases",
		ArgsUsage: "<cases.json>",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "threshold", Usage: "Fail unless every mean F1 reaches this value (0 disables)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("cases file path is required"))
			}
			var cases []score.Case
			if err := ops.ReadJSONFile(c.Args().First(), &cases); err != nil {
				return outputError(err)
			}

			report := score.RunCases(cases)
			if err := outputJSON(c, report); err != nil {
				return err
			}
			if threshold := c.Float64("threshold"); threshold > 0 && !report.Passed(threshold) {
				return cli.Exit(fmt.Sprintf("mean F1 below threshold %.2f", threshold), 1)
			}
			return nil
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config, logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the JSON HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Listen address (overrides http_bind)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (overrides http_port)"},
		},
		Action: func(c *cli.Context) error {
			bind, port := cfg.HTTPBind, cfg.HTTPPort
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			if c.IsSet("port") {
				port = c.Int("port")
			}
			return web.Run(web.NewServer(db, cfg, logger, Version, bind, port), logger)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(db *sql.DB, cfg *config.Config, logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			return mcp.Run(db, cfg, logger, Version)
		},
	}
}

// Helper functions

// outputJSON marshals result to the app's writer as JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if pe := errors.As(err); pe != nil {
		return cli.Exit(fmt.Sprintf("[%s] %s", pe.Code, pe.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// readJSONInput decodes the command's JSON input from --file, or from the
// app's reader when no file is given.
func readJSONInput(c *cli.Context, v any) error {
	if path := c.String("file"); path != "" {
		return ops.ReadJSONFile(path, v)
	}

	r := c.App.Reader
	if r == nil || (r == os.Stdin && !stdinHasData()) {
		return errors.NewInvalidRequest("JSON input must be piped via stdin or given with --file")
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid JSON input: %v", err))
	}
	return nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
