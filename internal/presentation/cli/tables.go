package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	urfave "github.com/urfave/cli/v3"

	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/infrastructure/postgres"
	"github.com/bibbank/skills/migrations"
	pgutil "github.com/bibbank/skills/pkg/postgres"
)

const dirMode = 0o755

func newDatabaseURLFlag() *urfave.StringFlag {
	return &urfave.StringFlag{
		Name:     databaseURLFlag,
		Usage:    "PostgreSQL connection URL",
		Sources:  urfave.EnvVars("DATABASE_URL"),
		Required: true,
	}
}

func (a *app) tablesCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "tables",
		Usage: "Manage reference tables",
		Commands: []*urfave.Command{
			{
				Name:      "export",
				Usage:     "Write the shipped tables to a directory",
				ArgsUsage: "[skill]",
				Flags: []urfave.Flag{
					&urfave.StringFlag{
						Name:     dirFlag,
						Usage:    "Target directory, laid out as <skill>/<table>",
						Required: true,
					},
				},
				Action: func(ctx context.Context, cmd *urfave.Command) error {
					n, err := a.exportTables(ctx, cmd.String(dirFlag), cmd.Args().First())
					if err != nil {
						return err
					}
					return a.encode(map[string]any{"exported": n, "dir": cmd.String(dirFlag)})
				},
			},
			{
				Name:  "provision",
				Usage: "Copy reference tables into PostgreSQL",
				Flags: []urfave.Flag{
					newDatabaseURLFlag(),
					&urfave.StringFlag{
						Name:  fromDirFlag,
						Usage: "Directory of <skill>/<table> files to provision instead of the shipped tables (optional)",
					},
				},
				Action: func(ctx context.Context, cmd *urfave.Command) error {
					pool, err := pgutil.NewPool(ctx, pgutil.Config{URL: cmd.String(databaseURLFlag)})
					if err != nil {
						return err
					}
					defer pool.Close()

					var src refdata.Source = a.catalog.EmbeddedTables()
					if dir := cmd.String(fromDirFlag); dir != "" {
						src = refdata.NewDirSource(os.DirFS(dir))
					}
					n, err := postgres.ProvisionAll(ctx, pool, src, a.tableSchemas(""))
					if err != nil {
						return err
					}
					a.logger.Info("reference tables provisioned", "tables", n)
					return a.encode(map[string]any{"provisioned": n})
				},
			},
		},
	}
}

func (a *app) migrateCmd() *urfave.Command {
	run := func(up bool) urfave.ActionFunc {
		return func(_ context.Context, cmd *urfave.Command) error {
			dsn := cmd.String(databaseURLFlag)
			if up {
				return pgutil.RunMigrations(dsn, migrations.FS)
			}
			return pgutil.RunMigrationsDown(dsn, migrations.FS)
		}
	}
	return &urfave.Command{
		Name:  "migrate",
		Usage: "Apply or roll back the database schema",
		Flags: []urfave.Flag{newDatabaseURLFlag()},
		Commands: []*urfave.Command{
			{Name: "up", Usage: "Apply all migrations", Action: run(true)},
			{Name: "down", Usage: "Roll back all migrations", Action: run(false)},
		},
	}
}

// tableSchemas returns the table schemas per skill, for one skill when name is set.
func (a *app) tableSchemas(name string) map[string][]refdata.TableSchema {
	out := map[string][]refdata.TableSchema{}
	for _, d := range a.catalog.Descriptors() {
		if name == "" || d.Name == name {
			out[d.Name] = d.Tables
		}
	}
	return out
}

func (a *app) exportTables(ctx context.Context, dir, name string) (int, error) {
	if name != "" {
		if _, err := a.catalog.Get(name); err != nil {
			return 0, err
		}
	}
	src := a.catalog.EmbeddedTables()
	n := 0
	for skillName, schemas := range a.tableSchemas(name) {
		target := filepath.Join(dir, skillName)
		if err := os.MkdirAll(target, dirMode); err != nil {
			return n, fmt.Errorf("creating %s: %w", target, err)
		}
		for _, schema := range schemas {
			ref := refdata.TableRef{Skill: skillName, Table: schema.Name, Format: schema.Format}
			b, err := src.Open(ctx, ref)
			if errors.Is(err, refdata.ErrTableNotFound) {
				a.logger.Debug("table not shipped", "skill", skillName, "table", schema.Name)
				continue
			}
			if err != nil {
				return n, err
			}
			if err := os.WriteFile(filepath.Join(target, ref.File()), b, 0o644); err != nil {
				return n, fmt.Errorf("writing %s: %w", ref.File(), err)
			}
			n++
		}
	}
	return n, nil
}
