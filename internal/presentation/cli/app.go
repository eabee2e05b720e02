// Package cli is the skillctl command line: catalog browsing, one-shot
// evaluation and reference data provisioning.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/bibbank/skills/internal/domain/skill"
	"github.com/bibbank/skills/internal/domain/skillerr"
	"github.com/bibbank/skills/internal/skills"
	"github.com/bibbank/skills/pkg/observability"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// Exit codes by error kind.
const (
	exitOK = iota
	exitError
	exitValidation
	exitRange
	exitDataNotFound
)

var (
	version = "v0.0.1-default"
	commit  = ""
)

// Flag names. The flags are built per run because they hold parsed values.
const (
	debugFlag       = "debug"
	formatFlag      = "format"
	inputFlag       = "input"
	tablesDirFlag   = "tables"
	dirFlag         = "dir"
	fromDirFlag     = "from"
	databaseURLFlag = "database-url"
)

// app carries what every command needs.
type app struct {
	in      io.Reader
	out     io.Writer
	catalog *skill.Catalog
	logger  *slog.Logger
	format  string
}

// Execute runs skillctl with os.Args and returns the process exit code.
func Execute(ctx context.Context) int {
	return Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
}

// Run runs skillctl with the given arguments and streams. Logs go to errOut.
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	catalog, err := skills.Default()
	if err != nil {
		fmt.Fprintf(errOut, "fatal error: %v\n", err)
		return exitError
	}
	a := &app{in: in, out: out, catalog: catalog, format: formatJSON, logger: newLogger(errOut, false)}

	if err := a.command(errOut).Run(ctx, args); err != nil {
		code := exitCode(err)
		a.logger.Error("command failed", "kind", kindOf(err), "error", err)
		return code
	}
	return exitOK
}

func (a *app) command(errOut io.Writer) *urfave.Command {
	return &urfave.Command{
		Name:            "skillctl",
		Version:         fmt.Sprintf("%s (%s)", version, commit),
		Usage:           "Browse and run rule-based skill calculators",
		HideHelpCommand: true,
		Writer:          a.out,
		ErrWriter:       errOut,
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:  debugFlag,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&urfave.StringFlag{
				Name:  formatFlag,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
		},
		Commands: []*urfave.Command{
			a.listCmd(),
			a.describeCmd(),
			a.evalCmd(),
			a.tablesCmd(),
			a.migrateCmd(),
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			if cmd.Bool(debugFlag) {
				a.logger = newLogger(errOut, true)
			}
			switch f := cmd.String(formatFlag); f {
			case formatJSON:
				a.format = formatJSON
			case formatYAML, "yml":
				a.format = formatYAML
			default:
				return ctx, fmt.Errorf("unsupported format %q", f)
			}
			return ctx, nil
		},
		ExitErrHandler: func(context.Context, *urfave.Command, error) {},
	}
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := "info"
	if debug {
		level = "debug"
	}
	return observability.InitLogger(observability.LogConfig{
		Level:   level,
		Format:  "text",
		Service: "skillctl",
		Output:  w,
	})
}

func (a *app) encode(v any) error {
	if a.format == formatYAML {
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	e := json.NewEncoder(a.out)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

func kindOf(err error) string {
	if k := skillerr.Kind(err); k != "" {
		return k
	}
	if errors.Is(err, skill.ErrSkillNotFound) {
		return "not_found"
	}
	return "error"
}

func exitCode(err error) int {
	switch skillerr.Kind(err) {
	case "validation":
		return exitValidation
	case "range":
		return exitRange
	case "data_not_found":
		return exitDataNotFound
	}
	return exitError
}
