package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/bibbank/skills/internal/application/dto"
	"github.com/bibbank/skills/internal/domain/record"
	"github.com/bibbank/skills/internal/domain/refdata"
	"github.com/bibbank/skills/internal/domain/result"
	"github.com/bibbank/skills/internal/domain/service"
)

func (a *app) listCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "list",
		Usage: "List the skill catalog",
		Action: func(_ context.Context, _ *urfave.Command) error {
			descriptors := a.catalog.Descriptors()
			out := make([]dto.SkillSummary, 0, len(descriptors))
			for _, d := range descriptors {
				out = append(out, dto.SummaryFromDescriptor(d))
			}
			return a.encode(out)
		},
	}
}

func (a *app) describeCmd() *urfave.Command {
	return &urfave.Command{
		Name:      "describe",
		Usage:     "Show a skill's inputs, outputs and reference tables",
		ArgsUsage: "<skill>",
		Action: func(_ context.Context, cmd *urfave.Command) error {
			s, err := a.catalog.Get(cmd.Args().First())
			if err != nil {
				return err
			}
			return a.encode(dto.DescriptionFromDescriptor(s.Descriptor()))
		},
	}
}

func (a *app) evalCmd() *urfave.Command {
	return &urfave.Command{
		Name:      "eval",
		Usage:     "Evaluate a skill against one input object",
		ArgsUsage: "<skill>",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:    inputFlag,
				Aliases: []string{"i"},
				Usage:   "Path to the JSON input object, - for stdin",
				Value:   "-",
			},
			&urfave.StringFlag{
				Name:  tablesDirFlag,
				Usage: "Directory of <skill>/<table> files overriding the shipped tables (optional)",
			},
		},
		Action: func(ctx context.Context, cmd *urfave.Command) error {
			s, err := a.catalog.Get(cmd.Args().First())
			if err != nil {
				return err
			}

			in, err := readInput(cmd.String(inputFlag), a.in)
			if err != nil {
				return err
			}

			var source refdata.Source = a.catalog.EmbeddedTables()
			if dir := cmd.String(tablesDirFlag); dir != "" {
				source = refdata.FallbackSource{refdata.NewDirSource(os.DirFS(dir)), source}
				a.logger.Debug("reading reference tables", "dir", dir)
			}

			outcome, err := service.NewCalculator(refdata.NewLoader(source)).Evaluate(ctx, s, in)
			if err != nil {
				return err
			}
			for _, alert := range outcome.Alerts {
				a.logger.Warn("alert", "skill", s.Descriptor().Name, "alert", alert)
			}
			if a.format == formatYAML {
				return a.encode(orderedNode(outcome.Output))
			}
			return a.encode(outcome.Output)
		},
	}
}

func readInput(name string, stdin io.Reader) (record.Record, error) {
	if name == "-" {
		return record.FromJSON(stdin)
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return record.FromJSON(bytes.NewReader(b))
}

// orderedNode renders a result as a YAML mapping in declared field order.
func orderedNode(r result.Record) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range r.Fields() {
		var v yaml.Node
		if err := v.Encode(e.Value); err != nil {
			v = yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprint(e.Value)}
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: e.Name}, &v)
	}
	return n
}
