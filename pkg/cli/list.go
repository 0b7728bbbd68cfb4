package cli

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/bookqa/bookqa/pkg/scenario"
)

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "List the scenarios a run would execute",
	Description: `Print the selected scenarios with their kind and tags.

Examples:
  bookqa list
  bookqa list --kind api --include-tags smoke`,
	Flags: append([]cli.Flag{
		&cli.BoolFlag{
			Name:  "tags",
			Usage: "Print the distinct tags instead of scenarios",
		},
	}, selectionFlags...),
	Action: listScenarios,
}

func listScenarios(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	out := c.App.Writer
	scenarios := selectScenarios(cfg)

	if c.Bool("tags") {
		for _, t := range scenario.Tags(scenarios) {
			fmt.Fprintln(out, t)
		}
		return nil
	}

	for _, s := range scenarios {
		fmt.Fprintf(out, "%-5s %s %s[%s]%s\n",
			s.Kind, s.FullName(), color(colorGray), strings.Join(s.Tags, ","), color(colorReset))
	}
	fmt.Fprintf(out, "\n%d scenario(s)\n", len(scenarios))
	return nil
}
