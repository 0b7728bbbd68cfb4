package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/urfave/cli/v2"

	"github.com/bookqa/bookqa/pkg/audit"
	"github.com/bookqa/bookqa/pkg/core"
	"github.com/bookqa/bookqa/pkg/pages"
)

var auditCommand = &cli.Command{
	Name:  "audit",
	Usage: "Check page locators against saved or live HTML",
	Description: `Match every page locator, fallback candidates included, against an HTML
document without starting a browser. CSS candidates are evaluated; XPath
candidates are listed as not evaluated.

Examples:
  bookqa audit --file saved/main.html --page main
  bookqa audit --url https://www.litres.ru/basket/ --page cart --strict`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "file",
			Usage: "Saved HTML file",
		},
		&cli.StringFlag{
			Name:  "url",
			Usage: "Page to fetch",
		},
		&cli.StringSliceFlag{
			Name:  "page",
			Usage: "Only audit these page catalogs (main, search, book, cart)",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the report as JSON",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "Exit with code 1 when a target has no matching candidate",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Fetch timeout for --url",
			Value: 30 * time.Second,
		},
	},
	Action: runAudit,
}

func runAudit(c *cli.Context) error {
	file, url := c.String("file"), c.String("url")
	if (file == "") == (url == "") {
		return fmt.Errorf("exactly one of --file or --url is required")
	}

	catalog, err := selectCatalog(c.StringSlice("page"))
	if err != nil {
		return err
	}

	var doc *goquery.Document
	source := file
	if file != "" {
		f, err := os.Open(file) //#nosec G304 -- user-provided HTML file
		if err != nil {
			return err
		}
		defer f.Close()
		doc, err = audit.Document(f)
		if err != nil {
			return err
		}
	} else {
		source = url
		client := &http.Client{Timeout: c.Duration("timeout")}
		doc, err = audit.Fetch(c.Context, client, url)
		if err != nil {
			return err
		}
	}

	rep := audit.Run(doc, source, catalog)
	out := c.App.Writer
	if c.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(rep); err != nil {
			return err
		}
	} else {
		audit.Format(out, rep)
	}

	if c.Bool("strict") && len(rep.Unresolved()) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

// selectCatalog narrows the page catalog to the named pages.
func selectCatalog(names []string) (map[string][]core.Target, error) {
	all := pages.Catalog()
	if len(names) == 0 {
		return all, nil
	}
	out := make(map[string][]core.Target, len(names))
	for _, n := range names {
		targets, ok := all[n]
		if !ok {
			return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown page %q", n))
		}
		out[n] = targets
	}
	return out, nil
}
