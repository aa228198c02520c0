package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

// Text comes from the remaining arguments, or stdin when there are none.
func readText(cctx *cli.Context, skip int) (string, error) {
	args := cctx.Args().Slice()
	if len(args) > skip {
		return strings.Join(args[skip:], " "), nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(b), nil
}

var cmdCheckText = &cli.Command{
	Name:      "check-text",
	Usage:     "report banned terms found in text (no database needed)",
	ArgsUsage: `[<text>...]`,
	Action: func(cctx *cli.Context) error {
		text, err := readText(cctx, 0)
		if err != nil {
			return err
		}
		pol, err := loadPolicy(cctx.String("config"))
		if err != nil {
			return err
		}
		m, err := pol.Matcher()
		if err != nil {
			return err
		}
		return printJSON(m.Check(text))
	},
}

var cmdFilterText = &cli.Command{
	Name:      "filter-text",
	Usage:     "replace banned terms in text (no database needed)",
	ArgsUsage: `[<text>...]`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "replacement",
			Usage: "replacement for each match; defaults to the policy setting",
		},
	},
	Action: func(cctx *cli.Context) error {
		text, err := readText(cctx, 0)
		if err != nil {
			return err
		}
		pol, err := loadPolicy(cctx.String("config"))
		if err != nil {
			return err
		}
		m, err := pol.Matcher()
		if err != nil {
			return err
		}
		replacement := pol.Engine.Replacement
		if cctx.IsSet("replacement") {
			replacement = cctx.String("replacement")
		}
		out, words := m.FilterText(text, replacement)
		return printJSON(map[string]any{"text": out, "found": words})
	},
}

var cmdScreen = &cli.Command{
	Name:      "screen",
	Usage:     "screen a submission by a user; matches add a censorship warning",
	ArgsUsage: `<user-id> [<text>...]`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "content",
			Usage: "reference to the submitted content (eg, comment:17)",
		},
	},
	Action: func(cctx *cli.Context) error {
		uid, err := argUint(cctx, 0, "user-id")
		if err != nil {
			return err
		}
		text, err := readText(cctx, 1)
		if err != nil {
			return err
		}
		eng, err := openEngine(cctx)
		if err != nil {
			return err
		}
		res, err := eng.ScreenContent(cctx.Context, uid, cctx.String("content"), text)
		if res != nil {
			if perr := printJSON(res); perr != nil {
				return perr
			}
		}
		return err
	},
}
