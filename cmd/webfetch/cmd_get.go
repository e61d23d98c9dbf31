package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/leofalp/safefetch/providers/tool/webfetch"
)

func cmdGet() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "fetch a URL and print the result block",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Value: string(webfetch.ModeFull), Usage: "full or probe"},
			&cli.StringFlag{Name: "strategy", Value: string(webfetch.StrategyDirect), Usage: "direct or smart"},
			&cli.StringFlag{Name: "accept", Usage: "Accept header override"},
			&cli.StringSliceFlag{Name: "header", Aliases: []string{"H"}, Usage: `extra request header, "Name: value" (repeatable)`},
			&cli.IntFlag{Name: "max-chars", Value: webfetch.DefaultMaxChars, Usage: "characters of body text to return (1000-100000)"},
			&cli.StringFlag{Name: "convert", Value: string(webfetch.ConvertNone), Usage: "none or markdown"},
			&cli.BoolFlag{Name: "json", Usage: "print the full result, details included, as JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return cli.Exit("usage: webfetch get [options] <url>", 2)
			}
			loadEnv(cmd.String("env-file"))

			cfg, err := loadConfig(cmd.String("config"))
			if err != nil {
				return err
			}
			headers, err := parseHeaders(cmd.StringSlice("header"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			fetcher := webfetch.NewFetcher(
				webfetch.WithConfig(cfg),
				webfetch.WithObserver(newObserver(cmd.Bool("verbose"), cmd.Root().ErrWriter)),
			)
			defer fetcher.Close()

			res, err := fetcher.Fetch(ctx, webfetch.Input{
				URL:      cmd.Args().Get(0),
				MaxChars: cmd.Int("max-chars"),
				Mode:     webfetch.Mode(cmd.String("mode")),
				Strategy: webfetch.Strategy(cmd.String("strategy")),
				Accept:   cmd.String("accept"),
				Headers:  headers,
				Convert:  webfetch.Convert(cmd.String("convert")),
			})
			if err != nil {
				return err
			}

			out := cmd.Root().Writer
			if cmd.Bool("json") {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, res.Text)
			}

			if res.IsError {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}
