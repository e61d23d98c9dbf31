package main

import (
	"context"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func cmdConfig() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "print the effective configuration as YAML",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			loadEnv(cmd.String("env-file"))
			cfg, err := loadConfig(cmd.String("config"))
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.Root().Writer)
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
