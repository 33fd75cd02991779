package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"jobhunt-ingest/internal/config"
)

func newConfigCmd(g *globalFlags) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the normalized config file, or write it back with --write",
		Long: `Print the config file merged over the defaults and normalized.

Env overrides and data dir path resolution are not applied, so the output is
what the file itself says. With --write the normalized config replaces the
file, keeping the previous version as <file>.bak.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := g.resolveConfigPath()
			if err != nil {
				return err
			}
			raw, err := config.LoadFile(path)
			if err != nil {
				return fmt.Errorf("config load failed (%s): %w", path, err)
			}

			cfg, v := config.NormalizeAndValidate(raw)
			errOut := cmd.ErrOrStderr()
			for _, w := range v.Warnings {
				fmt.Fprintf(errOut, "warning: %s\n", w)
			}

			if write {
				if err := config.SaveAtomic(path, cfg); err != nil {
					return fmt.Errorf("save %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			}

			if !v.OK() {
				return fmt.Errorf("invalid config %s:\n- %s", path, strings.Join(v.Errors, "\n- "))
			}
			b, err := yaml.Marshal(&cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "replace the config file with its normalized form")
	return cmd
}
