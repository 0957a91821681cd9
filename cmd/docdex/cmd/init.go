package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/configs"
	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/output"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented docdex.yaml in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.DefaultConfigFile
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			out.Successf("Wrote %s", path)
			out.Status("", "Edit data.dir to point at your corpus, then run 'docdex index'.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}
