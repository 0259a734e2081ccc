package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moltislabs/moltis/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the gateway configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the config file named by --config",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(configPath)
			if err != nil {
				return fmt.Errorf("read %s: %w", configPath, err)
			}
			diags, err := config.Validate(string(raw))
			if err != nil {
				return fmt.Errorf("validate %s: %w", configPath, err)
			}
			if len(diags) == 0 {
				fmt.Println(green("no diagnostics, config is clean"))
				return nil
			}
			var hasError bool
			for _, d := range diags {
				line := d.String()
				switch d.Severity {
				case config.SeverityError:
					hasError = true
					fmt.Println(red(line))
				case config.SeverityWarning:
					fmt.Println(yellow(line))
				default:
					fmt.Println(gray(line))
				}
			}
			if hasError {
				return fmt.Errorf("%s has validation errors", configPath)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration, defaults merged in",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, diags, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load %s: %w", configPath, err)
			}
			for _, d := range diags {
				fmt.Println(gray(d.String()))
			}
			fmt.Printf("%+v\n", cfg)
			return nil
		},
	})

	return cmd
}
