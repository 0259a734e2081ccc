package main

import (
	"fmt"
	"os"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/moltislabs/moltis/internal/bootstrap"
	"github.com/moltislabs/moltis/internal/config"
	"github.com/moltislabs/moltis/internal/provider"
)

func newProvidersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Inspect the provider registry",
	}

	var asMarkdown bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Rebuild the registry from config and list every model it offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			registry := bootstrap.NewStandaloneRegistry(cmd.Context(), cfg.Providers)
			models := registry.Models()
			if len(models) == 0 {
				fmt.Println(gray("no providers registered — check [providers.*] blocks in your config"))
				return nil
			}
			if asMarkdown {
				fmt.Println(string(markdown.Render(providerCatalogTable(models), terminalWidth(), 2)))
				return nil
			}
			for _, m := range models {
				name := m.DisplayName
				if name == "" {
					name = m.ID
				}
				fmt.Printf("%s  %s (%s)\n", cyan(m.Provider), name, m.ID)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&asMarkdown, "markdown", false, "render the catalog as a markdown table")
	cmd.AddCommand(listCmd)
	return cmd
}

// terminalWidth reports the width go-term-markdown should wrap to, falling
// back to 100 columns when stdout isn't a terminal (piped output, CI logs).
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 100
}

// providerCatalogTable renders models as a markdown table for go-term-markdown
// to lay out — used by `providers list --markdown`.
func providerCatalogTable(models []provider.ModelInfo) string {
	var b strings.Builder
	b.WriteString("| Provider | Model | ID |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, m := range models {
		name := m.DisplayName
		if name == "" {
			name = m.ID
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", m.Provider, name, m.ID)
	}
	return b.String()
}
