package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/moltislabs/moltis/internal/keystore"
)

var keysPathFlag string

func newKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage stored provider credentials",
	}
	cmd.PersistentFlags().StringVar(&keysPathFlag, "keys", "", "path to the credential store (default: alongside --config)")

	cmd.AddCommand(newKeysSetCommand())
	cmd.AddCommand(newKeysListCommand())
	cmd.AddCommand(newKeysRemoveCommand())
	return cmd
}

func openKeyStore() (*keystore.Store, error) {
	path := keysPathFlag
	if path == "" {
		path = filepath.Join(filepath.Dir(configPath), "moltis-keys.json")
	}
	return keystore.Open(path)
}

func newKeysSetCommand() *cobra.Command {
	var apiKey, baseURL, model string

	cmd := &cobra.Command{
		Use:   "set <provider>",
		Short: "Set the stored credential for a provider",
		Long:  "Set the stored credential for a provider. With no flags, prompts interactively for each field.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry := keystore.Entry{APIKey: apiKey, BaseURL: baseURL, Model: model}
			if !cmd.Flags().Changed("api-key") && !cmd.Flags().Changed("base-url") && !cmd.Flags().Changed("model") {
				var err error
				entry, err = promptForCredential(args[0])
				if err != nil {
					return fmt.Errorf("credential prompt: %w", err)
				}
			}

			store, err := openKeyStore()
			if err != nil {
				return fmt.Errorf("open key store: %w", err)
			}
			if err := store.Save(args[0], entry); err != nil {
				return fmt.Errorf("save %s: %w", args[0], err)
			}
			fmt.Printf("%s %s\n", green("saved credential for"), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "base URL override")
	cmd.Flags().StringVar(&model, "model", "", "default model")
	return cmd
}

// promptForCredential drives an interactive api-key/base-url/model wizard
// for `keys set <provider>` when no flags are given. Every field is
// optional — an empty answer is accepted and normalized away by the store.
func promptForCredential(providerName string) (keystore.Entry, error) {
	apiKey, err := (&promptui.Prompt{Label: fmt.Sprintf("%s API key", providerName), Mask: '*'}).Run()
	if err != nil {
		return keystore.Entry{}, err
	}
	baseURL, err := (&promptui.Prompt{Label: "Base URL override (blank for default)"}).Run()
	if err != nil {
		return keystore.Entry{}, err
	}
	model, err := (&promptui.Prompt{Label: "Default model (blank for none)"}).Run()
	if err != nil {
		return keystore.Entry{}, err
	}
	return keystore.Entry{APIKey: apiKey, BaseURL: baseURL, Model: model}, nil
}

func newKeysListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every provider with a stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openKeyStore()
			if err != nil {
				return fmt.Errorf("open key store: %w", err)
			}
			entries := store.List()
			if len(entries) == 0 {
				fmt.Println(gray("no stored credentials"))
				return nil
			}
			names := make([]string, 0, len(entries))
			for name := range entries {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				entry := entries[name]
				model := entry.Model
				if model == "" {
					model = gray("(default)")
				}
				fmt.Printf("%s  model=%s  base_url=%s\n", cyan(name), model, entry.BaseURL)
			}
			return nil
		},
	}
}

func newKeysRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <provider>",
		Short: "Remove a provider's stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openKeyStore()
			if err != nil {
				return fmt.Errorf("open key store: %w", err)
			}
			if err := store.Remove(args[0]); err != nil {
				return fmt.Errorf("remove %s: %w", args[0], err)
			}
			fmt.Printf("%s %s\n", yellow("removed credential for"), args[0])
			return nil
		},
	}
}
