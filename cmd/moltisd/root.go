package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configPath string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "moltisd",
		Short: "Moltis self-hosted agent gateway",
		Long: fmt.Sprintf(`%s

Routes provider completions, sandboxed command execution, headless browser
sessions, chat-channel traffic, and a host terminal behind one process.`,
			bold("moltisd")),
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "moltis.toml", "path to the TOML config file")

	root.AddCommand(newServeCommand())
	root.AddCommand(newConfigCommand())
	root.AddCommand(newSandboxCommand())
	root.AddCommand(newKeysCommand())
	root.AddCommand(newProvidersCommand())

	viper.SetConfigName("moltis")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")

	return root
}
