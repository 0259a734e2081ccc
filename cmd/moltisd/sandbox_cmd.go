package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moltislabs/moltis/internal/bootstrap"
	"github.com/moltislabs/moltis/internal/config"
)

func newSandboxCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Manage sandbox backend images",
	}

	cmd.AddCommand(newSandboxBuildImageCommand())
	cmd.AddCommand(newSandboxListImagesCommand())
	return cmd
}

func newSandboxBuildImageCommand() *cobra.Command {
	var packagesCSV string

	cmd := &cobra.Command{
		Use:   "build-image <base>",
		Short: "Build (or reuse) a sandbox image layering packages onto base",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			var packages []string
			if packagesCSV != "" {
				packages = strings.Split(packagesCSV, ",")
			}

			ctx := cmd.Context()
			built, err := bootstrap.NewStandaloneSandboxRouter(cfg.Tools.Exec.Sandbox).BuildImage(ctx, args[0], packages)
			if err != nil {
				return fmt.Errorf("build image: %w", err)
			}
			if built == nil {
				fmt.Println(gray("this backend has no image notion; nothing to build"))
				return nil
			}
			fmt.Printf("%s %s (built=%v)\n", green("image ready:"), built.Tag, built.Built)
			return nil
		},
	}
	cmd.Flags().StringVar(&packagesCSV, "packages", "", "comma-separated packages to layer onto base")
	return cmd
}

func newSandboxListImagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "List cached sandbox images",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx := cmd.Context()
			images, err := bootstrap.NewStandaloneSandboxRouter(cfg.Tools.Exec.Sandbox).ListCachedImages(ctx)
			if err != nil {
				return fmt.Errorf("list images: %w", err)
			}
			if len(images) == 0 {
				fmt.Println(gray("no cached images"))
				return nil
			}
			for _, img := range images {
				fmt.Println(img)
			}
			return nil
		},
	}
}
