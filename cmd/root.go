package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"shorts/internal/config"
	"shorts/internal/engine"
	"shorts/internal/storage"
)

type commandContext struct {
	configFlag *string

	configOnce  sync.Once
	config      *config.Config
	configPath  string
	configFound bool
	configErr   error
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configFlag: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "shorts",
		Short:         "Sort downloaded short-form videos and images into categories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newCategoriesCommand(ctx))
	rootCmd.AddCommand(newDownloadsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := strings.TrimSpace(*c.configFlag)
		cfg, resolved, found, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configFound = found
	})
	return c.config, c.configErr
}

// organizer builds an Organizer over the configured media root.
func (c *commandContext) organizer() (*engine.Organizer, *config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.NewFileSystemProvider(cfg.Media.Root)
	if err != nil {
		return nil, nil, err
	}
	organizer, err := engine.NewOrganizer(store, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("configure organizer: %w", err)
	}
	return organizer, cfg, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
