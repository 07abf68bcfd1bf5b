package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harborai/harbor/internal/config"
	"github.com/harborai/harbor/internal/models"
)

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect and edit model selection",
	}
	cmd.AddCommand(modelsListCmd())
	cmd.AddCommand(modelsSetCmd())
	cmd.AddCommand(modelsAliasesCmd())
	cmd.AddCommand(fallbacksCmd())
	return cmd
}

func modelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the resolved primary model, fallbacks, and configured models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return err
			}
			primary := models.ResolveConfiguredRef(cfg)
			fmt.Printf("primary:   %s\n", primary.Key())
			for _, ref := range models.ResolveFallbackRefs(cfg) {
				fmt.Printf("fallback:  %s\n", ref.Key())
			}
			index := models.BuildAliasIndex(cfg, cfg.Agent.DefaultProvider)
			for _, key := range models.ConfiguredKeys(cfg) {
				aliases := index.AliasesFor(key)
				if len(aliases) > 0 {
					fmt.Printf("model:     %s (%s)\n", key, strings.Join(aliases, ", "))
				} else {
					fmt.Printf("model:     %s\n", key)
				}
			}
			return nil
		},
	}
}

func modelsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <model>",
		Short: "Set the primary model (accepts provider/model, bare model, or alias)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolveConfigPath()
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			cfg, err = models.SetPrimary(cfg, args[0])
			if err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Printf("primary model set to %s\n", models.ResolveConfiguredRef(cfg).Key())
			return nil
		},
	}
}

func modelsAliasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aliases",
		Short: "Show the resolved alias table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return err
			}
			index := models.BuildAliasIndex(cfg, cfg.Agent.DefaultProvider)
			for _, key := range models.ConfiguredKeys(cfg) {
				for _, alias := range index.AliasesFor(key) {
					fmt.Printf("%-20s -> %s\n", alias, key)
				}
			}
			return nil
		},
	}
}

func fallbacksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fallbacks",
		Short: "Edit the fallback chain",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the resolved fallback chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return err
			}
			for _, ref := range models.ResolveFallbackRefs(cfg) {
				fmt.Println(ref.Key())
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <model>",
		Short: "Append a model to the fallback chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateFallbacks(func(cfg config.Config) (config.Config, error) {
				return models.AddFallback(cfg, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <model>",
		Short: "Remove a model from the fallback chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateFallbacks(func(cfg config.Config) (config.Config, error) {
				return models.RemoveFallback(cfg, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every fallback",
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutateFallbacks(func(cfg config.Config) (config.Config, error) {
				return models.ClearFallbacks(cfg), nil
			})
		},
	})
	return cmd
}

func mutateFallbacks(mutate func(config.Config) (config.Config, error)) error {
	path := resolveConfigPath()
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg, err = mutate(cfg)
	if err != nil {
		return err
	}
	return config.Save(path, cfg)
}
