package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harborai/harbor/internal/bind"
	"github.com/harborai/harbor/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the gateway config",
	}
	cmd.AddCommand(configValidateCmd())
	return cmd
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config for invalid values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return err
			}
			problems := 0
			if _, err := bind.ParseMode(cfg.Gateway.Mode); err != nil {
				fmt.Printf("gateway.mode: %v\n", err)
				problems++
			}
			for _, result := range config.CompileMentionPatterns(cfg.Routing.GroupChat.MentionPatterns) {
				if result.Err != nil {
					fmt.Printf("routing.group_chat.mention_patterns: %q: %v\n", result.Pattern, result.Err)
					problems++
				}
			}
			for key, profile := range cfg.Auth.Profiles {
				if profile.Provider == "" {
					fmt.Printf("auth.profiles.%s: provider is required\n", key)
					problems++
				}
			}
			if problems > 0 {
				return fmt.Errorf("%d problem(s) found", problems)
			}
			fmt.Println("config ok")
			return nil
		},
	}
}
