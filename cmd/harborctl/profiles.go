package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harborai/harbor/internal/authprofiles"
	"github.com/harborai/harbor/internal/config"
)

func profilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect credential profiles",
	}
	cmd.AddCommand(profilesOrderCmd())
	return cmd
}

func profilesOrderCmd() *cobra.Command {
	var preferred string

	cmd := &cobra.Command{
		Use:   "order <provider>",
		Short: "Show the resolved profile rotation order for a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return err
			}
			store, err := authprofiles.Load(cfg.Auth.StorePath)
			if err != nil {
				return err
			}
			provider := args[0]
			order := authprofiles.ResolveOrder(cfg, store, provider, preferred)
			if len(order) == 0 {
				fmt.Printf("no profiles for provider %s\n", provider)
				return nil
			}
			for i, key := range order {
				marker := ""
				if key == store.LastGoodFor(provider) {
					marker = " (last good)"
				}
				fmt.Printf("%d. %s%s\n", i+1, key, marker)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&preferred, "preferred", "", "profile key to promote to the front")
	return cmd
}
