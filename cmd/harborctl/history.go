package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harborai/harbor/internal/config"
	"github.com/harborai/harbor/internal/history"
)

func historyCmd() *cobra.Command {
	var surface string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent journaled messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.History.Path) == "" {
				return fmt.Errorf("history.path is not configured")
			}
			store, err := history.Open(logger, cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), surface, limit)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Printf("%s  %-8s %-8s %s -> %s: %s\n",
					entry.RecordedAt.Format("2006-01-02 15:04:05"),
					entry.Surface,
					entry.Direction,
					entry.Sender,
					entry.Target,
					entry.Body,
				)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&surface, "surface", "", "filter by surface")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries")
	return cmd
}
