package main

import (
	"fmt"
	"sort"

	"github.com/hobbiz/hobbiz-backend/internal/chatclient"
	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings [toggle <channel>]",
	Short: "Show or toggle notification settings",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		tg := chatclient.NewSettingsToggle(newClient())
		if err := tg.Load(ctx); err != nil {
			return err
		}
		if len(args) == 2 && args[0] == "toggle" {
			if _, err := tg.Toggle(ctx, model.Channel(args[1])); err != nil {
				return err
			}
		} else if len(args) > 0 {
			return fmt.Errorf("usage: %s", cmd.Use)
		}
		values := tg.Values()
		channels := make([]string, 0, len(values))
		for c := range values {
			channels = append(channels, string(c))
		}
		sort.Strings(channels)
		for _, c := range channels {
			fmt.Printf("%-11s %v\n", c, values[model.Channel(c)])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}
