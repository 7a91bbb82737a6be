package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hobbiz/hobbiz-backend/internal/chatclient"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
)

var unreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Watch the unread notification, conversation and favorites counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var favs *chatclient.Favorites
		if path := viper.GetString(favoritesFlag); path != "" {
			f, err := chatclient.OpenFavorites(path)
			if err != nil {
				return err
			}
			favs = f
			go func() {
				if err := favs.Watch(ctx); err != nil {
					jww.WARN.Printf("%v", err)
				}
			}()
		}

		agg := chatclient.NewAggregator(newClient(), favs, viper.GetDuration(intervalFlag))
		watchUnread(ctx, agg, os.Stdout)
		return nil
	},
}

// watchUnread prints the counters after the first poll and then on every
// change, until ctx is done.
func watchUnread(ctx context.Context, agg *chatclient.Aggregator, w io.Writer) {
	agg.Poll(ctx)
	// the subscription only reports changes
	printCounts(w, agg.Counts())
	updates := agg.Subscribe()
	go agg.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-updates:
			printCounts(w, c)
		}
	}
}

func printCounts(w io.Writer, c chatclient.Counts) {
	fmt.Fprintf(w, "%s notifications=%d conversations=%d favorites=%d\n",
		time.Now().Format("15:04:05"), c.Notifications, c.Conversations, c.Favorites)
}

var favoritesCmd = &cobra.Command{
	Use:   "favorites [add|remove] [announcementId]",
	Short: "List or edit the local guest favorites",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := chatclient.OpenFavorites(viper.GetString(favoritesFlag))
		if err != nil {
			return err
		}
		if len(args) == 2 {
			switch args[0] {
			case "add":
				err = f.Add(args[1])
			case "remove":
				err = f.Remove(args[1])
			default:
				return fmt.Errorf("unknown action %q", args[0])
			}
			if err != nil {
				return err
			}
		}
		for _, id := range f.List() {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	unreadCmd.Flags().Duration(intervalFlag, chatclient.DefaultPollInterval, "Polling interval")
	viper.BindPFlag(intervalFlag, unreadCmd.Flags().Lookup(intervalFlag))

	rootCmd.PersistentFlags().String(favoritesFlag, "", "Guest favorites file")
	viper.BindPFlag(favoritesFlag, rootCmd.PersistentFlags().Lookup(favoritesFlag))

	rootCmd.AddCommand(unreadCmd, favoritesCmd)
}
