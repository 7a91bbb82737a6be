package main

import (
	"fmt"
	"strings"

	"github.com/hobbiz/hobbiz-backend/internal/push"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Send a test push notification through FCM",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		d := push.New(ctx, push.Config{CredentialsPath: viper.GetString(credentialsFlag)})

		data := push.Data{}
		for _, kv := range viper.GetStringSlice(dataFlag) {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("data entry %q is not key=value", kv)
			}
			data[k] = v
		}
		id, err := d.Send(ctx, push.Target{
			Token: viper.GetString(pushTokenFlag),
			Topic: viper.GetString(topicFlag),
		}, push.Notification{
			Title: viper.GetString(titleFlag),
			Body:  viper.GetString(bodyFlag),
			Data:  data,
		})
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

func init() {
	pushCmd.Flags().String(credentialsFlag, push.DefaultCredentialsPath, "Service account JSON")
	viper.BindPFlag(credentialsFlag, pushCmd.Flags().Lookup(credentialsFlag))
	pushCmd.Flags().String(pushTokenFlag, "", "Device registration token")
	viper.BindPFlag(pushTokenFlag, pushCmd.Flags().Lookup(pushTokenFlag))
	pushCmd.Flags().String(topicFlag, "", "Topic name")
	viper.BindPFlag(topicFlag, pushCmd.Flags().Lookup(topicFlag))
	pushCmd.Flags().String(titleFlag, "Hobbiz", "Notification title")
	viper.BindPFlag(titleFlag, pushCmd.Flags().Lookup(titleFlag))
	pushCmd.Flags().String(bodyFlag, "", "Notification body")
	viper.BindPFlag(bodyFlag, pushCmd.Flags().Lookup(bodyFlag))
	pushCmd.Flags().StringSlice(dataFlag, nil, "Data entries as key=value")
	viper.BindPFlag(dataFlag, pushCmd.Flags().Lookup(dataFlag))

	rootCmd.AddCommand(pushCmd)
}
