package main

import (
	"context"
	"io"
	"log"
	"os"
	"strings"

	"github.com/hobbiz/hobbiz-backend/internal/chatclient"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "hobbizctl",
	Short: "Command line client for the Hobbiz chat API",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLog(viper.GetUint(logLevelFlag), viper.GetString(logFlag))
	},
	SilenceUsage: true,
}

func init() {
	viper.SetEnvPrefix("HOBBIZ")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String(apiFlag, "http://localhost:8080",
		"Base URL of the API")
	viper.BindPFlag(apiFlag, rootCmd.PersistentFlags().Lookup(apiFlag))

	rootCmd.PersistentFlags().String(tokenFlag, "",
		"Firebase ID token sent as bearer token")
	viper.BindPFlag(tokenFlag, rootCmd.PersistentFlags().Lookup(tokenFlag))

	rootCmd.PersistentFlags().String(meFlag, "",
		"Your user id, needed to send and delete")
	viper.BindPFlag(meFlag, rootCmd.PersistentFlags().Lookup(meFlag))

	rootCmd.PersistentFlags().UintP(logLevelFlag, "v", 0,
		"Verbose mode for debugging")
	viper.BindPFlag(logLevelFlag, rootCmd.PersistentFlags().Lookup(logLevelFlag))

	rootCmd.PersistentFlags().StringP(logFlag, "l", "-",
		"Path to the log output path (- is stdout)")
	viper.BindPFlag(logFlag, rootCmd.PersistentFlags().Lookup(logFlag))
}

func initLog(threshold uint, logPath string) {
	if logPath != "-" && logPath != "" {
		jww.SetStdoutOutput(io.Discard)
		logOutput, err := os.OpenFile(logPath,
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			panic(err.Error())
		}
		jww.SetLogOutput(logOutput)
	}

	switch {
	case threshold > 1:
		jww.SetStdoutThreshold(jww.LevelTrace)
		jww.SetLogThreshold(jww.LevelTrace)
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
	case threshold == 1:
		jww.SetStdoutThreshold(jww.LevelDebug)
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetFlags(log.LstdFlags | log.Lmicroseconds)
	default:
		jww.SetStdoutThreshold(jww.LevelWarn)
		jww.SetLogThreshold(jww.LevelInfo)
	}
}

func newClient() *chatclient.APIClient {
	return chatclient.NewAPIClient(viper.GetString(apiFlag),
		chatclient.StaticToken(viper.GetString(tokenFlag)), nil)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
