// Command hobbizctl drives the chat API from a terminal: open conversations,
// send and delete messages, watch unread counters, toggle notification
// settings and send test pushes.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
