package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/hobbiz/hobbiz-backend/internal/chatclient"
	"github.com/hobbiz/hobbiz-backend/internal/convkey"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
)

var keyCmd = &cobra.Command{
	Use:   "key <sellerId> <buyerId> <announcementId>",
	Short: "Print the conversation key for a seller, buyer and announcement",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, ok := convkey.Derive(args[0], args[1], args[2])
		if !ok {
			return errors.New("all three ids are required")
		}
		fmt.Println(k)
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Read and write conversation messages",
}

var chatStartCmd = &cobra.Command{
	Use:   "start <announcementId>",
	Short: "Open a conversation with the owner of an announcement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cv, err := newClient().StartConversation(cmdContext(cmd), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s\tseller=%s buyer=%s\n", cv.Key, cv.SellerID, cv.BuyerID)
		return nil
	},
}

var chatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your conversations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := newClient().Conversations(cmdContext(cmd))
		if err != nil {
			return err
		}
		for _, cv := range list {
			mark := " "
			if cv.HasUnread {
				mark = "*"
			}
			fmt.Printf("%s %s\t%s\n", mark, cv.Key, cv.LastMessageAt)
		}
		return nil
	},
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history <key>",
	Short: "Print the messages of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := chatclient.NewSession(newClient(), viper.GetString(meFlag))
		if err := s.Open(cmdContext(cmd), convkey.Key(args[0]), "", ""); err != nil {
			return err
		}
		defer s.Close()
		for _, m := range s.Messages() {
			fmt.Println(formatEntry(m))
		}
		return nil
	},
}

var chatSendCmd = &cobra.Command{
	Use:   "send <key>",
	Short: "Send a message, optionally with a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		key := convkey.Key(args[0])
		to := viper.GetString(toFlag)
		ann := viper.GetString(announcementFlag)
		me := viper.GetString(meFlag)
		if seller, buyer, a, ok := convkey.Parse(key); ok {
			if ann == "" {
				ann = a
			}
			if to == "" {
				to = seller
				if me == seller {
					to = buyer
				}
			}
		}

		s := chatclient.NewSession(newClient(), me)
		if err := s.Open(ctx, key, to, ann); err != nil {
			jww.WARN.Printf("history unavailable: %v", err)
		}
		defer s.Close()

		s.SetText(viper.GetString(textFlag))
		if path := viper.GetString(fileFlag); path != "" {
			a, err := readAttachment(path)
			if err != nil {
				return err
			}
			if err := s.Attach(*a); err != nil {
				return err
			}
		}
		msg, err := s.Send(ctx)
		if err != nil {
			return err
		}
		fmt.Println(msg.ID)
		return nil
	},
}

var chatDeleteCmd = &cobra.Command{
	Use:   "delete <key> <messageId>",
	Short: "Delete one of your messages",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		s := chatclient.NewSession(newClient(), viper.GetString(meFlag))
		if err := s.Open(ctx, convkey.Key(args[0]), "", ""); err != nil {
			return err
		}
		defer s.Close()
		return s.Delete(ctx, args[1])
	},
}

var chatReadCmd = &cobra.Command{
	Use:   "read <key>",
	Short: "Mark a conversation read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient().MarkRead(cmdContext(cmd), convkey.Key(args[0]))
	},
}

func readAttachment(path string) (*chatclient.Attachment, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}
	return &chatclient.Attachment{
		Filename:  filepath.Base(path),
		MediaType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Body:      body,
	}, nil
}

func formatEntry(e chatclient.Entry) string {
	var parts []string
	if e.Text != nil {
		parts = append(parts, *e.Text)
	}
	if e.ImageURL != nil {
		parts = append(parts, "["+*e.ImageURL+"]")
	}
	return fmt.Sprintf("%s %s %-6s %s: %s", e.ID, e.CreatedAt.Format("2006-01-02 15:04"),
		e.SenderRole, e.SenderUID, strings.Join(parts, " "))
}

func init() {
	chatSendCmd.Flags().String(toFlag, "", "Recipient user id, derived from the key when empty")
	viper.BindPFlag(toFlag, chatSendCmd.Flags().Lookup(toFlag))
	chatSendCmd.Flags().String(announcementFlag, "", "Announcement id, parsed from the key when empty")
	viper.BindPFlag(announcementFlag, chatSendCmd.Flags().Lookup(announcementFlag))
	chatSendCmd.Flags().StringP(textFlag, "m", "", "Message text")
	viper.BindPFlag(textFlag, chatSendCmd.Flags().Lookup(textFlag))
	chatSendCmd.Flags().StringP(fileFlag, "f", "", "File to attach")
	viper.BindPFlag(fileFlag, chatSendCmd.Flags().Lookup(fileFlag))

	chatCmd.AddCommand(chatStartCmd, chatListCmd, chatHistoryCmd, chatSendCmd, chatDeleteCmd, chatReadCmd)
	rootCmd.AddCommand(keyCmd, chatCmd)
}
