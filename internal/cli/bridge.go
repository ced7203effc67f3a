package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spawnlab/hivemem/internal/bridge"
)

func init() {
	bridgeCmd := &cobra.Command{
		Use:   "bridge",
		Short: "Coordination channel operations",
	}

	post := &cobra.Command{
		Use:   "post <channel> <body...>",
		Short: "Record a message on a channel",
		Args:  cobra.MinimumNArgs(2),
		Run:   runBridgePost,
	}

	unread := &cobra.Command{
		Use:   "unread <channel>",
		Short: "List unread messages on a channel",
		Args:  cobra.ExactArgs(1),
		Run:   runBridgeUnread,
	}

	read := &cobra.Command{
		Use:   "read <message-id>...",
		Short: "Mark messages as read",
		Args:  cobra.MinimumNArgs(1),
		Run:   runBridgeRead,
	}

	bridgeCmd.AddCommand(post, unread, read)

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the most recent audit lines",
		Run:   runAuditTail,
	}
	auditCmd.Flags().IntP("limit", "l", 20, "Lines to show")

	RootCmd.AddCommand(bridgeCmd, auditCmd)
}

func runBridgePost(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ch, err := bridge.OpenChannel(cfg.ChannelsPath())
	if err != nil {
		exitErr("bridge post", err)
	}
	defer ch.Close()

	msg, err := ch.Post(cmd.Context(), args[0], identity(cfg), strings.Join(args[1:], " "))
	if err != nil {
		exitErr("bridge post", err)
	}
	printJSON(msg)
}

func runBridgeUnread(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ch, err := bridge.OpenChannel(cfg.ChannelsPath())
	if err != nil {
		exitErr("bridge unread", err)
	}
	defer ch.Close()

	msgs, err := ch.Unread(cmd.Context(), args[0])
	if err != nil {
		exitErr("bridge unread", err)
	}
	printJSON(msgs)
}

func runBridgeRead(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ch, err := bridge.OpenChannel(cfg.ChannelsPath())
	if err != nil {
		exitErr("bridge read", err)
	}
	defer ch.Close()

	if err := ch.MarkRead(cmd.Context(), args...); err != nil {
		exitErr("bridge read", err)
	}
	fmt.Printf("%d message(s) marked read\n", len(args))
}

func runAuditTail(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := loadConfig()
	a, err := bridge.OpenAudit(cfg.AuditPath())
	if err != nil {
		exitErr("audit", err)
	}
	defer a.Close()

	events, err := a.Tail(cmd.Context(), limit)
	if err != nil {
		exitErr("audit", err)
	}
	printJSON(events)
}
