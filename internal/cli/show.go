package cli

import (
	"github.com/spf13/cobra"

	"github.com/spawnlab/hivemem/internal/bridge"
	"github.com/spawnlab/hivemem/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Show one entry, resolving its bridge channel if set",
		Args:  cobra.ExactArgs(1),
		Run:   runShow,
	}
	RootCmd.AddCommand(cmd)
}

type entryView struct {
	model.Entry
	BridgeMessage *bridge.Message `json:"bridge_message,omitempty"`
}

func runShow(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()

	entry, err := s.Entry(cmd.Context(), identity(cfg), args[0])
	if err != nil {
		exitErr("show", err)
	}

	view := entryView{Entry: *entry}

	// The channel store is a sibling collaborator; a missing or broken
	// one degrades the view, it does not fail the lookup.
	if entry.BridgeChannel != "" {
		if ch, err := bridge.OpenChannel(cfg.ChannelsPath()); err == nil {
			if msg, err := ch.Latest(cmd.Context(), entry.BridgeChannel); err == nil {
				view.BridgeMessage = msg
			}
			ch.Close()
		}
	}

	printJSON(view)
}
