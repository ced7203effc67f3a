package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spawnlab/hivemem/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [body]",
		Short: "Store a memory entry",
		Long:  "Store a memory entry. Body can be a positional arg or piped via stdin.",
		Run:   runAdd,
	}

	cmd.Flags().StringP("topic", "t", "", "Topic label (required)")
	cmd.Flags().String("stamp", "", "Display timestamp (default: now, RFC3339)")
	cmd.Flags().String("source", "manual", "Provenance: manual, bridge, synthesis")
	cmd.Flags().String("bridge-channel", "", "Coordination channel this entry came from")
	cmd.Flags().String("anchors", "", "Code anchors (file:line references)")
	cmd.Flags().String("note", "", "Synthesis note")

	cmd.MarkFlagRequired("topic")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	topic, _ := cmd.Flags().GetString("topic")
	stamp, _ := cmd.Flags().GetString("stamp")
	source, _ := cmd.Flags().GetString("source")
	channel, _ := cmd.Flags().GetString("bridge-channel")
	anchors, _ := cmd.Flags().GetString("anchors")
	note, _ := cmd.Flags().GetString("note")

	// Body: positional arg first, then stdin.
	var body string
	if len(args) > 0 {
		body = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			body = string(b)
		}
	}

	if strings.TrimSpace(body) == "" {
		exitErr("add", fmt.Errorf("body is required (positional arg or stdin)"))
	}

	s, cfg := openStore()
	defer s.Close()
	owner := identity(cfg)

	entry, err := s.Add(cmd.Context(), store.AddParams{
		Owner:         owner,
		Topic:         topic,
		Body:          strings.TrimSpace(body),
		Stamp:         stamp,
		Source:        source,
		BridgeChannel: channel,
		CodeAnchors:   anchors,
		SynthesisNote: note,
	})
	if err != nil {
		exitErr("add", err)
	}

	audit(cmd.Context(), cfg, owner, "add", "entry="+entry.ID+" topic="+topic)
	printJSON(entry)
}
