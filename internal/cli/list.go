package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spawnlab/hivemem/internal/model"
	"github.com/spawnlab/hivemem/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, core first, newest first",
		Run:   runList,
	}

	cmd.Flags().StringP("topic", "t", "", "Filter by topic")
	cmd.Flags().BoolP("archived", "a", false, "Include archived entries")
	cmd.Flags().IntP("limit", "l", 100, "Max results")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	topic, _ := cmd.Flags().GetString("topic")
	archived, _ := cmd.Flags().GetBool("archived")
	limit, _ := cmd.Flags().GetInt("limit")

	s, cfg := openStore()
	defer s.Close()

	entries, err := s.List(cmd.Context(), store.ListParams{
		Owner:           identity(cfg),
		Topic:           topic,
		IncludeArchived: archived,
		Limit:           limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	if formatFlag == "text" {
		for _, e := range entries {
			fmt.Println(entryLine(e))
		}
		return
	}
	printJSON(entries)
}

func entryLine(e model.Entry) string {
	flags := " "
	if e.Core {
		flags = "*"
	}
	if e.Archived() {
		flags += " [archived]"
	}
	body := e.Body
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[:i] + "..."
	}
	return fmt.Sprintf("%s %s  %-16s %s", flags, e.ID, e.Topic, body)
}
