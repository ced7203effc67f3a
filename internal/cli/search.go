package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spawnlab/hivemem/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search <keyword>",
		Short: "Keyword search over topic and body",
		Args:  cobra.ExactArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().IntP("limit", "l", 100, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, cfg := openStore()
	defer s.Close()

	entries, err := s.Search(cmd.Context(), store.SearchParams{
		Owner:   identity(cfg),
		Keyword: args[0],
		Limit:   limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	if formatFlag == "text" {
		for _, e := range entries {
			fmt.Println(entryLine(e))
		}
		return
	}
	printJSON(entries)
}
