package cli

import (
	"github.com/spf13/cobra"

	"github.com/spawnlab/hivemem/internal/store"
)

func init() {
	link := &cobra.Command{
		Use:   "link <from-id> <to-id>",
		Short: "Create a relation between two entries",
		Long: "Create a directed relation between two entries of the same owner.\n" +
			"A supersedes link archives the replaced entry and keeps the\n" +
			"version pointers on both entries.",
		Args: cobra.ExactArgs(2),
		Run:  runLink,
	}
	link.Flags().StringP("kind", "k", "", "Relation: supersedes, derives_from, relates_to (required)")
	link.MarkFlagRequired("kind")

	chain := &cobra.Command{
		Use:   "chain <entry-id>",
		Short: "Show the full supersession chain, origin first",
		Args:  cobra.ExactArgs(1),
		Run:   runChain,
	}

	links := &cobra.Command{
		Use:   "links <entry-id>",
		Short: "List relations touching an entry",
		Args:  cobra.ExactArgs(1),
		Run:   runLinks,
	}

	RootCmd.AddCommand(link, chain, links)
}

func runLink(cmd *cobra.Command, args []string) {
	kind, _ := cmd.Flags().GetString("kind")

	s, cfg := openStore()
	defer s.Close()
	owner := identity(cfg)

	link, err := s.Link(cmd.Context(), store.LinkParams{
		Owner:  owner,
		FromID: args[0],
		ToID:   args[1],
		Kind:   kind,
	})
	if err != nil {
		exitErr("link", err)
	}

	audit(cmd.Context(), cfg, owner, "link", args[0]+" -> "+args[1]+" ("+kind+")")
	printJSON(link)
}

func runChain(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()

	chain, err := s.Chain(cmd.Context(), identity(cfg), args[0])
	if err != nil {
		exitErr("chain", err)
	}
	printJSON(chain)
}

func runLinks(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()

	links, err := s.Links(cmd.Context(), identity(cfg), args[0])
	if err != nil {
		exitErr("links", err)
	}
	printJSON(links)
}
