package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	core := &cobra.Command{
		Use:   "core <entry-id>",
		Short: "Mark an entry as core (surfaced first on load)",
		Args:  cobra.ExactArgs(1),
		Run:   runCore,
	}

	uncore := &cobra.Command{
		Use:   "uncore <entry-id>",
		Short: "Clear an entry's core flag",
		Args:  cobra.ExactArgs(1),
		Run:   runUncore,
	}

	RootCmd.AddCommand(core, uncore)
}

func runCore(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()
	owner := identity(cfg)

	if err := s.MarkCore(cmd.Context(), owner, args[0], true); err != nil {
		exitErr("core", err)
	}

	audit(cmd.Context(), cfg, owner, "core", "entry="+args[0])
	fmt.Printf("entry %s marked core\n", args[0])
}

func runUncore(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()
	owner := identity(cfg)

	if err := s.MarkCore(cmd.Context(), owner, args[0], false); err != nil {
		exitErr("uncore", err)
	}

	audit(cmd.Context(), cfg, owner, "uncore", "entry="+args[0])
	fmt.Printf("entry %s unmarked\n", args[0])
}
