package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	archive := &cobra.Command{
		Use:   "archive <entry-id>",
		Short: "Archive an entry (soft delete, idempotent)",
		Args:  cobra.ExactArgs(1),
		Run:   runArchive,
	}

	unarchive := &cobra.Command{
		Use:   "unarchive <entry-id>",
		Short: "Reactivate an archived entry",
		Args:  cobra.ExactArgs(1),
		Run:   runUnarchive,
	}

	RootCmd.AddCommand(archive, unarchive)
}

func runArchive(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()
	owner := identity(cfg)

	if err := s.Archive(cmd.Context(), owner, args[0]); err != nil {
		exitErr("archive", err)
	}

	audit(cmd.Context(), cfg, owner, "archive", "entry="+args[0])
	fmt.Printf("entry %s archived\n", args[0])
}

func runUnarchive(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()
	owner := identity(cfg)

	if err := s.Unarchive(cmd.Context(), owner, args[0]); err != nil {
		exitErr("unarchive", err)
	}

	audit(cmd.Context(), cfg, owner, "unarchive", "entry="+args[0])
	fmt.Printf("entry %s active\n", args[0])
}
