package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <entry-id>",
		Short: "Hard-delete an entry (fails while links reference it)",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}
	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()
	owner := identity(cfg)

	if err := s.Delete(cmd.Context(), owner, args[0]); err != nil {
		exitErr("rm", err)
	}

	audit(cmd.Context(), cfg, owner, "rm", "entry="+args[0])
	fmt.Printf("entry %s deleted\n", args[0])
}
