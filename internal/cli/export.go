package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an identity's active entries and summary as JSON",
		Run:   runExport,
	}
	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()

	snap, err := s.Export(cmd.Context(), identity(cfg))
	if err != nil {
		exitErr("export", err)
	}
	printJSON(snap)
}
