package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/spawnlab/hivemem/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a snapshot (file or stdin) into an identity",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}
	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var data []byte
	var err error
	if len(args) > 0 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("import: read input", err)
	}

	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		exitErr("import: parse snapshot", err)
	}

	s, cfg := openStore()
	defer s.Close()
	owner := identity(cfg)

	n, err := s.Import(cmd.Context(), owner, &snap)
	if err != nil {
		exitErr(fmt.Sprintf("import (after %d entries)", n), err)
	}

	audit(cmd.Context(), cfg, owner, "import", fmt.Sprintf("entries=%d", n))
	fmt.Printf("imported %d entries\n", n)
}
