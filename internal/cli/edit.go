package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "edit <entry-id> [body]",
		Short: "Replace an entry's body",
		Args:  cobra.MinimumNArgs(1),
		Run:   runEdit,
	}
	RootCmd.AddCommand(cmd)
}

func runEdit(cmd *cobra.Command, args []string) {
	var body string
	if len(args) > 1 {
		body = strings.Join(args[1:], " ")
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
		exitErr("edit", fmt.Errorf("body is required (positional arg or stdin)"))
	}

	s, cfg := openStore()
	defer s.Close()
	owner := identity(cfg)

	entry, err := s.Edit(cmd.Context(), owner, args[0], strings.TrimSpace(body))
	if err != nil {
		exitErr("edit", err)
	}

	audit(cmd.Context(), cfg, owner, "edit", "entry="+entry.ID)
	printJSON(entry)
}
