package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	summary := &cobra.Command{
		Use:   "summary",
		Short: "Read the rolling summary",
		Run:   runSummaryGet,
	}

	set := &cobra.Command{
		Use:   "set [text]",
		Short: "Overwrite the rolling summary",
		Run:   runSummarySet,
	}

	summary.AddCommand(set)
	RootCmd.AddCommand(summary)
}

func runSummaryGet(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()

	text, err := s.GetSummary(cmd.Context(), identity(cfg))
	if err != nil {
		exitErr("summary", err)
	}
	fmt.Println(text)
}

func runSummarySet(cmd *cobra.Command, args []string) {
	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			text = string(b)
		}
	}

	if strings.TrimSpace(text) == "" {
		exitErr("summary set", fmt.Errorf("text is required (positional arg or stdin)"))
	}

	s, cfg := openStore()
	defer s.Close()
	owner := identity(cfg)

	if err := s.SetSummary(cmd.Context(), owner, strings.TrimSpace(text)); err != nil {
		exitErr("summary set", err)
	}

	audit(cmd.Context(), cfg, owner, "summary-set", "")
	fmt.Println("summary updated")
}
