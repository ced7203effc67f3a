// Package cli implements the hivemem CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spawnlab/hivemem/internal/bridge"
	"github.com/spawnlab/hivemem/internal/config"
	"github.com/spawnlab/hivemem/internal/store"
)

var (
	homeFlag    string
	dbFlag      string
	asFlag      string
	formatFlag  string
	verboseFlag bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "hivemem",
	Short: "Durable memory and identity bookkeeping for agent spawns",
	Long: "Topic-scoped durable notes that survive conversational resets, plus\n" +
		"spawn/session bookkeeping for agent instances sharing one workspace.\n" +
		"SQLite-backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&homeFlag, "home", "", "Workspace directory (default: $HIVEMEM_HOME or ~/.hivemem)")
	RootCmd.PersistentFlags().StringVarP(&dbFlag, "db", "d", "", "Memory store path (default: $HIVEMEM_DB or <home>/memory.db)")
	RootCmd.PersistentFlags().StringVar(&asFlag, "as", "", "Identity to act as (default: $HIVEMEM_IDENTITY or config file)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose logging")
}

func loadConfig() *config.Config {
	cfg, err := config.Load(homeFlag, dbFlag)
	if err != nil {
		exitErr("config", err)
	}
	return cfg
}

func openStore() (*store.Store, *config.Config) {
	cfg := loadConfig()

	var opts []store.Option
	if verboseFlag {
		logger, err := zap.NewDevelopment()
		if err == nil {
			opts = append(opts, store.WithLogger(logger))
		}
	}

	s, err := store.Open(cfg.DBPath, opts...)
	if err != nil {
		exitErr("open store", err)
	}
	return s, cfg
}

// identity resolves the acting identity: --as beats the environment and
// config file.
func identity(cfg *config.Config) string {
	if asFlag != "" {
		return asFlag
	}
	if cfg.Identity == "" {
		exitErr("identity", fmt.Errorf("no identity: pass --as or set %s", config.EnvIdentity))
	}
	return cfg.Identity
}

// auditActor resolves the acting identity for audit labeling only.
// Unlike identity it never exits: commands that need no identity still
// get a usable actor label.
func auditActor(cfg *config.Config) string {
	if asFlag != "" {
		return asFlag
	}
	if cfg.Identity != "" {
		return cfg.Identity
	}
	return "unknown"
}

// audit appends a line to the sibling audit log. Best effort: a broken
// audit store never fails the memory operation it trails.
func audit(ctx context.Context, cfg *config.Config, actor, action, detail string) {
	a, err := bridge.OpenAudit(cfg.AuditPath())
	if err != nil {
		if verboseFlag {
			fmt.Fprintf(os.Stderr, "warn: audit log unavailable: %v\n", err)
		}
		return
	}
	defer a.Close()
	if err := a.Append(ctx, actor, action, detail); err != nil && verboseFlag {
		fmt.Fprintf(os.Stderr, "warn: audit append failed: %v\n", err)
	}
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
