package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spawnlab/hivemem/internal/store"
)

func init() {
	register := &cobra.Command{
		Use:   "register <handle>",
		Short: "Register a new identity",
		Args:  cobra.ExactArgs(1),
		Run:   runRegister,
	}
	register.Flags().StringP("model", "m", "", "Backing model (required)")
	register.Flags().String("constitution", "", "Path or reference to a governing document")
	register.Flags().String("description", "", "Self description")
	register.MarkFlagRequired("model")

	spawn := &cobra.Command{
		Use:   "spawn",
		Short: "Open a new spawn (closes any still-open session)",
		Run:   runSpawn,
	}

	wake := &cobra.Command{
		Use:   "wake",
		Short: "Record a context reload in the current spawn",
		Run:   runWake,
	}

	endSession := &cobra.Command{
		Use:   "end-session <session-id>",
		Short: "Close a session",
		Args:  cobra.ExactArgs(1),
		Run:   runEndSession,
	}

	agents := &cobra.Command{
		Use:   "agents",
		Short: "List known identities",
		Run:   runAgents,
	}
	agents.Flags().Bool("retired", false, "Include retired identities")

	retire := &cobra.Command{
		Use:   "retire <handle>",
		Short: "Retire an identity",
		Args:  cobra.ExactArgs(1),
		Run:   runRetire,
	}

	sessions := &cobra.Command{
		Use:   "sessions",
		Short: "Show session history for an identity",
		Run:   runSessions,
	}

	RootCmd.AddCommand(register, spawn, wake, endSession, agents, retire, sessions)
}

func runRegister(cmd *cobra.Command, args []string) {
	modelName, _ := cmd.Flags().GetString("model")
	constitution, _ := cmd.Flags().GetString("constitution")
	description, _ := cmd.Flags().GetString("description")

	s, cfg := openStore()
	defer s.Close()

	agent, err := s.Register(cmd.Context(), store.RegisterParams{
		Handle:          args[0],
		Model:           modelName,
		Constitution:    constitution,
		SelfDescription: description,
	})
	if err != nil {
		exitErr("register", err)
	}

	audit(cmd.Context(), cfg, agent.Handle, "register", "model="+modelName)
	printJSON(agent)
}

func runSpawn(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()
	owner := identity(cfg)

	session, err := s.Spawn(cmd.Context(), owner)
	if err != nil {
		exitErr("spawn", err)
	}

	audit(cmd.Context(), cfg, owner, "spawn", fmt.Sprintf("spawn=%d session=%s", session.SpawnNumber, session.ID))
	printJSON(session)
}

func runWake(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()
	owner := identity(cfg)

	session, err := s.Wake(cmd.Context(), owner)
	if err != nil {
		exitErr("wake", err)
	}

	audit(cmd.Context(), cfg, owner, "wake", fmt.Sprintf("session=%s wakes=%d", session.ID, session.Wakes))
	printJSON(session)
}

func runEndSession(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()

	if err := s.EndSession(cmd.Context(), args[0]); err != nil {
		exitErr("end-session", err)
	}

	audit(cmd.Context(), cfg, auditActor(cfg), "end-session", "session="+args[0])
	fmt.Printf("session %s ended\n", args[0])
}

func runAgents(cmd *cobra.Command, args []string) {
	retired, _ := cmd.Flags().GetBool("retired")

	s, _ := openStore()
	defer s.Close()

	agents, err := s.Agents(cmd.Context(), retired)
	if err != nil {
		exitErr("agents", err)
	}

	if formatFlag == "text" {
		for _, a := range agents {
			fmt.Printf("%s\t%s\tspawns=%d\twakes=%d\n", a.Handle, a.Model, a.SpawnCount, a.WakesThisSpawn)
		}
		return
	}
	printJSON(agents)
}

func runRetire(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()

	if err := s.Retire(cmd.Context(), args[0]); err != nil {
		exitErr("retire", err)
	}

	audit(cmd.Context(), cfg, args[0], "retire", "")
	fmt.Printf("agent %s retired\n", args[0])
}

func runSessions(cmd *cobra.Command, args []string) {
	s, cfg := openStore()
	defer s.Close()

	sessions, err := s.Sessions(cmd.Context(), identity(cfg))
	if err != nil {
		exitErr("sessions", err)
	}
	printJSON(sessions)
}
