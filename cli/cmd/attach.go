package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/simdeck/simdeck/client"
	"github.com/simdeck/simdeck/tui"
)

var attachFlags struct {
	server    string
	collapsed bool
}

var attachCmd = &cobra.Command{
	Use:   "attach <session-id>",
	Short: "Attach the explorer to a live session",
	Long: `Opens the tree explorer on a running session.

Each incoming request payload becomes the inspected tree. Decision keys
act on the pending turn: a approves, d denies, r composes a response
field by field.`,
	Args: cobra.ExactArgs(1),
	RunE: runAttach,
}

func init() {
	attachCmd.Flags().StringVarP(&attachFlags.server, "server", "s", "http://localhost:8420", "simdeck server URL")
	attachCmd.Flags().BoolVar(&attachFlags.collapsed, "collapsed", false, "start with everything collapsed")
}

func runAttach(cmd *cobra.Command, args []string) error {
	sessionID := args[0]
	c := client.New(attachFlags.server)

	// Fail fast on a bad session ID or unreachable server before taking
	// over the terminal.
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	sess, err := c.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	cfg := tui.Config{
		Title:           fmt.Sprintf("session %s (%s)", shortID(sess.ID), sess.AgentName),
		DefaultExpanded: !attachFlags.collapsed,
		Attach: &tui.Attach{
			Client:    c,
			SessionID: sess.ID,
		},
	}

	p := tea.NewProgram(tui.NewModel(nil, cfg), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
