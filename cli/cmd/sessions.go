package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/simdeck/simdeck/client"
)

var sessionsFlags struct {
	server string
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions on the server",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

func init() {
	sessionsCmd.Flags().StringVarP(&sessionsFlags.server, "server", "s", "http://localhost:8420", "simdeck server URL")
}

func runSessions(cmd *cobra.Command, args []string) error {
	c := client.New(sessionsFlags.server)

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	sessions, err := c.ListSessions(ctx)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("no sessions")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAGENT\tSTATUS\tCREATED")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			s.ID, s.AgentName, s.Status, s.CreatedAt.Local().Format(time.RFC3339))
	}
	return w.Flush()
}
