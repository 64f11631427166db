package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/simdeck/simdeck/treeview"
	"github.com/simdeck/simdeck/tui"
)

var viewFlags struct {
	watch     bool
	collapsed bool
}

var viewCmd = &cobra.Command{
	Use:   "view <file.json>",
	Short: "Explore a JSON file as a collapsible tree",
	Long: `Opens the tree explorer on a JSON document.

With --watch, the file is re-read whenever it changes on disk and the
view updates in place; nodes you collapsed stay collapsed across
reloads.`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	viewCmd.Flags().BoolVarP(&viewFlags.watch, "watch", "w", false, "reload when the file changes")
	viewCmd.Flags().BoolVar(&viewFlags.collapsed, "collapsed", false, "start with everything collapsed")
}

func runView(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}
	value, err := treeview.Parse(data)
	if err != nil {
		return fmt.Errorf("error parsing %s: %w", path, err)
	}

	cfg := tui.Config{
		Title:           filepath.Base(path),
		DefaultExpanded: !viewFlags.collapsed,
	}

	if viewFlags.watch {
		w, err := tui.WatchFile(path)
		if err != nil {
			return err
		}
		defer w.Close()
		cfg.Watcher = w
	}

	p := tea.NewProgram(tui.NewModel(value, cfg), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
