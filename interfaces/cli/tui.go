package cli

import (
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"canvas-backend/interfaces/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Edit the canvas in the terminal",
	Long: `Open the canvas in a full-screen terminal editor. Drag blocks with the
mouse, drag from a block's + handle onto another block to connect them, and
click × to delete.

Keys:
  n    new block at the mouse
  d    new dashed block at the mouse
  x    delete the focused block
  esc  cancel the current drag
  q    quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Logs would draw over the screen.
	quietFlag = true

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	c, cleanup, err := openContainer(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	opts := tui.DefaultOptions()
	opts.FocusDelay = c.Config.Domain.FocusDelay
	return tui.NewApp(screen, c.Session, opts, c.Logger.With(zap.String("host", "tui"))).Run(ctx)
}
