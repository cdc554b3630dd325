// ABOUTME: Launches the interactive terminal UI
// ABOUTME: Shares the CLI's client and cache so both see the same snapshots
package cli

import (
	"context"
	"errors"
	"os"

	"golang.org/x/term"

	"github.com/harperreed/crmview/tui"
)

type TUICmd struct{}

func (c *TUICmd) Run(ctx context.Context, a *App) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("tui needs an interactive terminal")
	}
	a.Logger.Info().Str("base_url", a.Config.BaseURL).Msg("starting tui")
	return tui.Run(ctx, a.Client, a.Cache, tui.WithLogger(a.Logger))
}
