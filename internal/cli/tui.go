package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fragmede/purse/internal/monitor"
	"github.com/fragmede/purse/internal/ui"
	"github.com/fragmede/purse/internal/ui/messages"
)

func runTUI(cmd *cobra.Command, opts *RootOptions) error {
	e, err := openEnv(cmd, opts)
	if err != nil {
		return err
	}
	defer e.Close()

	mon := monitor.New(e.client, e.db, e.cfg.MonitorInterval, e.cfg.PageSize, e.log.Named("monitor"))
	defer mon.Stop()

	app := ui.NewApp(ui.Deps{
		Config:  e.cfg,
		Client:  e.client,
		Cache:   e.db,
		Session: e.store,
		Jar:     e.jar,
		Monitor: mon,
		Log:     e.log.Named("ui"),

		StartPath: opts.Open,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	app.SetProgram(p)
	e.onUnauthorized = func() { go p.Send(messages.UnauthorizedMsg{}) }

	e.log.Info("starting", zap.String("api_url", e.cfg.APIURL))
	_, err = p.Run()
	return err
}
