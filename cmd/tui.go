package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/workplate/internal/server"
	"github.com/desertthunder/workplate/internal/shared"
	"github.com/desertthunder/workplate/internal/ui"
)

const tuiLogPath = "./tmp/workplate-tui.log"

// useFileLogger redirects logs to a file so they don't interfere with TUI rendering.
func (r *Runner) useFileLogger() error {
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)
	return nil
}

// runWaitView shows the countdown until the listener reports, then returns its result.
//
// When the user quits early the listener is cancelled and its own result is awaited, so the
// socket has been released by the time this returns.
func (r *Runner) runWaitView(opts ui.WaitOpts) (server.Result, error) {
	model := ui.NewWaitModel(opts)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		if opts.Cancel != nil {
			opts.Cancel()
		}
		<-opts.Results
		return server.Result{}, fmt.Errorf("error running TUI: %w", err)
	}

	result := model.Result()
	if result.Kind() == server.KindCanceled {
		if final, ok := <-opts.Results; ok {
			result = final
		}
	}
	return result, nil
}
