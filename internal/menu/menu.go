// Package menu runs the top-level keypress loop: render the menu, wait for
// one key, dispatch it, render again. A flow started from the menu runs to
// completion before the next key is read.
package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/harrison/builder/internal/copier"
	"github.com/harrison/builder/internal/display"
	"github.com/harrison/builder/internal/logger"
	"github.com/harrison/builder/internal/prompt"
	"github.com/harrison/builder/internal/terminal"
	"github.com/mattn/go-isatty"
)

// KeySource yields keypresses. io.EOF means no more input.
type KeySource interface {
	NextKey() (terminal.Key, error)
}

// Flows are the operations the menu can start
type Flows interface {
	NewBuild() error
	RerunLatest() error
	LatestBuildID() string
}

type state int

const (
	stateRender state = iota
	stateAwaitKey
	stateDispatch
	stateDone
)

// Loop is the menu state machine
type Loop struct {
	keys  KeySource
	flows Flows
	out   io.Writer
	log   logger.Logger

	title    *color.Color
	runKey   *color.Color
	rerunKey *color.Color
	menuKey  *color.Color
	quitKey  *color.Color
	inactive *color.Color
	failure  *color.Color
}

// New creates a Loop reading keys from keys and starting flows on flows
func New(keys KeySource, flows Flows, out io.Writer, log logger.Logger) *Loop {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	l := &Loop{
		keys:     keys,
		flows:    flows,
		out:      out,
		log:      log,
		title:    color.New(color.FgRed),
		runKey:   color.New(color.BgYellow, color.FgWhite),
		rerunKey: color.New(color.BgMagenta, color.FgWhite),
		menuKey:  color.New(color.BgBlue, color.FgWhite),
		quitKey:  color.New(color.BgRed, color.FgWhite),
		inactive: color.New(color.Faint),
		failure:  color.New(color.FgRed),
	}

	if f, ok := out.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		for _, c := range []*color.Color{l.title, l.runKey, l.rerunKey, l.menuKey, l.quitKey, l.inactive, l.failure} {
			c.DisableColor()
		}
	}
	return l
}

// Run loops until the user quits, input ends or ctx is done. Quitting
// returns nil; errors from flows are reported and the loop continues.
func (l *Loop) Run(ctx context.Context) error {
	var key terminal.Key
	current := stateRender

	for current != stateDone {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch current {
		case stateRender:
			l.Render()
			current = stateAwaitKey

		case stateAwaitKey:
			next, err := l.keys.NextKey()
			if errors.Is(err, io.EOF) {
				l.log.LogDebug("Input closed, leaving menu")
				current = stateDone
				continue
			}
			if err != nil {
				return fmt.Errorf("read key: %w", err)
			}
			key = next
			current = stateDispatch

		case stateDispatch:
			current = l.dispatch(key)
		}
	}
	return nil
}

// dispatch runs the action bound to key and returns the next state
func (l *Loop) dispatch(key terminal.Key) state {
	if key.Ctrl {
		if key.Name == "c" {
			return stateDone
		}
		return stateAwaitKey
	}

	switch key.Name {
	case "q":
		return stateDone
	case "m":
		display.ClearScreen(l.out)
		return stateRender
	case "a":
		display.ClearScreen(l.out)
		l.log.LogDebug("Starting new build flow")
		l.report(l.flows.NewBuild())
		return stateRender
	case "r":
		display.ClearScreen(l.out)
		l.log.LogDebug("Re-running latest build")
		l.report(l.flows.RerunLatest())
		return stateRender
	default:
		return stateAwaitKey
	}
}

// report shows the outcome of a flow. Copy failures and cancellations
// were already shown by the flow itself.
func (l *Loop) report(err error) {
	var copyErr *copier.Error

	switch {
	case err == nil:
	case errors.Is(err, prompt.ErrCancelled):
		l.log.LogInfo("Flow cancelled by user")
	case errors.As(err, &copyErr):
		l.log.LogDebug(fmt.Sprintf("Flow failed: %v", err))
	default:
		l.log.LogError(fmt.Sprintf("Flow failed: %v", err))
		fmt.Fprintf(l.out, "%s %v\n\n", l.failure.Sprint("Error:"), err)
	}
}

// Render prints the menu. The re-run entry is dimmed until a build has
// been saved or chosen.
func (l *Loop) Render() {
	fmt.Fprintln(l.out, l.title.Sprint("Menu!"))
	fmt.Fprintf(l.out, "Press %s to run action/build\n", l.runKey.Sprint("a"))
	if latest := l.flows.LatestBuildID(); latest != "" {
		fmt.Fprintf(l.out, "Press %s to re-run action/build - %s\n", l.rerunKey.Sprint("r"), latest)
	} else {
		fmt.Fprintln(l.out, l.inactive.Sprint("Press r to re-run action/build (no build yet)"))
	}
	fmt.Fprintf(l.out, "Press %s to go back to menu\n", l.menuKey.Sprint("m"))
	fmt.Fprintf(l.out, "Press %s to quit\n", l.quitKey.Sprint("q"))
}
