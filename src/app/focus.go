package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"lighthouse/src/events"
	"lighthouse/src/focusstate"
	"lighthouse/src/window"
)

var errNoArranger = errors.New("window arrangement is not available")

// GetAvailableWindows lists the external windows the user can pair with.
func (a *App) GetAvailableWindows(ctx context.Context) ([]focusstate.WindowInfo, error) {
	if a.arranger == nil {
		return nil, errNoArranger
	}
	return a.arranger.Enumerate(ctx)
}

// ArrangeWindows tiles target next to Lighthouse and remembers it.
func (a *App) ArrangeWindows(ctx context.Context, target focusstate.WindowInfo) error {
	if a.arranger == nil {
		return errNoArranger
	}
	if _, ok := a.windows.Get(window.LabelMain); !ok {
		return errors.New("Could not find Lighthouse main window")
	}
	if err := a.arrange(ctx, target); err != nil {
		return err
	}

	a.state.SetFocusedWindow(&target)
	if a.store != nil {
		if err := a.store.Save(target); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) arrange(ctx context.Context, target focusstate.WindowInfo) error {
	w, h, err := a.screenSize()
	if err != nil {
		return err
	}
	return a.arranger.Arrange(ctx, target, w, h, a.settings().ratio)
}

func (a *App) setSelectionMode(on bool) {
	a.state.SetSelectionMode(on)
	a.bus.Emit(events.Event{Name: events.SelectionModeChanged, Window: events.Broadcast, Payload: on})
}

func (a *App) StartFocusSelectionMode() { a.setSelectionMode(true) }

func (a *App) StopFocusSelectionMode() { a.setSelectionMode(false) }

func (a *App) GetFocusSelectionMode() bool { return a.state.SelectionMode() }

func (a *App) GetFocusedWindow() *focusstate.WindowInfo { return a.state.FocusedWindow() }

// SetFocusedWindow records info as the paired window without moving
// anything; nil forgets the pairing.
func (a *App) SetFocusedWindow(info *focusstate.WindowInfo) error {
	a.state.SetFocusedWindow(info)
	if a.store == nil {
		return nil
	}
	if info == nil {
		return a.store.Clear()
	}
	return a.store.Save(*info)
}

// ShowMainWindow brings the main window up and re-applies a saved pairing.
// A pairing that no longer works is forgotten, in memory and on disk.
func (a *App) ShowMainWindow(ctx context.Context) error {
	main, ok := a.windows.Get(window.LabelMain)
	if !ok {
		return ErrMainWindowMissing
	}
	if err := main.Show(); err != nil {
		return fmt.Errorf("failed to show main window: %w", err)
	}
	if err := main.Focus(); err != nil {
		return fmt.Errorf("failed to focus main window: %w", err)
	}

	if !a.canArr || a.arranger == nil {
		return nil
	}
	target := a.state.FocusedWindow()
	if target == nil {
		return nil
	}
	log.Printf("app: auto-arranging with saved window %s / %q", target.OwnerName, target.WindowName)
	if err := a.arrange(ctx, *target); err != nil {
		log.Printf("app: auto-arrange failed, forgetting saved window: %v", err)
		a.state.SetFocusedWindow(nil)
		if a.store != nil {
			window.IgnoreFailure("remove focus state", a.store.Clear)
		}
	}
	return nil
}
