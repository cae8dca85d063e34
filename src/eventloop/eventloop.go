// Package eventloop is the single goroutine that turns hotkey presses,
// resident requests from second launches and tray clicks into app calls.
package eventloop

import (
	"context"
	"fmt"
	"log"
	"time"

	"lighthouse/src/hotkey"
	"lighthouse/src/singleinstance"
	"lighthouse/src/tray"
)

// Actions are the app operations the loop triggers.
type Actions interface {
	ProceedShortcut()
	ShowMainWindow(ctx context.Context) error
	OpenSettingsWindow() error
}

type Options struct {
	// Tray delivers menu clicks; nil when there is no tray.
	Tray <-chan tray.Action
	// OnQuit runs when the user picks Quit, before Run returns.
	OnQuit func()
	// ShowTimeout bounds a show_main_window triggered by the loop.
	ShowTimeout time.Duration
}

// Loop is the single-threaded coordinator.
type Loop struct {
	actions     Actions
	srv         singleinstance.Server
	hotkeyCh    chan struct{}
	trayCh      <-chan tray.Action
	onQuit      func()
	showTimeout time.Duration
}

func New(a Actions, opts Options) *Loop {
	if opts.ShowTimeout <= 0 {
		opts.ShowTimeout = 10 * time.Second
	}
	return &Loop{
		actions:     a,
		hotkeyCh:    make(chan struct{}, 4),
		trayCh:      opts.Tray,
		onQuit:      opts.OnQuit,
		showTimeout: opts.ShowTimeout,
	}
}

// StartHotkey registers a global hotkey and posts presses into the loop.
func (l *Loop) StartHotkey(ctx context.Context, combo string) error {
	if combo == "" {
		return nil
	}
	return hotkey.Listen(ctx, combo, l.postHotkey)
}

func (l *Loop) postHotkey() {
	select {
	case l.hotkeyCh <- struct{}{}:
	default:
	}
}

// Run starts the singleinstance server and processes events until ctx is
// cancelled or the user quits.
func (l *Loop) Run(ctx context.Context) error {
	l.srv = singleinstance.NewServer()
	if err := l.srv.Start(ctx); err != nil {
		return fmt.Errorf("eventloop: resident endpoint: %w", err)
	}
	defer l.srv.Close()
	if p := l.srv.Port(); p > 0 {
		log.Printf("Resident listening on 127.0.0.1:%d", p)
	}

	// Accept loop in background to avoid blocking the other sources
	reqCh := make(chan singleinstance.Conn, 4)
	go func() {
		defer close(reqCh)
		for {
			conn, err := l.srv.Next(ctx)
			if err != nil {
				return
			}
			reqCh <- conn
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.hotkeyCh:
			log.Printf("eventloop: proceed shortcut")
			l.actions.ProceedShortcut()
		case conn, ok := <-reqCh:
			if !ok {
				return nil
			}
			l.handleConn(ctx, conn)
		case a := <-l.trayCh:
			if quit := l.handleTray(ctx, a); quit {
				return nil
			}
		}
	}
}

func (l *Loop) handleConn(ctx context.Context, conn singleinstance.Conn) {
	defer conn.Close()
	switch cmd := conn.Request().Command; cmd {
	case singleinstance.CommandShow:
		if err := l.showMain(ctx); err != nil {
			_ = conn.RespondError(err.Error())
			return
		}
		_ = conn.RespondOK()
	default:
		log.Printf("eventloop: unknown resident command %q", cmd)
		_ = conn.RespondError("unknown command " + cmd)
	}
}

// handleTray reports whether the loop should stop.
func (l *Loop) handleTray(ctx context.Context, a tray.Action) bool {
	log.Printf("eventloop: tray %s", a)
	switch a {
	case tray.ActionShow:
		if err := l.showMain(ctx); err != nil {
			log.Printf("eventloop: show main window: %v", err)
		}
	case tray.ActionSettings:
		if err := l.actions.OpenSettingsWindow(); err != nil {
			log.Printf("eventloop: open settings: %v", err)
		}
	case tray.ActionQuit:
		if l.onQuit != nil {
			l.onQuit()
		}
		return true
	}
	return false
}

func (l *Loop) showMain(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.showTimeout)
	defer cancel()
	return l.actions.ShowMainWindow(ctx)
}
