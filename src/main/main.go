package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"lighthouse/src/app"
	"lighthouse/src/arrange"
	"lighthouse/src/bridge"
	"lighthouse/src/clipboard"
	"lighthouse/src/config"
	"lighthouse/src/eventloop"
	"lighthouse/src/events"
	"lighthouse/src/focusstate"
	"lighthouse/src/runtimeinit"
	"lighthouse/src/singleinstance"
	"lighthouse/src/tray"
	"lighthouse/src/ui"
	"lighthouse/src/window"
)

const appID = "app.lighthouse.desktop"

type mainOptions struct {
	apiKeyPath string
	dataDir    string
	bridgeAddr string
	envPath    string
	noBridge   bool
	hidden     bool
}

func (o mainOptions) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		APIKeyPathOverride: o.apiKeyPath,
		DataDirOverride:    o.dataDir,
		BridgeAddrOverride: o.bridgeAddr,
		EnvPathOverride:    o.envPath,
	}
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	// The window toolkit and the macOS status item need the main thread.
	runtime.LockOSThread()

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lighthouse",
		Short:         "Screen assistant: point at things on screen and answer questions about them",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResident(*opts)
		},
	}

	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "Directory for focus state, skills and logs")
	cmd.Flags().StringVar(&opts.bridgeAddr, "bridge-addr", "", "Address of the JSON-RPC/WebSocket bridge")
	cmd.Flags().StringVar(&opts.envPath, "env", "", "Path to a .env file")
	cmd.Flags().BoolVar(&opts.noBridge, "no-bridge", false, "Do not start the bridge server")
	cmd.Flags().BoolVar(&opts.hidden, "hidden", false, "Start with the main window hidden")

	return cmd
}

// normalizeLegacyArgs maps single-dash long flags to cobra's double dash.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	long := []string{"api-key-path", "data-dir", "bridge-addr", "env", "no-bridge", "hidden"}
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range long {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "--" + arg[1:]
			}
		}
	}

	return normalized
}

// detectResident finds a running instance; tests replace it.
var detectResident = singleinstance.DetectResidentPort

const (
	detectTimeout = 500 * time.Millisecond
	// showTimeout covers a resident that re-arranges windows before it
	// answers.
	showTimeout = 12 * time.Second
)

// delegateToResident asks a running instance to show itself. It reports
// whether this process is done.
func delegateToResident(ctx context.Context, client singleinstance.Client) bool {
	dctx, cancel := context.WithTimeout(ctx, detectTimeout)
	port, found := detectResident(dctx)
	cancel()
	if !found {
		start, end := singleinstance.PortRange()
		log.Printf("No resident on ports %d-%d, starting", start, end)
		return false
	}
	log.Printf("Resident answered on port %d, asking it to show", port)

	sctx, cancel := context.WithTimeout(ctx, showTimeout)
	defer cancel()

	delegated, err := client.Send(sctx, singleinstance.CommandShow)
	if !delegated {
		// It went away between the ping and the request.
		return false
	}
	if err != nil {
		log.Printf("Resident answered with an error: %v", err)
	} else {
		log.Printf("Delegated to resident")
	}
	return true
}

func runResident(opts mainOptions) error {
	loadOpts := opts.loadOptions()
	cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{LoadOptions: loadOpts})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if delegateToResident(ctx, singleinstance.NewClient()) {
		return nil
	}
	logMonitorConfiguration()

	log.Printf("Lighthouse starting")
	log.Printf("Hotkey: %s", cfg.Hotkey)
	log.Printf("Data dir: %s", cfg.DataDir)

	fa := fyneapp.NewWithID(appID)
	bus := events.NewBus()
	host := ui.NewHost(ctx, fa, bus)
	vc := runtimeinit.NewVisionClient(cfg)

	a := app.New(app.Options{
		Host:              host,
		Bus:               bus,
		Store:             focusstate.NewStore(cfg.DataDir),
		Vision:            vc,
		Arranger:          arrange.New(arrange.OSAScript{}),
		ArrangeSupported:  arrange.Supported(),
		CopyText:          clipboard.Write,
		SkillsFile:        cfg.SkillsFile,
		CaptureWidthRatio: cfg.CaptureWidthRatio,
		CaptureScale:      cfg.CaptureScale,
		ReadyTimeout:      time.Duration(cfg.ReadyTimeoutSec) * time.Second,
		Fade:              window.DefaultStrategy(window.ParseMode(cfg.FadeMode)),
		VisionDeadline:    time.Duration(cfg.VisionDeadlineSec) * time.Second,
	})
	host.Bind(a, ui.Settings{
		Hotkey:     cfg.Hotkey,
		BridgeAddr: cfg.BridgeAddr,
		KeySource:  cfg.APIKeySource,
		SaveKey: func(key string) error {
			if err := config.StoreAPIKey(key); err != nil {
				return err
			}
			vc.SetAPIKey(key)
			return nil
		},
		ClearKey: config.ClearAPIKey,
	})
	a.RestoreFocusState()

	mainWin, err := host.BuildNow(window.Spec{
		Label:       window.LabelMain,
		Kind:        window.KindMain,
		Title:       "Lighthouse",
		Width:       420,
		Height:      560,
		Centered:    true,
		Decorations: true,
		Resizable:   true,
		Focused:     !opts.hidden,
	})
	if err != nil {
		return fmt.Errorf("failed to create main window: %w", err)
	}
	a.AttachMain(mainWin)
	if opts.hidden {
		_ = mainWin.Hide()
	}

	tooltip := fmt.Sprintf("Lighthouse - press %s to point", cfg.Hotkey)
	trayIcon, err := tray.Start(tray.Config{
		Title:   "Lighthouse",
		Tooltip: tooltip,
		About:   fmt.Sprintf("Lighthouse\n\nShortcut: %s\nBridge: http://%s\nData: %s", cfg.Hotkey, cfg.BridgeAddr, cfg.DataDir),
	})
	if err != nil {
		return err
	}
	a.State().SetTray(trayIcon)

	loop := eventloop.New(a, eventloop.Options{Tray: trayIcon.Actions(), OnQuit: cancel})
	if err := loop.StartHotkey(ctx, cfg.Hotkey); err != nil {
		log.Printf("Global shortcut unavailable: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	if !opts.noBridge {
		srv := bridge.NewServer(cfg.BridgeAddr, a)
		g.Go(func() error {
			// The panel works without the bridge; a busy port is not fatal.
			if err := srv.Run(gctx); err != nil {
				log.Printf("Bridge stopped: %v", err)
			}
			return nil
		})
	}
	g.Go(func() error { return config.Watch(gctx, cfg, loadOpts, a.ApplyConfig) })

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			cancel()
		case <-gctx.Done():
		}
	}()

	// Anything that ends the group ends the UI.
	go func() {
		<-gctx.Done()
		trayIcon.Quit()
		fyne.Do(fa.Quit)
	}()

	fa.Run()
	cancel()

	if err := g.Wait(); err != nil {
		return err
	}
	log.Printf("Lighthouse stopped")
	return nil
}
