package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"lighthouse/src/arrange"
	"lighthouse/src/config"
	"lighthouse/src/focusstate"
	"lighthouse/src/runtimeinit"
	"lighthouse/src/screenshot"
	"lighthouse/src/vision"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type cliOptions struct {
	verbose    bool
	apiKeyPath string
	envPath    string
	format     string

	filePath string
	prompt   string

	outPath string
	ratio   float64
	scale   float64
}

func (o cliOptions) loadOptions() config.LoadOptions {
	return config.LoadOptions{APIKeyPathOverride: o.apiKeyPath, EnvPathOverride: o.envPath}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"lighthouse-cli"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lighthouse-cli",
		Short:         "Ask the vision model about screenshots from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Configure logging BEFORE any other operations.
			if !opts.verbose {
				log.SetOutput(io.Discard)
			} else {
				log.SetOutput(os.Stderr)
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	pf.StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	pf.StringVar(&opts.envPath, "env", "", "Path to a .env file")
	pf.StringVar(&opts.format, "format", "text", "Output format: text, json or yaml")

	cmd.AddCommand(
		newVisionCmd(opts, "query", "Answer a question about an image", "question"),
		newVisionCmd(opts, "point", "Locate an object in an image", "object"),
		newVisionCmd(opts, "detect", "Find bounding boxes of an object in an image", "object"),
		newCaptureCmd(opts),
		newWindowsCmd(opts),
		newAuthCmd(opts),
	)
	return cmd
}

func newVisionCmd(opts *cliOptions, name, short, promptName string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format); err != nil {
				return err
			}
			cfg, err := runtimeinit.Bootstrap(runtimeinit.Options{
				LoadOptions:   opts.loadOptions(),
				SetupLogging:  func(*config.Config) {},
				RequireAPIKey: true,
				SkipClipboard: true,
			})
			if err != nil {
				return err
			}

			data, err := readPNG(opts.filePath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			log.Printf("Read %d bytes from %s", len(data), opts.filePath)

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.VisionDeadlineSec)*time.Second)
			defer cancel()

			start := time.Now()
			res, err := runVision(ctx, runtimeinit.NewVisionClient(cfg), name, screenshot.DataURL(data), opts.prompt)
			if err != nil {
				return fmt.Errorf("%s failed: %w", name, err)
			}
			log.Printf("%s completed in %v", name, time.Since(start))

			return writeResult(cmd.OutOrStdout(), opts.format, res)
		},
	}
	cmd.Flags().StringVar(&opts.filePath, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().StringVar(&opts.prompt, promptName, "", "The "+promptName+" to send")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired(promptName)
	return cmd
}

func newCaptureCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Save a PNG of the primary display",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := screenshot.CapturePNG(screenshot.Options{WidthRatio: opts.ratio, Scale: opts.scale})
			if err != nil {
				return fmt.Errorf("capture failed: %w", err)
			}
			if opts.outPath == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(opts.outPath, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", opts.outPath, err)
			}
			log.Printf("Wrote %d bytes to %s", len(data), opts.outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.outPath, "out", "screenshot.png", "Output path (use '-' for stdout)")
	cmd.Flags().Float64Var(&opts.ratio, "ratio", 1, "Fraction of the display width to keep, from the left")
	cmd.Flags().Float64Var(&opts.scale, "scale", 1, "Resize factor applied before encoding")
	return cmd
}

func newWindowsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "windows",
		Short: "List the windows that can be paired (macOS)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format); err != nil {
				return err
			}
			if !arrange.Supported() {
				return arrange.ErrUnsupported
			}
			wins, err := arrange.New(arrange.OSAScript{}).Enumerate(cmd.Context())
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), opts.format, wins)
		},
	}
}

func newAuthCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the API key stored in the OS keychain",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set-key [key]",
		Short: "Store the API key (reads stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := keyArg(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := config.StoreAPIKey(key); err != nil {
				return fmt.Errorf("failed to store API key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key stored.")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear-key",
		Short: "Remove the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearAPIKey(); err != nil {
				return fmt.Errorf("failed to remove API key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key removed.")
			return nil
		},
	})
	return cmd
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	long := []string{"file", "question", "object", "format", "verbose", "api-key-path", "env", "out", "ratio", "scale"}
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

func checkFormat(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}

func keyArg(args []string, stdin io.Reader) (string, error) {
	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		data, err := io.ReadAll(io.LimitReader(stdin, 4096))
		if err != nil {
			return "", fmt.Errorf("failed to read key from stdin: %w", err)
		}
		key = string(data)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("API key is empty")
	}
	return key, nil
}

// readPNG reads and validates a PNG from path, or from stdin for "-".
func readPNG(path string, stdin io.Reader) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if len(data) < len(pngMagic) || !bytes.Equal(data[:len(pngMagic)], pngMagic) {
		return nil, fmt.Errorf("input is not a valid PNG file (invalid magic number)")
	}
	return data, nil
}

type visionAPI interface {
	Query(ctx context.Context, image, question string) (*vision.QueryResult, error)
	Point(ctx context.Context, image, object string) (*vision.PointResult, error)
	Detect(ctx context.Context, image, object string) (*vision.DetectResult, error)
}

func runVision(ctx context.Context, c visionAPI, kind, image, prompt string) (any, error) {
	switch kind {
	case "query":
		return c.Query(ctx, image, prompt)
	case "point":
		return c.Point(ctx, image, prompt)
	case "detect":
		return c.Detect(ctx, image, prompt)
	}
	return nil, fmt.Errorf("unknown request %q", kind)
}

func writeResult(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML output: %w", err)
		}
		return encoder.Close()
	}
	_, err := io.WriteString(w, plainText(v))
	return err
}

func plainText(v any) string {
	var b strings.Builder
	switch r := v.(type) {
	case *vision.QueryResult:
		b.WriteString(r.Answer)
		b.WriteString("\n")
	case *vision.PointResult:
		for _, p := range r.Points {
			fmt.Fprintf(&b, "%.4f %.4f\n", p.X, p.Y)
		}
	case *vision.DetectResult:
		for _, o := range r.Objects {
			fmt.Fprintf(&b, "%.4f %.4f %.4f %.4f\n", o.XMin, o.YMin, o.XMax, o.YMax)
		}
	case []focusstate.WindowInfo:
		for _, win := range r {
			fmt.Fprintf(&b, "%d\t%s\t%s\n", win.WindowID, win.OwnerName, win.WindowName)
		}
	default:
		fmt.Fprintf(&b, "%v\n", v)
	}
	return b.String()
}
