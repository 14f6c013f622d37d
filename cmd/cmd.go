package cmd

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/pmc-tools/pmcconf/internal/pkg/commit"
	"github.com/pmc-tools/pmcconf/internal/pkg/config"
	"github.com/pmc-tools/pmcconf/internal/pkg/convert"
	"github.com/pmc-tools/pmcconf/internal/pkg/document"
	"github.com/pmc-tools/pmcconf/internal/pkg/editor"
	"github.com/pmc-tools/pmcconf/internal/pkg/params"
)

var errUsage = errors.New("usage error")

// teaOptions is appended to the editor program's options; tests script the
// editor through it instead of a terminal.
var teaOptions []tea.ProgramOption

// setup merges env config with CLI flags and installs the global logger.
func setup(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if v := ctx.String("file"); v != "" {
		cfg.File = v
	}
	if ctx.Bool("no-backup") {
		cfg.NoBackup = true
	}
	if v := ctx.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if cfg.File == "" {
		return nil, fmt.Errorf("%w: --file is required", errUsage)
	}

	logCfg := zap.NewProductionConfig()
	logCfg.Level, err = zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logCfg.OutputPaths = []string{"stderr"}
	logCfg.ErrorOutputPaths = []string{"stderr"}
	logCfg.Sampling = nil
	logger := zap.Must(logCfg.Build())
	zap.ReplaceGlobals(logger)

	return cfg, nil
}

func load(ctx *cli.Context) (*config.Config, *document.Document, error) {
	cfg, err := setup(ctx)
	if err != nil {
		return nil, nil, err
	}
	doc, err := document.Load(cfg.File)
	if err != nil {
		return nil, nil, err
	}
	return cfg, doc, nil
}

func device(ctx *cli.Context, doc *document.Document) (*document.Device, error) {
	name := ctx.String("dev")
	if name == "" {
		return nil, fmt.Errorf("%w: --dev is required", errUsage)
	}
	return doc.Find(name)
}

// List enumerates devices with 1-based numbering in document order.
func List(ctx *cli.Context) error {
	cfg, doc, err := load(ctx)
	if err != nil {
		return err
	}
	devices := doc.Devices()
	out := ctx.App.Writer
	fmt.Fprintf(out, "Found %d devices in %s\n", len(devices), cfg.File)
	lines := lo.Map(devices, func(d document.Summary, i int) string {
		return fmt.Sprintf("%d. %s\n   Class: %s\n   Dev Name: %s", i+1, d.Name, d.Class, d.DevName)
	})
	fmt.Fprintln(out, strings.Join(lines, "\n"))
	return nil
}

// Get prints one variable: the raw value, plus the real value and the
// calculation trace for threshold parameters.
func Get(ctx *cli.Context) error {
	_, doc, err := load(ctx)
	if err != nil {
		return err
	}
	dev, err := device(ctx, doc)
	if err != nil {
		return err
	}
	variable := ctx.Args().First()
	if variable == "" {
		return fmt.Errorf("%w: get requires a VARIABLE argument", errUsage)
	}

	view, err := params.Get(dev, variable)
	if err != nil {
		return err
	}
	out := ctx.App.Writer
	if view.Real != nil {
		n, _ := params.ParseRaw(view.Raw)
		fmt.Fprintln(out, convert.Trace(n, *view.Coeff, *view.Real))
		fmt.Fprintf(out, "%s:\n  raw = %s\n  real = %s\n", view.Name, view.Hex, params.FormatReal(*view.Real))
		return nil
	}
	fmt.Fprintf(out, "%s = %s\n", view.Name, view.Raw)
	return nil
}

// Set performs one mutation and saves the document.
func Set(ctx *cli.Context) error {
	cfg, doc, err := load(ctx)
	if err != nil {
		return err
	}
	dev, err := device(ctx, doc)
	if err != nil {
		return err
	}
	variable, value := ctx.Args().Get(0), ctx.Args().Get(1)
	if variable == "" || value == "" {
		return fmt.Errorf("%w: set requires VARIABLE and VALUE arguments", errUsage)
	}

	literal, raw, err := params.Interpret(dev, variable, value)
	if err != nil {
		return err
	}
	changes := params.NewChangeSet()
	changes.Add(variable, literal)
	if err := commit.Commit(doc, dev, changes, !cfg.NoBackup); err != nil {
		return err
	}
	if literal != value {
		fmt.Fprintf(ctx.App.Writer, "Updated %s to %s (converted from real value %s, raw %d)\n", variable, literal, value, raw)
	} else {
		fmt.Fprintf(ctx.App.Writer, "Updated %s to %s\n", variable, literal)
	}
	return nil
}

// SetThresholds runs the interactive batch threshold editor and commits the
// staged change-set once the operator confirms.
func SetThresholds(ctx *cli.Context) error {
	cfg, doc, err := load(ctx)
	if err != nil {
		return err
	}
	dev, err := device(ctx, doc)
	if err != nil {
		return err
	}
	sess, err := editor.NewSession(dev)
	if err != nil {
		return err
	}

	opts := append([]tea.ProgramOption{tea.WithContext(ctx.Context)}, teaOptions...)
	p := tea.NewProgram(editor.NewModel(sess), opts...)
	if _, err := p.Run(); err != nil {
		return err
	}

	out := ctx.App.Writer
	if !sess.Applied() {
		if sess.Changes().Empty() {
			fmt.Fprintln(out, "No changes to apply.")
		} else {
			fmt.Fprintln(out, "Changes cancelled.")
		}
		return nil
	}
	if err := commit.Commit(doc, dev, sess.Changes(), !cfg.NoBackup); err != nil {
		return err
	}
	fmt.Fprintf(out, "Successfully applied %d changes!\n", sess.Changes().Len())
	return nil
}

// Info prints the full report for one device: descriptors, glyph placement,
// device-level configs, and the SDR listing with real values aligned.
func Info(ctx *cli.Context) error {
	_, doc, err := load(ctx)
	if err != nil {
		return err
	}
	dev, err := device(ctx, doc)
	if err != nil {
		return err
	}
	out := ctx.App.Writer

	fmt.Fprintf(out, "Device: %s\n", dev.Name)
	fmt.Fprintf(out, "Class: %s\n", dev.Class)
	fmt.Fprintf(out, "Dev Name: %s\n", dev.DevName)
	if name := dev.SDRName(); name != "" {
		fmt.Fprintf(out, "SDR Name: %s\n", name)
	}
	if g, ok := dev.Glyph(); ok {
		fmt.Fprintln(out, "Device Glyph:")
		fmt.Fprintf(out, "  Top Left X: %s\n  Top Left Y: %s\n  Width: %s\n  Height: %s\n",
			g.TopLeftX, g.TopLeftY, g.Width, g.Height)
	}

	fmt.Fprintln(out, "\nConfigurations:")
	for _, e := range dev.Entries() {
		fmt.Fprintf(out, "  %s: %s\n", e.Name, e.Value.Get())
	}

	if !dev.HasSDR() {
		return nil
	}
	fmt.Fprintln(out, "\nSDR:")
	coeff, coeffErr := params.Coefficients(dev)
	for _, e := range dev.SDREntries() {
		line := fmt.Sprintf("  %s: %s", e.Name, e.Value.Get())
		if coeffErr == nil && params.IsThreshold(e.Name) {
			if n, err := params.ParseRaw(e.Value.Get()); err == nil {
				line = params.AlignReal(line, convert.ToReal(n, coeff))
			}
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
