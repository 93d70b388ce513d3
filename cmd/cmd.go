package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rubiojr/tourney/compat"
	"github.com/rubiojr/tourney/compiler"
	"github.com/rubiojr/tourney/evaluator"
	"github.com/rubiojr/tourney/splitter"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

// errDifferent makes diff exit 1 when any fixture differs.
var errDifferent = errors.New("differences found")

func Execute(version string) {
	app := newApp(version)
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(version string) *cli.Command {
	return &cli.Command{
		Name:                   "tourney",
		Usage:                  "Compile and run template expressions",
		Version:                version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log compiler activity to stderr",
			},
			&cli.StringFlag{
				Name:    "data-node",
				Usage:   "Identifier holding the data value in programs that define functions",
				Value:   compiler.DefaultDataNodeName,
				Sources: cli.EnvVars("TOURNEY_DATA_NODE"),
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			{
				Name:      "emit",
				Usage:     "Print the program generated for an expression",
				ArgsUsage: "<expr|->",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "analysis",
						Aliases: []string{"a"},
						Usage:   "Also print the expression analysis as JSON",
					},
				},
				Action: emitAction,
			},
			{
				Name:      "eval",
				Usage:     "Evaluate an expression and print the result as JSON",
				ArgsUsage: "<expr|->",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "Data value as JSON",
					},
					&cli.StringFlag{
						Name:    "data-file",
						Aliases: []string{"f"},
						Usage:   "Read the data value from a JSON file",
					},
					&cli.BoolFlag{
						Name:  "sloppy",
						Usage: "Run programs in sloppy mode",
					},
				},
				Action: evalAction,
			},
			{
				Name:      "split",
				Usage:     "Print the text and code spans of an expression",
				ArgsUsage: "<expr|->",
				Action:    splitAction,
			},
			{
				Name:  "diff",
				Usage: "Compare generated programs with recorded oracle output",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "fixtures",
						Usage:    "YAML file of expression records",
						Required: true,
					},
				},
				Action: diffAction,
			},
		},
	}
}

func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := slog.LevelWarn
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(cmd.Root().ErrWriter, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
	return ctx, nil
}

// expression returns the first argument, or standard input when it is "-".
func expression(cmd *cli.Command) (string, error) {
	if cmd.NArg() < 1 {
		return "", fmt.Errorf("missing expression argument")
	}
	arg := cmd.Args().First()
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(cmd.Root().Reader)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

func emitAction(ctx context.Context, cmd *cli.Command) error {
	expr, err := expression(cmd)
	if err != nil {
		return err
	}
	code, analysis, err := compiler.Generate(expr, cmd.String("data-node"), compiler.Hooks{})
	if err != nil {
		return err
	}
	out := cmd.Root().Writer
	fmt.Fprintln(out, code)
	if cmd.Bool("analysis") {
		b, err := json.Marshal(analysis)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
	}
	return nil
}

func evalAction(ctx context.Context, cmd *cli.Command) error {
	expr, err := expression(cmd)
	if err != nil {
		return err
	}
	data, err := evalData(cmd)
	if err != nil {
		return err
	}

	errOut := cmd.Root().ErrWriter
	color := useColor(cmd, errOut)
	handler := func(err error) {
		msg := err.Error()
		if color {
			msg = colorRed + msg + colorReset
		}
		fmt.Fprintln(errOut, msg)
	}
	eval := evaluator.New(handler, evaluator.WithStrict(!cmd.Bool("sloppy")))
	c := compiler.New(
		compiler.WithDataNodeName(cmd.String("data-node")),
		compiler.WithEvaluator(eval),
	)
	defer c.Close()

	res, err := c.Execute(expr, data)
	if err != nil {
		return err
	}
	if _, ok := res.(*evaluator.Function); ok {
		fmt.Fprintln(cmd.Root().Writer, "[function]")
		return nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(cmd.Root().Writer, string(b))
	return nil
}

// evalData decodes the data value from --data or --data-file. Without
// either the data value is nil, an empty object to the program.
func evalData(cmd *cli.Command) (any, error) {
	raw := cmd.String("data")
	path := cmd.String("data-file")
	if raw != "" && path != "" {
		return nil, fmt.Errorf("--data and --data-file are mutually exclusive")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading data file: %w", err)
		}
		raw = string(b)
	}
	if raw == "" {
		return nil, nil
	}
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("decoding data: %w", err)
	}
	return data, nil
}

func splitAction(ctx context.Context, cmd *cli.Command) error {
	expr, err := expression(cmd)
	if err != nil {
		return err
	}
	out := cmd.Root().Writer
	for s := range splitter.Spans(expr) {
		line := fmt.Sprintf("%-4s %q", s.Kind, s.Text)
		if s.Kind == splitter.Code && !s.HasClosingBrackets {
			line += " (unclosed)"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func diffAction(ctx context.Context, cmd *cli.Command) error {
	f, err := os.Open(cmd.String("fixtures"))
	if err != nil {
		return fmt.Errorf("opening fixtures: %w", err)
	}
	defer f.Close()

	fixtures, err := compat.LoadFixtures(f)
	if err != nil {
		return err
	}
	analyzer := compat.NewAnalyzer(compat.RecordedOracleFrom(fixtures))
	dataNode := cmd.String("data-node")

	out := cmd.Root().Writer
	color := useColor(cmd, out)
	different := 0
	for _, fx := range fixtures {
		d := analyzer.Difference(fx.Expression, dataNode)
		if !d.Same {
			different++
		}
		fmt.Fprintln(out, reportLine(d, color))
	}

	summary := fmt.Sprintf("%d expressions, %d different", len(fixtures), different)
	if color {
		if different == 0 {
			summary = colorGreen + summary + colorReset
		} else {
			summary = colorRed + summary + colorReset
		}
	}
	fmt.Fprintln(out, summary)

	if different > 0 {
		return errDifferent
	}
	return nil
}

func reportLine(d compat.Difference, color bool) string {
	status := "same"
	if !d.Same {
		status = "DIFF"
	}
	expr := "UNPARSEABLE"
	if d.Expression != nil {
		expr = d.Expression.String()
	}
	line := fmt.Sprintf("%-4s %-22s %q", status, d.Cause, expr)
	if d.Has != nil && (d.Has.HasFunction || d.Has.HasTemplateString) {
		var has []string
		if d.Has.HasFunction {
			has = append(has, "function")
		}
		if d.Has.HasTemplateString {
			has = append(has, "template string")
		}
		line += " [" + strings.Join(has, ", ") + "]"
	}
	if !color {
		return line
	}
	if d.Same {
		return colorGreen + line + colorReset
	}
	return colorRed + line + colorReset
}

// useColor reports whether w is a terminal and color was not disabled by
// --no-color or NO_COLOR.
func useColor(cmd *cli.Command, w io.Writer) bool {
	if cmd.Bool("no-color") || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
