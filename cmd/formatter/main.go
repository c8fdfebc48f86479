// Команда formatter форматирует экспорт транскрипта тикета и печатает результат в stdout.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"transcript-formatter/internal/adapters/exporter"
	"transcript-formatter/internal/adapters/parser"
	"transcript-formatter/internal/adapters/source"
	"transcript-formatter/internal/core/services"
	applog "transcript-formatter/internal/log"
	"transcript-formatter/internal/pkg/config"
	"transcript-formatter/internal/pkg/geometry"
	"transcript-formatter/internal/ports"
)

type options struct {
	strict      bool
	pretty      bool
	logLevel    string
	logFormat   string
	maxWidth    int
	maxHeight   int
	groupWindow time.Duration
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:   "formatter [file]",
		Short: "Format a ticket transcript export for rendering",
		Long: "Validates a transcript export, annotates attachments and embeds, groups messages " +
			"and prints the resulting document as JSON. Reads stdin when the file is omitted or \"-\".",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := source.StdinPath
			if len(args) == 1 {
				path = args[0]
			}
			return run(cmd.Context(), opts, path, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.strict, "strict", config.DefaultStrict, "reject the document on any validation warning")
	flags.BoolVar(&opts.pretty, "pretty", false, "indent JSON output (always on for terminals)")
	flags.StringVar(&opts.logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format: json, text")
	flags.IntVar(&opts.maxWidth, "max-media-width", config.DefaultMaxMediaWidth, "media bounding box width in pixels")
	flags.IntVar(&opts.maxHeight, "max-media-height", config.DefaultMaxMediaHeight, "media bounding box height in pixels")
	flags.DurationVar(&opts.groupWindow, "group-window", config.DefaultGroupWindow, "maximum gap between messages of one group")

	return cmd
}

func run(ctx context.Context, opts options, path string, stdin io.Reader, stdout, stderr io.Writer) error {
	logger := applog.New(stderr, opts.logLevel, opts.logFormat)

	var ds ports.DataSource
	if path == source.StdinPath {
		ds = source.NewReaderSource(stdin)
	} else {
		ds = source.NewCliSource(path)
	}

	data, err := ds.Fetch()
	if err != nil {
		return err
	}

	raw, err := parser.NewJsonParser().Parse(data)
	if err != nil {
		return err
	}

	formatter := services.NewFormatter(
		services.WithStrict(opts.strict),
		services.WithLogger(logger),
		services.WithMediaBounds(geometry.Bounds{Width: opts.maxWidth, Height: opts.maxHeight}),
		services.WithGroupWindow(opts.groupWindow),
	)

	result, err := formatter.Format(ctx, raw)
	if err != nil {
		return fmt.Errorf("failed to format %s: %w", path, err)
	}

	logger.Info("Транскрипт отформатирован",
		"ticket", result.Document.TicketName(),
		"groups", len(result.Document.GroupedMessages),
		"warnings", len(result.Warnings),
	)

	return exporter.NewWriterExporter(stdout, opts.pretty).Export(result)
}
