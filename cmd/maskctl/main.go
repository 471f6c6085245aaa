package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"retouch-bot/config"
	app "retouch-bot/internal/application"
	"retouch-bot/internal/domain/entity"
	"retouch-bot/internal/infrastructure/backend"
	"retouch-bot/internal/infrastructure/host"
	"retouch-bot/internal/infrastructure/imaging"
	"retouch-bot/internal/infrastructure/vision"
	"retouch-bot/internal/logger"
)

// pointFlags повторяемый флаг --point X,Y[,fg|bg]
type pointFlags []entity.AnnotationPoint

func (p *pointFlags) String() string {
	parts := make([]string, 0, len(*p))
	for _, pt := range *p {
		parts = append(parts, pt.String())
	}
	return strings.Join(parts, "; ")
}

func (p *pointFlags) Set(raw string) error {
	pt, err := parsePointFlag(raw)
	if err != nil {
		return err
	}
	*p = append(*p, pt)
	return nil
}

func (p *pointFlags) Type() string {
	return "point"
}

var _ pflag.Value = (*pointFlags)(nil)

func parsePointFlag(raw string) (entity.AnnotationPoint, error) {
	parts := strings.Split(raw, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return entity.AnnotationPoint{}, fmt.Errorf("%w: point must be X,Y[,fg|bg], got %q", entity.ErrInvalidInput, raw)
	}
	label := ""
	if len(parts) == 3 {
		label = parts[2]
	}
	return entity.ParseAnnotationPoint(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(label))
}

type options struct {
	in        string
	out       string
	place     string
	format    string
	retouch   string
	lut       string
	intensity float64
	url       string
	timeout   time.Duration
	points    pointFlags
}

// stderrNotifier печатает статусы сборщика в stderr
type stderrNotifier struct {
	w io.Writer
}

func (n stderrNotifier) Notify(_ context.Context, notice entity.Notice) {
	fmt.Fprintf(n.w, "[%s] %s\n", notice.Level, notice.Text)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(os.Args)
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"maskctl"}
	}

	opts := &options{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(normalizeLegacyArgs(cmd, args[1:]))
	return cmd.Execute()
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "maskctl",
		Short:         "Create a point-prompted mask, retouch or LUT layer for a document",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.Context(), *opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.in, "in", "", "Document path, or 'screen' for the primary display")
	cmd.Flags().Var(&opts.points, "point", "Annotation point X,Y[,fg|bg] (repeatable)")
	cmd.Flags().StringVar(&opts.out, "out", "layers", "Output directory for placed layers")
	cmd.Flags().StringVar(&opts.place, "place", "file", "Placement target: file|clipboard")
	cmd.Flags().StringVar(&opts.format, "format", "png", "Layer format: png|webp")
	cmd.Flags().StringVar(&opts.retouch, "retouch", "", "Retouch prompt instead of a mask")
	cmd.Flags().StringVar(&opts.lut, "lut", "", "LUT name instead of a mask")
	cmd.Flags().Float64Var(&opts.intensity, "intensity", 1.0, "LUT intensity in [0,1]")
	cmd.Flags().StringVar(&opts.url, "url", "", "Backend URL (default from BACKEND_URL)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Backend request timeout (default from BACKEND_TIMEOUT)")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

// normalizeLegacyArgs принимает и однодефисную форму длинных флагов: -in, -point=...
func normalizeLegacyArgs(cmd *cobra.Command, args []string) []string {
	normalized := make([]string, len(args))
	copy(normalized, args)

	for i, arg := range normalized {
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") || len(arg) < 3 {
			continue
		}
		name, _, _ := strings.Cut(arg[1:], "=")
		if cmd.Flags().Lookup(name) != nil {
			normalized[i] = "-" + arg
		}
	}
	return normalized
}

func runWithOptions(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.url == "" {
		opts.url = cfg.Backend.URL
	}
	if opts.timeout <= 0 {
		opts.timeout = cfg.Backend.Timeout
	}

	zl, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync(zl)

	client, err := backend.NewClient(opts.url, backend.Options{
		Prefix:  cfg.Backend.Prefix,
		Timeout: opts.timeout,
		Logger:  zl,
	})
	if err != nil {
		return err
	}

	processor := imaging.NewProcessor()
	bridge := host.Resolve(func() (host.Host, error) { return resolveHost(opts, zl) }, zl)
	zl.Info("host resolved", zap.Stringer("bridge", bridge))

	if opts.retouch != "" || opts.lut != "" {
		svc := app.NewRetouchService(bridge, client, processor, app.RetouchDefaults{
			Operation:     cfg.Retouch.Operation,
			Strength:      cfg.Retouch.Strength,
			GuidanceScale: cfg.Retouch.GuidanceScale,
			Steps:         cfg.Retouch.Steps,
			Timeout:       opts.timeout,
		}, zl)

		var out *app.RetouchResultOutput
		if opts.retouch != "" {
			out, err = svc.Retouch(ctx, opts.retouch)
		} else {
			out, err = svc.ApplyLUT(ctx, opts.lut, opts.intensity)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, out.Status)
		return nil
	}

	workflow := app.NewMaskWorkflow(bridge, client, stderrNotifier{w: stderr}, app.DispatcherOptions{
		Timeout:         opts.timeout,
		MultimaskOutput: cfg.Segmentation.MultimaskOutput,
		Normalizer:      processor,
	}, zl)
	if err := workflow.Collector().Start(ctx); err != nil {
		return err
	}
	for _, p := range opts.points {
		if err := workflow.Collector().Add(ctx, p); err != nil {
			return err
		}
	}

	out, err := workflow.CreateMask(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, out.Status)
	return nil
}

// resolveHost выбирает источник документа и приёмник слоёв
func resolveHost(opts options, log *zap.Logger) (host.Host, error) {
	files := host.NewFileHost(opts.in, opts.out, opts.format, vision.NewMaskHighlighter(), log)

	var capturer = host.Host(files)
	if opts.in == "screen" {
		files.DocumentPath = ""
		capturer = host.Compose(host.NewScreenCapturer(0), files)
	}

	switch opts.place {
	case "file":
		return capturer, nil
	case "clipboard":
		clip, err := host.NewClipboardPlacer(log)
		if err != nil {
			return nil, fmt.Errorf("clipboard unavailable: %w", err)
		}
		return host.Compose(capturer, clip), nil
	default:
		return nil, fmt.Errorf("unknown placement target %q", opts.place)
	}
}
