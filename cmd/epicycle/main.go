package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/epicycle/internal/api"
	"github.com/san-kum/epicycle/internal/config"
	"github.com/san-kum/epicycle/internal/epicycle"
	"github.com/san-kum/epicycle/internal/logs"
	"github.com/san-kum/epicycle/internal/storage"
	"github.com/san-kum/epicycle/internal/stroke"
	"github.com/san-kum/epicycle/internal/syncer"
	"github.com/san-kum/epicycle/internal/viz"
	"github.com/spf13/cobra"
)

var (
	configFile string
	apiURL     string
	dataDir    string
	logLevel   string
	logFile    string
	journal    bool

	sampleName string
	maxVectors int
	preset     string
	headless   bool
	offline    bool
	local      bool
	format     string
	outPath    string
	listShapes bool
	numPoints  int
)

// env is what every command needs once flags and config are merged.
type env struct {
	cfg    *config.Config
	log    *logs.Logger
	client *api.Client
	store  *storage.Store
}

func (e *env) deps() viz.Deps {
	return viz.Deps{
		Service: e.client,
		Store:   e.store,
		Config:  e.cfg,
		Log:     e.log.Logger,
		Source:  e.client.BaseURL(),
	}
}

func (e *env) theme() viz.Theme { return viz.GetTheme(e.cfg.Theme) }

func (e *env) close() { _ = e.log.Close() }

// main registers the epicycle commands. With no subcommand it opens the
// interactive gallery.
func main() {
	rootCmd := &cobra.Command{
		Use:           "epicycle",
		Short:         "draw, submit and replay fourier epicycle drawings",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer e.close()
			return viz.RunInteractive(e.deps(), e.theme())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&apiURL, "api", api.DefaultBaseURL, "drawing service base url")
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory for cached drawings and exports")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "log file (TUI commands log to a temp file by default)")
	pf.BoolVar(&journal, "journal", false, "also log to the systemd journal")

	submitCmd := &cobra.Command{
		Use:   "submit [stroke.json]",
		Short: "submit a stroke and animate its vectors",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSubmit,
	}
	submitCmd.Flags().StringVar(&sampleName, "sample", "", "submit a built-in sample shape instead of a file")
	submitCmd.Flags().IntVar(&maxVectors, "max-vectors", stroke.DefaultMaxVectors, "number of frequency vectors to request")
	submitCmd.Flags().StringVar(&preset, "preset", "", "quality preset ("+strings.Join(config.ListPresets(), ", ")+")")
	submitCmd.Flags().BoolVar(&headless, "headless", false, "poll without the TUI and print events")

	playCmd := &cobra.Command{
		Use:   "play [id]",
		Short: "animate an existing drawing",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlay,
	}
	playCmd.Flags().BoolVar(&offline, "offline", false, "play the cached copy without contacting the service")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recent drawings",
		RunE:  runList,
	}
	listCmd.Flags().BoolVar(&local, "local", false, "list cached drawings instead of the service's")

	exportCmd := &cobra.Command{
		Use:   "export [id]",
		Short: "export a drawing as svg, pdf, json or csv",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&format, "format", "svg", "output format (svg, pdf, json, csv)")
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [id]",
		Short: "plot the amplitude spectrum and traced curve",
		Args:  cobra.ExactArgs(1),
		RunE:  runSpectrum,
	}

	sampleCmd := &cobra.Command{
		Use:   "sample [shape]",
		Short: "print a sample stroke as json",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSample,
	}
	sampleCmd.Flags().BoolVar(&listShapes, "list", false, "list available shapes")
	sampleCmd.Flags().IntVar(&numPoints, "points", stroke.DefaultSamplePoints, "number of points to sample")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage the config file",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "epicycle.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(submitCmd, playCmd, listCmd, exportCmd, spectrumCmd, sampleCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads the config file and lets explicitly set flags override it.
// TUI commands keep stderr clean by logging to a file.
func setup(cmd *cobra.Command, tui bool) (*env, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("api") {
		cfg.APIURL = apiURL
	}
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if flags.Changed("journal") {
		cfg.Log.Journal = journal
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := logs.Options{Level: cfg.Log.Level, Journal: cfg.Log.Journal}
	if tui || flags.Changed("log-file") {
		opts.File = cfg.Log.File
	}
	log, err := logs.New(opts)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:    cfg,
		log:    log,
		client: api.NewClient(cfg.APIURL, cfg.RequestTimeout, log.Logger),
		store:  storage.New(cfg.DataDir),
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, epicycle.Invalid("drawing id must be a non-negative integer, got %q", s)
	}
	return id, nil
}

func readStroke(args []string) (epicycle.Stroke, int, error) {
	if sampleName != "" {
		if len(args) > 0 {
			return nil, 0, epicycle.Invalid("give either a stroke file or --sample, not both")
		}
		st, err := stroke.Sample(sampleName, stroke.DefaultSamplePoints)
		return st, 0, err
	}
	if len(args) == 0 {
		return nil, 0, epicycle.Invalid("no stroke file given (use --sample for a built-in shape)")
	}
	if args[0] == "-" {
		return stroke.Load(os.Stdin)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return stroke.Load(f)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	st, fileVectors, err := readStroke(args)
	if err != nil {
		return err
	}

	e, err := setup(cmd, !headless)
	if err != nil {
		return err
	}
	defer e.close()

	// --max-vectors beats --preset beats the stroke file beats config
	n := e.cfg.MaxVectors
	if fileVectors > 0 {
		n = fileVectors
	}
	if preset != "" {
		pn, ok := config.GetPreset(preset)
		if !ok {
			return epicycle.Invalid("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		n = pn
	}
	if cmd.Flags().Changed("max-vectors") {
		n = maxVectors
	}

	if !headless {
		return viz.RunPlayer(e.deps(), e.theme(), func(m *viz.Model) tea.Cmd {
			return m.Submit(st, n)
		})
	}

	ctx, cancel := signalContext()
	defer cancel()

	runner := syncer.NewRunner(syncer.New(syncOptions(e.cfg), e.log.Logger), e.client, e.log.Logger)
	fmt.Printf("submitting %d points to %s (max %d vectors)\n", len(st), e.client.BaseURL(), stroke.ClampMaxVectors(n))
	d, err := runner.Run(ctx, st, n, printEvent)
	return finishHeadless(e, d, err)
}

func syncOptions(cfg *config.Config) syncer.Options {
	return syncer.Options{
		PollInterval:     cfg.PollInterval,
		StabilityTimeout: cfg.StabilityTimeout,
		PendingTimeout:   cfg.PendingTimeout,
	}
}

func printEvent(ev syncer.Event) {
	switch ev.Kind {
	case syncer.EventVectors:
		fmt.Printf("drawing %d: %d vectors (max |n| = %d)\n", ev.DrawingID, len(ev.Vectors), ev.Vectors.MaxFrequency())
	case syncer.EventCompleted:
		fmt.Printf("drawing %d: complete\n", ev.DrawingID)
	case syncer.EventIncomplete, syncer.EventFailed:
		fmt.Fprintf(os.Stderr, "drawing %d: %v\n", ev.DrawingID, ev.Err)
	}
}

func finishHeadless(e *env, d *epicycle.Drawing, err error) error {
	if err != nil {
		return err
	}
	meta, err := e.store.Save(d, e.client.BaseURL())
	if err != nil {
		return err
	}
	fmt.Printf("cached drawing %d in %s\n", meta.ID, e.store.Dir())
	return nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	e, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer e.close()

	if offline {
		d, _, err := e.store.Load(id)
		if err != nil {
			return err
		}
		return viz.RunPlayer(e.deps(), e.theme(), func(m *viz.Model) tea.Cmd {
			return m.Play(d)
		})
	}
	return viz.RunPlayer(e.deps(), e.theme(), func(m *viz.Model) tea.Cmd {
		return m.Follow(id)
	})
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer e.close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if local {
		metas, err := e.store.List()
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			fmt.Println("no cached drawings")
			return nil
		}
		fmt.Fprintln(w, "ID\tSAVED\tPOINTS\tVECTORS\tMAX |N|\tSOURCE")
		for _, m := range metas {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%s\n",
				m.ID,
				m.SavedAt.Format("2006-01-02 15:04:05"),
				m.Points,
				m.Vectors,
				m.MaxFrequency,
				m.Source,
			)
		}
		return w.Flush()
	}

	ctx, cancel := signalContext()
	defer cancel()
	recent, err := e.client.ListRecent(ctx)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		fmt.Println("no drawings found")
		return nil
	}
	fmt.Fprintln(w, "ID\tTHUMBNAIL")
	for _, s := range recent {
		thumb := "-"
		if s.SvgPath != "" {
			thumb = fmt.Sprintf("%d bytes", len(s.SvgPath))
		}
		fmt.Fprintf(w, "%d\t%s\n", s.ID, thumb)
	}
	return w.Flush()
}

// loadDrawing prefers the local cache and falls back to the service,
// caching what it fetched.
func loadDrawing(ctx context.Context, e *env, id int) (*epicycle.Drawing, error) {
	d, _, err := e.store.Load(id)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, epicycle.ErrNoDataAvailable) {
		return nil, err
	}

	resp, err := e.client.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d = resp.Drawing()
	if !d.Computed() {
		return nil, &epicycle.OpError{Op: "load", DrawingID: id, Err: epicycle.ErrNoDataAvailable}
	}
	if _, err := e.store.Save(d, e.client.BaseURL()); err != nil {
		e.log.Warn("cache drawing", "drawing", id, "err", err)
	}
	return d, nil
}
