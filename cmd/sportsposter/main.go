// Package main provides the CLI entrypoint for sportsposter.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/sportsposter/internal/config"
	"github.com/verte-zerg/sportsposter/internal/loader"
	"github.com/verte-zerg/sportsposter/internal/logging"
	"github.com/verte-zerg/sportsposter/internal/model"
	"github.com/verte-zerg/sportsposter/internal/pickui"
	"github.com/verte-zerg/sportsposter/internal/poster"
	"github.com/verte-zerg/sportsposter/internal/render"
	"github.com/verte-zerg/sportsposter/internal/server"
	"github.com/verte-zerg/sportsposter/internal/session"
	"github.com/verte-zerg/sportsposter/internal/stats"
	"github.com/verte-zerg/sportsposter/internal/store"
)

const (
	defaultScale       = 2.0
	defaultUnit        = "km"
	defaultHistoryLast = 20
	defaultLogLevel    = "warn"
)

var (
	inputFile    string
	outDir       string
	renderScale  float64
	renderTitle  string
	renderFooter string
	renderPNG    bool
	renderSVG    bool

	yearValue int
	unitName  string
	pickScope bool

	summaryColor bool

	serveAddr        string
	serveMaxUploadMB int
	serveUploadRPS   float64
	serveUploadBurst int
	serveSessions    int
	serveSessionTTL  string

	historyLast    int
	historyVariant string
	historySince   string

	logLevel string
	logFile  string
	logJSON  bool

	fileCfg   config.FileConfig
	logCloser io.Closer
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "sportsposter",
		Short:             "Turn a Strava activities export into a poster",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setup,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logCloser == nil {
				return
			}
			if err := logCloser.Close(); err != nil {
				logErrf("failed to close log file: %v\n", err)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to a rotated file")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log in JSON format")

	rootCmd.AddCommand(newMonthCmd())
	rootCmd.AddCommand(newYearCmd())
	rootCmd.AddCommand(newYearsCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// setup loads the config file and configures logging before any command.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	fileCfg = cfg

	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)
	if fileCfg.Log.Format != nil && !cmd.Flags().Changed("log-json") {
		logJSON = strings.EqualFold(*fileCfg.Log.Format, "json")
	}
	logCloser = logging.Setup(logging.Params{
		Level:      logLevel,
		FormatJSON: logJSON,
		FileName:   logFile,
	})
	return nil
}

func addInputFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "Strava activities.csv export")
	_ = cmd.MarkFlagRequired("file")
}

func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outDir, "out", "o", config.DefaultOutputDir(), "output directory")
	cmd.Flags().Float64Var(&renderScale, "scale", defaultScale, "PNG scale factor (0-4]")
	cmd.Flags().StringVar(&renderTitle, "title", "", "poster title")
	cmd.Flags().StringVar(&renderFooter, "footer", poster.DefaultStyle().Footer, "poster footer")
	cmd.Flags().BoolVar(&renderPNG, "png", true, "write a PNG file")
	cmd.Flags().BoolVar(&renderSVG, "svg", true, "write an SVG file")
}

func newMonthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Render the last-month poster",
		Args:  cobra.NoArgs,
		RunE:  runMonthCmd,
	}
	addInputFlag(cmd)
	addRenderFlags(cmd)
	return cmd
}

func runMonthCmd(cmd *cobra.Command, _ []string) error {
	opts, err := renderOptions(cmd)
	if err != nil {
		return err
	}
	sess, err := openSession(inputFile)
	if err != nil {
		return err
	}
	return renderScope(cmd, sess, model.Scope{Variant: model.VariantMonth}, opts)
}

func newYearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "year",
		Short: "Render the yearly poster",
		Args:  cobra.NoArgs,
		RunE:  runYearCmd,
	}
	addInputFlag(cmd)
	addRenderFlags(cmd)
	cmd.Flags().IntVar(&yearValue, "year", 0, "calendar year (default: latest in file)")
	cmd.Flags().StringVar(&unitName, "unit", defaultUnit, "distance unit (none, km, m, mi)")
	cmd.Flags().BoolVar(&pickScope, "pick", false, "choose year and unit interactively")
	return cmd
}

func runYearCmd(cmd *cobra.Command, _ []string) error {
	applyStringConfig(cmd, "unit", &unitName, fileCfg.Render.Unit)
	opts, err := renderOptions(cmd)
	if err != nil {
		return err
	}
	unit, err := model.ParseDistanceUnit(unitName)
	if err != nil {
		return fmt.Errorf("invalid --unit value: %w", err)
	}

	sess, err := openSession(inputFile)
	if err != nil {
		return err
	}
	table := sess.Table()
	years := table.Years()
	if len(years) == 0 {
		return fmt.Errorf("%s contains no activities", inputFile)
	}

	year := years[0]
	if cmd.Flags().Changed("year") {
		year = yearValue
	}
	if pickScope {
		picker := pickui.NewModel(table.Records, years, unit)
		final, err := tea.NewProgram(picker, tea.WithAltScreen()).Run()
		if err != nil {
			return fmt.Errorf("failed to run picker: %w", err)
		}
		sel := final.(*pickui.Model).Selection()
		if sel.Canceled {
			logErrln("Canceled.")
			return nil
		}
		year, unit = sel.Year, sel.Unit
	}
	if !containsYear(years, year) {
		logErrf("No activities in %d; the poster will be empty.\n", year)
	}

	return renderScope(cmd, sess, model.Scope{Variant: model.VariantYear, Year: year, Unit: unit}, opts)
}

func newYearsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "years",
		Short: "List the years present in an export",
		Args:  cobra.NoArgs,
		RunE:  runYearsCmd,
	}
	addInputFlag(cmd)
	return cmd
}

func runYearsCmd(cmd *cobra.Command, _ []string) error {
	sess, err := openSession(inputFile)
	if err != nil {
		return err
	}
	years := sess.Table().Years()
	if len(years) == 0 {
		logErrln("No activities found.")
		return nil
	}
	for _, y := range years {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), y); err != nil {
			return err
		}
	}
	return nil
}

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print category ranking, totals and a moving-time plot",
		Args:  cobra.NoArgs,
		RunE:  runSummaryCmd,
	}
	addInputFlag(cmd)
	cmd.Flags().IntVar(&yearValue, "year", 0, "summarize a calendar year instead of the last month")
	cmd.Flags().StringVar(&unitName, "unit", defaultUnit, "distance unit (none, km, m, mi)")
	cmd.Flags().BoolVar(&summaryColor, "color", false, "force colored plot output")
	return cmd
}

func runSummaryCmd(cmd *cobra.Command, _ []string) error {
	applyStringConfig(cmd, "unit", &unitName, fileCfg.Render.Unit)
	unit, err := model.ParseDistanceUnit(unitName)
	if err != nil {
		return fmt.Errorf("invalid --unit value: %w", err)
	}
	table, err := loadTable(inputFile)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if !cmd.Flags().Changed("year") {
		report := stats.AggregateMonth(table.Records)
		if err := stats.RenderCategoryTable(w, stats.RankCategories(report.Records)); err != nil {
			return err
		}
		if err := stats.RenderTotals(w, stats.Summary(report.Records, unit), unit); err != nil {
			return err
		}
		return stats.PlotMonth(w, report, 0, 0, summaryColor)
	}

	report := stats.AggregateYear(table.Records, yearValue, unit)
	if report.Empty() {
		logErrf("No activities in %d.\n", yearValue)
		return nil
	}
	records := make([]model.ActivityRecord, len(report.Records))
	for i, r := range report.Records {
		records[i] = r.ActivityRecord
	}
	if err := stats.RenderCategoryTable(w, report.CategoryCounts); err != nil {
		return err
	}
	if err := stats.RenderMonthlyTable(w, report); err != nil {
		return err
	}
	if err := stats.RenderTotals(w, stats.Summary(records, unit), unit); err != nil {
		return err
	}
	return stats.PlotYear(w, report, 0, 0, summaryColor)
}

func newServeCmd() *cobra.Command {
	defaults := server.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload web interface",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaults.Addr, "listen address")
	cmd.Flags().IntVar(&serveMaxUploadMB, "max-upload-mb", int(defaults.MaxUploadBytes>>20), "maximum upload size in MB")
	cmd.Flags().Float64Var(&serveUploadRPS, "upload-rps", defaults.UploadRPS, "uploads per second per client")
	cmd.Flags().IntVar(&serveUploadBurst, "upload-burst", defaults.UploadBurst, "upload burst per client")
	cmd.Flags().IntVar(&serveSessions, "sessions", defaults.Sessions, "maximum live sessions")
	cmd.Flags().StringVar(&serveSessionTTL, "session-ttl", defaults.SessionTTL.String(), "idle session lifetime")
	cmd.Flags().Float64Var(&renderScale, "scale", defaults.Scale, "PNG scale factor (0-4]")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Serve.Addr)
	applyIntConfig(cmd, "max-upload-mb", &serveMaxUploadMB, fileCfg.Serve.MaxUploadMB)
	applyFloatConfig(cmd, "upload-rps", &serveUploadRPS, fileCfg.Serve.UploadRPS)
	applyIntConfig(cmd, "upload-burst", &serveUploadBurst, fileCfg.Serve.UploadBurst)
	applyIntConfig(cmd, "sessions", &serveSessions, fileCfg.Serve.Sessions)
	applyStringConfig(cmd, "session-ttl", &serveSessionTTL, fileCfg.Serve.SessionTTL)
	applyFloatConfig(cmd, "scale", &renderScale, fileCfg.Render.Scale)

	ttl, err := time.ParseDuration(serveSessionTTL)
	if err != nil {
		return fmt.Errorf("invalid --session-ttl value: %w", err)
	}
	if ttl <= 0 {
		return fmt.Errorf("--session-ttl must be > 0")
	}

	cfg := server.DefaultConfig()
	cfg.Addr = serveAddr
	cfg.MaxUploadBytes = int64(serveMaxUploadMB) << 20
	cfg.UploadRPS = serveUploadRPS
	cfg.UploadBurst = serveUploadBurst
	cfg.Sessions = serveSessions
	cfg.SessionTTL = ttl
	cfg.Scale = renderScale
	if fileCfg.Render.Title != nil {
		cfg.Style.Title = *fileCfg.Render.Title
	}
	if fileCfg.Render.Footer != nil {
		cfg.Style.Footer = *fileCfg.Render.Footer
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return err
	}

	var history server.Recorder
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		log.WithError(err).Warn("render history disabled")
	} else {
		history = st
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logErrf("Serving on %s\n", cfg.Addr)
	return server.New(cfg, history).Run(ctx)
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent renders",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLast, "last", defaultHistoryLast, "limit to last N renders")
	cmd.Flags().StringVar(&historyVariant, "variant", "", "filter by poster (month, year)")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	filter := store.HistoryFilter{Limit: historyLast}
	switch model.Variant(historyVariant) {
	case "":
	case model.VariantMonth, model.VariantYear:
		filter.Variant = model.Variant(historyVariant)
	default:
		return fmt.Errorf("--variant must be month or year")
	}
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	records, err := st.ListRenders(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(records) == 0 {
		logErrln("No renders yet.")
		return nil
	}

	perUpload := make(map[string]int)
	for _, r := range records {
		if _, ok := perUpload[r.UploadDigest]; ok {
			continue
		}
		n, err := st.CountByDigest(cmd.Context(), r.UploadDigest)
		if err != nil {
			return fmt.Errorf("failed to count renders: %w", err)
		}
		perUpload[r.UploadDigest] = n
	}
	return writeHistory(cmd.OutOrStdout(), records, perUpload)
}

// writeHistory prints one row per render. perUpload maps an upload digest
// to the number of renders made from it.
func writeHistory(w io.Writer, records []model.RenderRecord, perUpload map[string]int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tCREATED\tPOSTER\tSCOPE\tACTIVITIES\tUPLOAD RENDERS\tFILES"); err != nil {
		return err
	}
	for _, r := range records {
		files := strings.Join(nonEmpty(r.PNGPath, r.SVGPath), ", ")
		if files == "" {
			files = "-"
		}
		_, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Variant,
			r.ScopeLabel,
			r.Activities,
			perUpload[r.UploadDigest],
			files,
		)
		if err != nil {
			return err
		}
	}
	return tw.Flush()
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// renderOptions merges render flags with the [render] config section.
func renderOptions(cmd *cobra.Command) (model.RenderOptions, error) {
	applyStringConfig(cmd, "out", &outDir, fileCfg.Render.OutDir)
	applyFloatConfig(cmd, "scale", &renderScale, fileCfg.Render.Scale)
	applyStringConfig(cmd, "title", &renderTitle, fileCfg.Render.Title)
	applyStringConfig(cmd, "footer", &renderFooter, fileCfg.Render.Footer)
	applyBoolConfig(cmd, "png", &renderPNG, fileCfg.Render.PNG)
	applyBoolConfig(cmd, "svg", &renderSVG, fileCfg.Render.SVG)

	opts := model.RenderOptions{
		OutDir: outDir,
		Scale:  renderScale,
		Title:  renderTitle,
		Footer: renderFooter,
		PNG:    renderPNG,
		SVG:    renderSVG,
	}
	if err := validateOptions(opts); err != nil {
		return model.RenderOptions{}, err
	}
	return opts, nil
}

func validateOptions(opts model.RenderOptions) error {
	if err := config.NewValidator().Validate(opts); err != nil {
		return err
	}
	if !opts.PNG && !opts.SVG {
		return fmt.Errorf("nothing to write: enable --png or --svg")
	}
	return nil
}

func loadTable(path string) (*loader.Table, error) {
	sess, err := openSession(path)
	if err != nil {
		return nil, err
	}
	return sess.Table(), nil
}

// openSession reads and validates an export, leaving the session ready for
// scope selection.
func openSession(path string) (*session.Session, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	sess := session.New()
	sess.Upload(content)
	if err := sess.Validate(session.ParserFunc(loader.Parse)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.WithFields(log.Fields{
		"file":       path,
		"activities": len(sess.Table().Records),
	}).Info("export loaded")
	return sess, nil
}

func renderScope(cmd *cobra.Command, sess *session.Session, scope model.Scope, opts model.RenderOptions) error {
	if err := sess.SelectScope(scope); err != nil {
		return err
	}
	style := poster.DefaultStyle()
	style.Title = opts.Title
	style.Footer = opts.Footer
	fig, err := sess.Render(style)
	if err != nil {
		return err
	}

	out, err := render.WriteFiles(cmd.Context(), fig, scope, opts)
	if err != nil {
		return fmt.Errorf("failed to write poster: %w", err)
	}
	for _, p := range nonEmpty(out.PNGPath, out.SVGPath) {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), p); err != nil {
			return err
		}
	}

	recordHistory(cmd.Context(), model.RenderRecord{
		Variant:      scope.Variant,
		ScopeLabel:   scope.Label(),
		UploadDigest: sess.Table().Digest,
		Activities:   sess.Activities(),
		PNGPath:      out.PNGPath,
		SVGPath:      out.SVGPath,
	})
	return nil
}

// recordHistory stores a render. Failures only get logged.
func recordHistory(ctx context.Context, rec model.RenderRecord) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		log.WithError(err).Warn("failed to open history db")
		return
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	if _, err := st.InsertRender(ctx, rec); err != nil {
		log.WithError(err).Warn("failed to record render")
	}
}

func containsYear(years []int, year int) bool {
	for _, y := range years {
		if y == year {
			return true
		}
	}
	return false
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	defaults := server.DefaultConfig()
	return fmt.Sprintf(`# sportsposter configuration
# Uncomment a value to enable it. CLI flags override config values.

[render]
# out-dir = %q            # Where posters are written
# scale = %.1f            # PNG scale factor (0-4]
# unit = %q               # Distance unit for yearly posters (none, km, m, mi)
# title = ""              # Poster title
# footer = %q             # Poster footer
# png = true              # Write PNG files
# svg = true              # Write SVG files

[serve]
# addr = %q               # Listen address
# max-upload-mb = %d      # Maximum upload size in MB
# upload-rps = %.1f       # Uploads per second per client
# upload-burst = %d       # Upload burst per client
# sessions = %d           # Maximum live sessions
# session-ttl = %q        # Idle session lifetime

[log]
# level = %q              # trace, debug, info, warn, error
# format = "text"         # text or json
# file = %q               # Rotated log file
`,
		config.DefaultOutputDir(),
		defaultScale,
		defaultUnit,
		poster.DefaultStyle().Footer,
		defaults.Addr,
		defaults.MaxUploadBytes>>20,
		defaults.UploadRPS,
		defaults.UploadBurst,
		defaults.Sessions,
		defaults.SessionTTL.String(),
		defaultLogLevel,
		config.DefaultLogPath(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
