package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/HolgerKurtz/meta-ads-insights/internal/config"
	"github.com/HolgerKurtz/meta-ads-insights/internal/fetch"
	"github.com/HolgerKurtz/meta-ads-insights/internal/normalize"
	"github.com/HolgerKurtz/meta-ads-insights/internal/query"
	"github.com/HolgerKurtz/meta-ads-insights/internal/schema"
	"github.com/HolgerKurtz/meta-ads-insights/internal/service"
)

// loadSettings reads the effective settings from the global viper instance.
func loadSettings() (config.Settings, error) {
	return config.FromViper(viper.GetViper())
}

// newLogger builds the slog logger described by the log settings. Logs go to
// w so that stdout stays clean for command output.
func newLogger(s config.LogSettings, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if s.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// pipeline is everything a command needs to run queries.
type pipeline struct {
	settings config.Settings
	logger   *slog.Logger
	fetcher  *fetch.Fetcher
	svc      *service.InsightsService
}

// newPipeline loads the settings and the schema registry and wires the
// fetcher and insights service.
func newPipeline(cmd *cobra.Command) (*pipeline, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	logger := newLogger(settings.Log, cmd.ErrOrStderr())

	reg, err := schema.Load(settings.Schema.File)
	if err != nil {
		return nil, err
	}
	if settings.Schema.File != "" {
		logger.Debug("schema registry loaded", "path", settings.Schema.File)
	}

	fetcher := fetch.New(fetch.Options{
		Timeout:      settings.Graph.Timeout,
		RateLimitRPS: settings.Graph.RateLimitRPS,
		MaxEntries:   settings.Cache.MaxEntries,
		Logger:       logger,
	})
	svc := service.NewInsightsService(reg, fetcher, service.InsightsOptions{
		BaseURL:   settings.Graph.BaseURL,
		Normalize: normalize.Options{NullUnrecognizedLists: settings.Normalize.NullUnrecognizedLists},
		Logger:    logger,
	})
	return &pipeline{settings: settings, logger: logger, fetcher: fetcher, svc: svc}, nil
}

// selectionFlags holds the query selection shared by url and run.
type selectionFlags struct {
	account       string
	token         string
	level         string
	datePreset    string
	timeIncrement string
	breakdowns    []string
	fields        []string
	start         string
	end           string
	goal          string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.account, "account", "a", "", "Ad account id, without the act_ prefix")
	fl.StringVar(&f.token, "token", "", "Graph API access token (default: graph.access_token, prompted on a terminal)")
	fl.StringVarP(&f.level, "level", "l", "", "Aggregation level (default from the schema registry)")
	fl.StringVarP(&f.datePreset, "date-preset", "d", "", "Relative date window, or 'custom' with --start and --end")
	fl.StringVar(&f.timeIncrement, "time-increment", "", "Time bucketing of rows")
	fl.StringSliceVarP(&f.breakdowns, "breakdowns", "b", nil, "Breakdown dimensions (comma-separated)")
	fl.StringSliceVarP(&f.fields, "fields", "f", nil, "Fields to request (comma-separated); conversion fields are always added")
	fl.StringVar(&f.start, "start", "", "First day of a custom range (YYYY-MM-DD)")
	fl.StringVar(&f.end, "end", "", "Last day of a custom range (YYYY-MM-DD)")
	fl.StringVarP(&f.goal, "goal", "g", "", "Conversion goal action type")
}

// spec turns the flags into a query spec with registry defaults applied.
// A missing token falls back to the configured one and then to a prompt.
func (f *selectionFlags) spec(cmd *cobra.Command, p *pipeline) (query.Spec, error) {
	spec := query.Spec{
		AccountID:      strings.TrimSpace(f.account),
		AccessToken:    strings.TrimSpace(f.token),
		Level:          f.level,
		DatePreset:     f.datePreset,
		TimeIncrement:  f.timeIncrement,
		Breakdowns:     trimAll(f.breakdowns),
		Fields:         trimAll(f.fields),
		ConversionGoal: f.goal,
	}

	var err error
	if spec.StartDate, err = query.ParseDate(f.start); err != nil {
		return query.Spec{}, fmt.Errorf("invalid --start: %w", err)
	}
	if spec.EndDate, err = query.ParseDate(f.end); err != nil {
		return query.Spec{}, fmt.Errorf("invalid --end: %w", err)
	}

	if spec.AccessToken == "" {
		spec.AccessToken = p.settings.Graph.AccessToken
	}
	if spec.AccessToken == "" && spec.AccountID != "" {
		if spec.AccessToken, err = promptToken(cmd); err != nil {
			return query.Spec{}, err
		}
	}
	return p.svc.Prepare(spec), nil
}

// isTerminal is replaced in tests.
var isTerminal = term.IsTerminal

// promptToken reads the access token without echo when stdin is a terminal.
// It returns an empty token otherwise.
func promptToken(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return "", nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Access token: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// warn prints a user-facing warning to stderr.
func warn(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", msg)
}
