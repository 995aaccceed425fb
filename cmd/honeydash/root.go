package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Riesling1623/honeydash/internal/adapter/external/analysisapi"
	"github.com/Riesling1623/honeydash/internal/config"
)

// app carries what every subcommand shares once flags are parsed
type app struct {
	v       *viper.Viper
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "honeydash",
		Short: "SSH honeypot analytics dashboard",
		Long: `honeydash reads the daily analysis reports of an SSH honeypot through the
analysis API and shows them as counters, charts and a filterable session table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: config.yaml in ., /app or /etc/honeydash)")
	root.PersistentFlags().String("api-url", "", "analysis API base URL (env DASHBOARD_API_URL)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log to stderr")

	a.v.BindPFlag("DASHBOARD_API_URL", root.PersistentFlags().Lookup("api-url"))

	root.AddCommand(
		newTUICmd(a),
		newSessionsCmd(a),
		newExportCmd(a),
		newDatesCmd(a),
		newMockgenCmd(a),
		newHashPasswordCmd(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	}
	cfg, err := config.LoadFrom(a.v)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	a.cfg = cfg

	var w io.Writer = io.Discard
	if a.verbose {
		w = cmd.ErrOrStderr()
	}
	a.logger = config.SetupLoggerTo(cfg, w)
	return nil
}

// logToFile sends logs to the dashboard log file so they do not corrupt the TUI
func (a *app) logToFile() (func(), error) {
	if a.cfg.Dashboard.LogFile == "" {
		a.logger = config.SetupLoggerTo(a.cfg, io.Discard)
		return func() {}, nil
	}
	f, err := os.OpenFile(a.cfg.Dashboard.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	a.logger = config.SetupLoggerTo(a.cfg, f)
	return func() { f.Close() }, nil
}

func (a *app) client() *analysisapi.Client {
	return analysisapi.NewClient(analysisapi.Config{
		BaseURL:  a.cfg.Dashboard.APIURL,
		Username: a.cfg.Dashboard.Username,
		Password: a.cfg.Dashboard.Password,
		Timeout:  a.cfg.Dashboard.Timeout,
	})
}

// addRangeFlags registers --start and --end defaulting to yesterday and today
func addRangeFlags(cmd *cobra.Command, start, end *string) {
	now := time.Now()
	cmd.Flags().StringVar(start, "start", now.AddDate(0, 0, -1).Format("2006-01-02"), "first day (YYYY-MM-DD or YYYYMMDD)")
	cmd.Flags().StringVar(end, "end", now.Format("2006-01-02"), "last day (YYYY-MM-DD or YYYYMMDD)")
}
