package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/Riesling1623/honeydash/internal/adapter/external/analysisapi"
	"github.com/Riesling1623/honeydash/internal/adapter/repository/clickhouse"
	"github.com/Riesling1623/honeydash/internal/adapter/repository/filestore"
	"github.com/Riesling1623/honeydash/internal/domain/sessionview"
	"github.com/Riesling1623/honeydash/internal/entity"
	"github.com/Riesling1623/honeydash/internal/ui"
	"github.com/Riesling1623/honeydash/internal/usecase/dashboard"
	"github.com/Riesling1623/honeydash/internal/usecase/export"
	"github.com/Riesling1623/honeydash/internal/usecase/mockdata"
)

func newTUICmd(a *app) *cobra.Command {
	var start, end, outDir string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := a.logToFile()
			if err != nil {
				return err
			}
			defer closeLog()

			a.logger.Info("Starting dashboard", "api_url", a.cfg.Dashboard.APIURL, "start", start, "end", end)

			return ui.Run(cmd.Context(), a.client(), ui.Options{
				StartDate: start,
				EndDate:   end,
				NoticeTTL: a.cfg.Dashboard.NoticeTTL,
				Export: func(sessions []entity.Session, startDate, endDate string) (string, error) {
					return export.WriteFile(outDir, startDate, endDate, sessions)
				},
			})
		},
	}
	addRangeFlags(cmd, &start, &end)
	cmd.Flags().StringVar(&outDir, "out", ".", "directory for exported spreadsheets")
	return cmd
}

func newSessionsCmd(a *app) *cobra.Command {
	var start, end, ip, search string
	var page int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Print one page of the session table",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.client().FetchAnalysis(cmd.Context(), start, end)
			if err != nil {
				return err
			}

			state := dashboard.NewState()
			state.Load(ds)
			state.SetFilter(ip, search)
			for state.Page() < page {
				if !state.NextPage() {
					break
				}
			}

			fmt.Fprint(cmd.OutOrStdout(), ui.RenderSessionPage(state))
			return nil
		},
	}
	addRangeFlags(cmd, &start, &end)
	cmd.Flags().StringVar(&ip, "ip", sessionview.AllIPs, "only sessions from this IP")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive match on session id, username or commands")
	cmd.Flags().IntVar(&page, "page", 1, "page to print")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var start, end, outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every session of a date range to an XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.client().FetchAnalysis(cmd.Context(), start, end)
			if err != nil {
				return err
			}

			path, err := export.WriteFile(outDir, analysisapi.NormalizeDate(start), analysisapi.NormalizeDate(end), ds.Sessions)
			if err != nil {
				return err
			}

			a.logger.Info("Exported sessions", "path", path, "sessions", len(ds.Sessions))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	addRangeFlags(cmd, &start, &end)
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	return cmd
}

func newDatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dates",
		Short: "List the days the analysis API has reports for",
		RunE: func(cmd *cobra.Command, args []string) error {
			dates, err := a.client().AvailableDates(cmd.Context())
			if err != nil {
				return err
			}
			if len(dates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reports available")
				return nil
			}
			for _, d := range dates {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}
}

func newMockgenCmd(a *app) *cobra.Command {
	var start, end, target, dir string
	var seed uint64

	cmd := &cobra.Command{
		Use:   "mockgen",
		Short: "Generate mock daily reports for development",
		RunE: func(cmd *cobra.Command, args []string) error {
			dr, err := analysisapi.ValidateDateRange(start, end)
			if err != nil {
				return err
			}
			startDay, _ := time.Parse("20060102", dr.Start)
			endDay, _ := time.Parse("20060102", dr.End)

			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			gen := mockdata.NewGenerator(seed, a.logger)

			sink, closeSink, err := a.mockSink(cmd.Context(), target, dir)
			if err != nil {
				return err
			}
			defer closeSink()

			total, err := gen.Generate(cmd.Context(), startDay, endDay, sink)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d sessions from %s to %s (%s)\n", total, dr.Start, dr.End, target)
			return nil
		},
	}
	addRangeFlags(cmd, &start, &end)
	cmd.Flags().StringVar(&target, "target", "file", "where to write reports: file or clickhouse")
	cmd.Flags().StringVar(&dir, "dir", "", "report directory for the file target (default DATA_DIR)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

func (a *app) mockSink(ctx context.Context, target, dir string) (mockdata.Sink, func(), error) {
	switch target {
	case "file":
		if dir == "" {
			dir = a.cfg.Data.Dir
		}
		return filestore.New(dir, a.logger), func() {}, nil
	case "clickhouse":
		conn, err := clickhouse.NewConnection(&a.cfg.ClickHouse, a.logger)
		if err != nil {
			return nil, nil, err
		}
		if err := conn.EnsureSchema(ctx); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return clickhouse.NewSessionsRepository(conn), func() { conn.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown target %q (want file or clickhouse)", target)
	}
}

func newHashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for AUTH_PASSWORD_HASH",
		Long:  "Hashes the password given as argument, or the first line of stdin when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		// No configuration needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}
