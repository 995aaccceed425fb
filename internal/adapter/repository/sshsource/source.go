package sshsource

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/Riesling1623/honeydash/internal/adapter/repository/filestore"
	"github.com/Riesling1623/honeydash/internal/entity"
)

// exit status used by the remote read command when the file does not exist
const missingFileStatus = 3

// Config holds the remote honeypot connection settings
type Config struct {
	Host    string
	Port    int
	User    string
	KeyPath string
	DataDir string
	Timeout time.Duration
}

// Runner executes a shell command on the remote host and returns its stdout
type Runner interface {
	Run(ctx context.Context, cmd string) ([]byte, error)
}

// Source reads daily reports from a honeypot host over SSH
type Source struct {
	runner  Runner
	dataDir string
	logger  *slog.Logger
}

// New creates a source that connects with key authentication
func New(cfg Config, logger *slog.Logger) *Source {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.User == "" {
		cfg.User = "cowrie"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return NewWithRunner(&sshRunner{cfg: cfg}, cfg.DataDir, logger)
}

// NewWithRunner creates a source on top of an existing command runner
func NewWithRunner(runner Runner, dataDir string, logger *slog.Logger) *Source {
	return &Source{
		runner:  runner,
		dataDir: dataDir,
		logger:  logger,
	}
}

// Report reads the report for day
func (s *Source) Report(ctx context.Context, day time.Time) (*entity.DailyReport, error) {
	file := path.Join(s.dataDir, filestore.ReportFileName(day))

	out, err := s.readFile(ctx, file)
	if err != nil {
		return nil, err
	}

	report, err := filestore.DecodeReport(out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return report, nil
}

// AvailableDates lists report dates present in the remote directory, ascending
func (s *Source) AvailableDates(ctx context.Context) ([]string, error) {
	out, err := s.runner.Run(ctx, "ls -1 "+shellQuote(s.dataDir)+" 2>/dev/null || true")
	if err != nil {
		return nil, fmt.Errorf("failed to list remote reports: %w", err)
	}

	dates := []string{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if date, ok := filestore.ParseReportFileName(strings.TrimSpace(scanner.Text())); ok {
			dates = append(dates, date)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read remote listing: %w", err)
	}

	sort.Strings(dates)
	return dates, nil
}

// Default reads the remote standalone analysis document
func (s *Source) Default(ctx context.Context) (json.RawMessage, error) {
	file := path.Join(s.dataDir, filestore.DefaultDocumentName())

	out, err := s.readFile(ctx, file)
	if err != nil {
		return nil, err
	}
	if !json.Valid(out) {
		return nil, fmt.Errorf("%s: invalid JSON document", file)
	}
	return json.RawMessage(out), nil
}

func (s *Source) readFile(ctx context.Context, file string) ([]byte, error) {
	quoted := shellQuote(file)
	cmd := fmt.Sprintf("if [ -f %s ]; then cat %s; else exit %d; fi", quoted, quoted, missingFileStatus)

	out, err := s.runner.Run(ctx, cmd)
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitStatus() == missingFileStatus {
			return nil, fmt.Errorf("%s: %w", file, entity.ErrReportNotFound)
		}
		return nil, fmt.Errorf("failed to read remote %s: %w", file, err)
	}

	s.logger.Debug("Fetched remote file", "file", file, "bytes", len(out))
	return out, nil
}

// shellQuote wraps s in single quotes for a POSIX shell
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// sshRunner opens one connection per command
type sshRunner struct {
	cfg Config
}

func (r *sshRunner) Run(ctx context.Context, cmd string) ([]byte, error) {
	if r.cfg.Host == "" {
		return nil, fmt.Errorf("honeypot SSH host not configured")
	}

	key, err := os.ReadFile(r.cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SSH key: %w", err)
	}

	config := &ssh.ClientConfig{
		User: r.cfg.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         r.cfg.Timeout,
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.Host, r.cfg.Port)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SSH: %w", err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return nil, fmt.Errorf("%w: %s", err, msg)
			}
			return nil, err
		}
		return stdout.Bytes(), nil
	}
}
