// File: cmd/logs.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hpcloud/tail"
	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

func newLogsCmd() *cobra.Command {
	var (
		follow bool
		level  string
	)
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the structured log file, optionally following it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			path := cfg.Logger().LogFile
			if path == "" {
				return errors.New("logger.log_file is not configured")
			}
			var min zapcore.Level
			if err := min.UnmarshalText([]byte(level)); err != nil {
				return fmt.Errorf("invalid --level: %w", err)
			}
			return streamLogs(cmd.Context(), path, follow, min, cmd.OutOrStdout())
		},
	}
	logsCmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing new entries as they are written")
	logsCmd.Flags().StringVar(&level, "level", "debug", "lowest level to print")
	return logsCmd
}

// streamLogs prints the file at path. With follow it waits for new lines
// until ctx ends.
func streamLogs(ctx context.Context, path string, follow bool, min zapcore.Level, w io.Writer) error {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    follow,
		ReOpen:    follow,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		t.Stop()
		t.Cleanup()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				return fmt.Errorf("failed to read log file: %w", line.Err)
			}
			if out, keep := formatLogLine(line.Text, min); keep {
				fmt.Fprintln(w, out)
			}
		}
	}
}

// logRecord is the subset of the JSON file encoder's fields the command shows.
type logRecord struct {
	Time    string `json:"ts"`
	Level   string `json:"level"`
	Logger  string `json:"logger"`
	Message string `json:"msg"`
	State   string `json:"state"`
	Error   string `json:"error"`
}

// formatLogLine renders one JSON log line for the terminal. Lines that are not
// JSON pass through unchanged.
func formatLogLine(raw string, min zapcore.Level) (string, bool) {
	var rec logRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.Message == "" {
		return raw, strings.TrimSpace(raw) != ""
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(rec.Level)); err == nil && lvl < min {
		return "", false
	}

	ts := rec.Time
	if parsed, err := time.Parse("2006-01-02T15:04:05.000Z07:00", rec.Time); err == nil {
		ts = parsed.Format("15:04:05.000")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s", ts, strings.ToUpper(rec.Level))
	if rec.Logger != "" {
		fmt.Fprintf(&b, " [%s]", rec.Logger)
	}
	if rec.State != "" {
		fmt.Fprintf(&b, " (%s)", rec.State)
	}
	b.WriteString(" ")
	b.WriteString(rec.Message)
	if rec.Error != "" {
		b.WriteString(": ")
		b.WriteString(rec.Error)
	}
	return b.String(), true
}
