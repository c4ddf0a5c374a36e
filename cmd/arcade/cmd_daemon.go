package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/brainarcade/internal/client"
	"github.com/felixgeelhaar/brainarcade/internal/config"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the arcade daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			return startDaemon(cmd.Context(), cmd.OutOrStdout(), c)
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the arcade daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			return stopDaemon(cmd.Context(), cmd.OutOrStdout(), c)
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !isRunning(cmd.Context(), c) {
				fmt.Fprintln(out, "Status: stopped")
				return nil
			}

			status, err := c.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("get status: %w", err)
			}

			fmt.Fprintf(out, "Status:     %s\n", status.Status)
			fmt.Fprintf(out, "Version:    %s\n", status.Version)
			fmt.Fprintf(out, "Uptime:     %s\n", status.Uptime)
			fmt.Fprintf(out, "Address:    %s\n", c.BaseURL())
			fmt.Fprintf(out, "Rate limit: %t\n", status.RateLimit)

			names := make([]string, 0, len(status.Components))
			for name := range status.Components {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "  %-8s %s\n", name, status.Components[name])
			}
			return nil
		},
	}
}

func newLogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ArcadeDir()
			if err != nil {
				return err
			}
			return tailLog(cmd.OutOrStdout(), filepath.Join(dir, "logs", "arcaded.log"), 4096)
		},
	}
}

func startDaemon(ctx context.Context, out io.Writer, c *client.Client) error {
	if isRunning(ctx, c) {
		fmt.Fprintln(out, "✓ Daemon is already running")
		return nil
	}

	arcadeDir, err := config.EnsureArcadeDir()
	if err != nil {
		return fmt.Errorf("setup arcade directory: %w", err)
	}

	bin, err := findDaemonBinary()
	if err != nil {
		return fmt.Errorf("find daemon binary: %w", err)
	}

	proc := exec.Command(bin)
	proc.Dir = arcadeDir
	configureDaemonProcess(proc)

	if err := proc.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	fmt.Fprint(out, "Starting daemon...")
	for i := 0; i < 30; i++ {
		time.Sleep(100 * time.Millisecond)
		if isRunning(ctx, c) {
			fmt.Fprintln(out, " ✓")
			fmt.Fprintf(out, "Daemon running at %s\n", c.BaseURL())
			return nil
		}
		fmt.Fprint(out, ".")
	}

	fmt.Fprintln(out, " ✗")
	return fmt.Errorf("daemon failed to start (check logs with 'arcade logs')")
}

func stopDaemon(ctx context.Context, out io.Writer, c *client.Client) error {
	if !isRunning(ctx, c) {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	arcadeDir, err := config.ArcadeDir()
	if err != nil {
		return err
	}
	pid, err := readPID(filepath.Join(arcadeDir, pidFile))
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	fmt.Fprint(out, "Stopping daemon...")
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send signal: %w", err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if !isRunning(ctx, c) {
			fmt.Fprintln(out, " ✓")
			return nil
		}
		fmt.Fprint(out, ".")
	}

	fmt.Fprintln(out, " ✗")
	return fmt.Errorf("daemon did not stop gracefully")
}

func isRunning(ctx context.Context, c *client.Client) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return c.Health(ctx) == nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse PID: %w", err)
	}
	return pid, nil
}

// tailLog prints roughly the last window bytes of path, from a line start
func tailLog(out io.Writer, path string, window int64) error {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		fmt.Fprintln(out, "No log file found. Start the daemon first.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	offset := info.Size() - window
	if offset < 0 {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReader(file)
	if offset > 0 {
		_, _ = reader.ReadString('\n')
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fmt.Fprintln(out, scanner.Text())
	}
	return scanner.Err()
}

func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath("arcaded"); err == nil {
		return path, nil
	}

	if self, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(self), "arcaded")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	for _, path := range []string{"/usr/local/bin/arcaded", "./arcaded"} {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("arcaded binary not found (build with 'go build ./cmd/arcaded')")
}
