package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yoanbernabeu/docdex/config"
	"github.com/yoanbernabeu/docdex/daemon"
	"github.com/yoanbernabeu/docdex/indexer"
	"github.com/yoanbernabeu/docdex/watcher"
)

var (
	watchTenant     string
	watchBackground bool
	watchLogDir     string
	watchStatus     bool
	watchStop       bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep tenant corpora synchronized in real time",
	Long: `Starts a process that performs an initial sync of every tenant, then
monitors each tenant root for filesystem changes and re-syncs the affected
tenant. Changes are debounced to batch rapid edits, and unchanged documents
are skipped by content fingerprint.

Background mode:
  docdex watch --background    Run in background with default log directory
  docdex watch --status        Check if a background watcher is running
  docdex watch --stop          Stop the background watcher

Default log directories:
  Linux:   ~/.local/state/docdex/logs/docdex-watch.log (or $XDG_STATE_HOME)
  macOS:   ~/Library/Logs/docdex/docdex-watch.log
  Windows: %LOCALAPPDATA%\docdex\logs\docdex-watch.log`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchTenant, "tenant", "", "Watch only this tenant (default: all configured tenants)")
	watchCmd.Flags().BoolVar(&watchBackground, "background", false, "Run in background mode")
	watchCmd.Flags().StringVar(&watchLogDir, "log-dir", "", "Directory for log files (default: OS-specific)")
	watchCmd.Flags().BoolVar(&watchStatus, "status", false, "Show background watcher status")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "Stop the background watcher")
	watchCmd.MarkFlagsMutuallyExclusive("background", "status", "stop")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logDir := watchLogDir
	if logDir == "" {
		var err error
		logDir, err = daemon.GetDefaultLogDir()
		if err != nil {
			return fmt.Errorf("failed to get default log directory: %w", err)
		}
	}

	if watchStatus {
		return showWatchStatus(logDir)
	}

	if watchStop {
		return stopWatchDaemon(logDir)
	}

	if watchBackground {
		return startBackgroundWatch(logDir)
	}

	// Foreground (or background child): refuse to double-start.
	pid, err := daemon.GetRunningPID(logDir)
	if err != nil {
		return fmt.Errorf("failed to check running status: %w", err)
	}
	if pid > 0 && pid != os.Getpid() {
		return fmt.Errorf("watcher is already running in background (PID %d)\nUse 'docdex watch --stop' to stop it", pid)
	}

	return runWatchForeground(logDir)
}

func showWatchStatus(logDir string) error {
	pid, err := daemon.GetRunningPID(logDir)
	if err != nil {
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	if pid == 0 {
		fmt.Println("Status: not running")
		fmt.Printf("Log directory: %s\n", logDir)
		return nil
	}

	fmt.Println("Status: running")
	fmt.Printf("PID: %d\n", pid)
	fmt.Printf("Log file: %s\n", daemon.GetLogFile(logDir))
	return nil
}

func stopWatchDaemon(logDir string) error {
	pid, err := daemon.GetRunningPID(logDir)
	if err != nil {
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	if pid == 0 {
		fmt.Println("No background watcher is running")
		return nil
	}

	fmt.Printf("Stopping background watcher (PID %d)...\n", pid)
	if err := daemon.StopProcess(pid); err != nil {
		return fmt.Errorf("failed to stop process: %w", err)
	}

	const shutdownTimeout = 30 * time.Second
	const pollInterval = 500 * time.Millisecond
	deadline := time.Now().Add(shutdownTimeout)

	for time.Now().Before(deadline) {
		if !daemon.IsProcessRunning(pid) {
			break
		}
		time.Sleep(pollInterval)
	}

	if daemon.IsProcessRunning(pid) {
		return fmt.Errorf("process did not stop within %v\nStill running? Try: kill -9 %d\nOr check logs at: %s",
			shutdownTimeout, pid, daemon.GetLogFile(logDir))
	}

	if err := daemon.RemovePIDFile(logDir); err != nil {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}

	fmt.Println("Background watcher stopped")
	return nil
}

func startBackgroundWatch(logDir string) error {
	pid, err := daemon.GetRunningPID(logDir)
	if err != nil {
		return fmt.Errorf("failed to check running status: %w", err)
	}
	if pid > 0 {
		return fmt.Errorf("watcher is already running (PID %d)", pid)
	}

	args := []string{"watch"}
	if watchTenant != "" {
		args = append(args, "--tenant", watchTenant)
	}
	if watchLogDir != "" {
		args = append(args, "--log-dir", watchLogDir)
	}

	childPID, exitCh, err := daemon.SpawnBackground(logDir, args)
	if err != nil {
		return fmt.Errorf("failed to start background process: %w", err)
	}

	logFile := daemon.GetLogFile(logDir)

	// Poll for the ready file with a timeout, checking for early child exit.
	const startupTimeout = 30 * time.Second
	const pollInterval = 250 * time.Millisecond
	deadline := time.Now().Add(startupTimeout)

	for time.Now().Before(deadline) {
		if daemon.IsReady(logDir) {
			fmt.Printf("Background watcher started (PID %d)\n", childPID)
			fmt.Printf("Logs: %s\n", logFile)
			fmt.Printf("\nUse 'docdex watch --status' to check status\n")
			fmt.Printf("Use 'docdex watch --stop' to stop the watcher\n")
			return nil
		}

		select {
		case <-exitCh:
			return fmt.Errorf("background process failed to start (check logs at %s)", logFile)
		default:
		}

		time.Sleep(pollInterval)
	}

	return fmt.Errorf("timeout waiting for process to become ready after %v (check logs at %s)", startupTimeout, logFile)
}

func runWatchForeground(logDir string) error {
	isBackgroundChild := os.Getenv(daemon.BackgroundEnv) == "1"
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if isBackgroundChild {
		if err := daemon.WritePIDFile(logDir); err != nil {
			return err
		}
		defer func() {
			_ = daemon.RemoveReadyFile(logDir)
			_ = daemon.RemovePIDFile(logDir)
		}()
	}

	tenants := a.cfg.TenantNames()
	if watchTenant != "" {
		if _, err := a.cfg.Tenant(watchTenant); err != nil {
			return err
		}
		tenants = []string{watchTenant}
	}

	// Initial sync of every watched tenant.
	for _, tenant := range tenants {
		tc, err := a.cfg.Tenant(tenant)
		if err != nil {
			return err
		}
		report, err := a.syncer.Sync(ctx, tenant, tc.Root, indexer.Options{})
		if err != nil {
			return fmt.Errorf("initial sync failed for tenant %s: %w", tenant, err)
		}
		log.Printf("Initial sync for %s: %d added, %d updated, %d skipped, %d deleted, %d failed (%.1fs)",
			tenant, report.Added, report.Updated, report.Skipped,
			report.Deleted, report.Failed, report.Duration.Seconds())
	}

	// Start one watcher per tenant root; any event re-syncs that tenant.
	type tenantEvent struct {
		tenant string
		event  watcher.FileEvent
	}
	eventCh := make(chan tenantEvent, 100)
	watchers := make([]*watcher.Watcher, 0, len(tenants))

	for _, tenant := range tenants {
		tc, err := a.cfg.Tenant(tenant)
		if err != nil {
			return err
		}
		matcher, err := indexer.NewIgnoreMatcher(tc.Root, config.IgnoreFileName, a.cfg.Ignore)
		if err != nil {
			return fmt.Errorf("failed to initialize ignore matcher for %s: %w", tc.Name, err)
		}

		w, err := watcher.NewWatcher(tc.Root, matcher, a.cfg.Watch.DebounceMs)
		if err != nil {
			return fmt.Errorf("failed to initialize watcher for %s: %w", tc.Name, err)
		}
		if err := w.Start(ctx); err != nil {
			w.Close()
			return fmt.Errorf("failed to start watcher for %s: %w", tc.Name, err)
		}
		watchers = append(watchers, w)

		go func(w *watcher.Watcher, tenant string) {
			for event := range w.Events() {
				select {
				case eventCh <- tenantEvent{tenant: tenant, event: event}:
				case <-ctx.Done():
					return
				}
			}
		}(w, tenant)
	}
	defer func() {
		for _, w := range watchers {
			_ = w.Close()
		}
	}()

	if isBackgroundChild {
		if err := daemon.WriteReadyFile(logDir); err != nil {
			log.Printf("Warning: failed to write ready file: %v", err)
		}
		log.Println("Watching for changes...")
	} else {
		fmt.Println("\nWatching for changes... (Press Ctrl+C to stop)")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	stopCh := daemon.StopChannel()

	for {
		select {
		case <-sigChan:
			if isBackgroundChild {
				log.Println("Shutting down...")
			} else {
				fmt.Println("\nShutting down...")
			}
			return nil

		case <-stopCh:
			log.Println("Stop file detected, shutting down...")
			return nil

		case te := <-eventCh:
			log.Printf("Change detected: %s %s (tenant %s)", te.event.Type, te.event.Path, te.tenant)
			tc, err := a.cfg.Tenant(te.tenant)
			if err != nil {
				log.Printf("Warning: %v", err)
				continue
			}
			report, err := a.syncer.Sync(ctx, te.tenant, tc.Root, indexer.Options{})
			if err != nil {
				log.Printf("Warning: sync failed for tenant %s: %v", te.tenant, err)
				continue
			}
			log.Printf("Synced %s: %d added, %d updated, %d skipped, %d deleted, %d failed",
				te.tenant, report.Added, report.Updated, report.Skipped, report.Deleted, report.Failed)
		}
	}
}
