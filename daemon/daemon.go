// Package daemon provides lifecycle management for the docdex watch daemon.
//
// It handles PID file management, process spawning, and process lifecycle
// operations for running docdex watch in background mode.
//
// # PID File Format
//
// The PID file contains a single line with the process ID as a decimal
// integer. This format is stable; if additional metadata is needed it will
// live in a separate file.
//
// # Thread Safety
//
// PID file writes use file locking (flock on Unix, LockFileEx on Windows) to
// prevent race conditions when multiple processes attempt to start
// simultaneously.
package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

const (
	pidFileName   = "docdex-watch.pid"
	logFileName   = "docdex-watch.log"
	readyFileName = "docdex-watch.ready"

	// BackgroundEnv marks a process spawned by SpawnBackground.
	BackgroundEnv = "DOCDEX_BACKGROUND"
)

// GetDefaultLogDir returns the OS-specific default log directory.
//
// Platform-specific defaults:
//   - Linux:   $XDG_STATE_HOME/docdex/logs or ~/.local/state/docdex/logs
//   - macOS:   ~/Library/Logs/docdex
//   - Windows: %LOCALAPPDATA%\docdex\logs
//
// The directory may not exist yet; callers should create it with
// os.MkdirAll if needed.
func GetDefaultLogDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Logs", "docdex"), nil
	case "windows":
		if base := os.Getenv("LOCALAPPDATA"); base != "" {
			return filepath.Join(base, "docdex", "logs"), nil
		}
		return filepath.Join(homeDir, "AppData", "Local", "docdex", "logs"), nil
	default: // Linux and other Unix-like systems
		if base := os.Getenv("XDG_STATE_HOME"); base != "" {
			return filepath.Join(base, "docdex", "logs"), nil
		}
		return filepath.Join(homeDir, ".local", "state", "docdex", "logs"), nil
	}
}

// GetLogFile returns the path to the watch daemon log file inside logDir.
func GetLogFile(logDir string) string {
	return filepath.Join(logDir, logFileName)
}

// WritePIDFile writes the current process ID to the PID file. The lock is
// held for the lifetime of the process and released by the OS on exit.
func WritePIDFile(logDir string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	pidPath := filepath.Join(logDir, pidFileName)
	lockPath := pidPath + ".lock"

	lockFh, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	if err := lockFile(lockFh); err != nil {
		lockFh.Close()
		return fmt.Errorf("another docdex watch process is starting (lock held)")
	}

	// Write PID atomically using temp file + rename
	pid := os.Getpid()
	content := fmt.Sprintf("%d\n", pid)
	tmpPath := pidPath + ".tmp"

	if err := os.WriteFile(tmpPath, []byte(content), 0600); err != nil {
		lockFh.Close()
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	if err := os.Rename(tmpPath, pidPath); err != nil {
		os.Remove(tmpPath)
		lockFh.Close()
		return fmt.Errorf("failed to rename PID file: %w", err)
	}

	// Keep lock file open and locked for the lifetime of this process.
	return nil
}

// ReadPIDFile reads the process ID from the PID file in the given logDir.
//
// Return values:
//   - (0, nil):   no PID file exists
//   - (pid, nil): PID file exists and contains a valid process ID
//   - (0, error): PID file exists but is corrupt or unreadable
//
// This does NOT check whether the process is running; use GetRunningPID for
// stale PID detection and cleanup.
func ReadPIDFile(logDir string) (int, error) {
	pidPath := filepath.Join(logDir, pidFileName)

	data, err := os.ReadFile(pidPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}

	return pid, nil
}

// RemovePIDFile removes the PID file and its associated lock file.
func RemovePIDFile(logDir string) error {
	pidPath := filepath.Join(logDir, pidFileName)
	lockPath := pidPath + ".lock"

	_ = os.Remove(lockPath)

	if err := os.Remove(pidPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// GetRunningPID returns the PID of the running watch daemon, or 0 if not
// running. Stale PID files (where the process no longer exists) are removed.
func GetRunningPID(logDir string) (int, error) {
	pid, err := ReadPIDFile(logDir)
	if err != nil {
		return 0, err
	}

	if pid == 0 {
		return 0, nil
	}

	if !IsProcessRunning(pid) {
		_ = RemovePIDFile(logDir)
		return 0, nil
	}

	return pid, nil
}

// WriteReadyFile writes the ready marker file to indicate the daemon has
// finished initializing (store connected, initial sync complete).
func WriteReadyFile(logDir string) error {
	readyPath := filepath.Join(logDir, readyFileName)
	content := fmt.Sprintf("ready\n%d\n", os.Getpid())
	if err := os.WriteFile(readyPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write ready file: %w", err)
	}
	return nil
}

// RemoveReadyFile removes the ready marker file.
func RemoveReadyFile(logDir string) error {
	readyPath := filepath.Join(logDir, readyFileName)
	if err := os.Remove(readyPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove ready file: %w", err)
	}
	return nil
}

// IsReady checks if the ready marker file exists.
func IsReady(logDir string) bool {
	readyPath := filepath.Join(logDir, readyFileName)
	_, err := os.Stat(readyPath)
	return err == nil
}

// SpawnBackground re-executes the current binary as a detached background
// process with stdout/stderr redirected to the daemon log file and
// DOCDEX_BACKGROUND=1 set.
//
// Returns the child PID and an exit channel. The channel is closed when the
// child terminates, enabling callers to detect early failures without
// relying on kill(0), which reports zombies as alive.
func SpawnBackground(logDir string, args []string) (int, <-chan struct{}, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return 0, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	executable, err := os.Executable()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	logFile, err := os.OpenFile(GetLogFile(logDir), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	liveness, err := newLivenessCheck()
	if err != nil {
		logFile.Close()
		return 0, nil, err
	}

	cmd := exec.Command(executable, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	cmd.Env = append(os.Environ(), BackgroundEnv+"=1")
	cmd.SysProcAttr = sysProcAttr()
	liveness.configureCmd(cmd)

	if err := cmd.Start(); err != nil {
		logFile.Close()
		liveness.cleanup()
		return 0, nil, fmt.Errorf("failed to start background process: %w", err)
	}

	logFile.Close()
	exitCh := liveness.start(cmd.Process.Pid)

	return cmd.Process.Pid, exitCh, nil
}
