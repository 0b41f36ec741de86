package daemon

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetDefaultLogDir(t *testing.T) {
	logDir, err := GetDefaultLogDir()
	if err != nil {
		t.Fatalf("GetDefaultLogDir() failed: %v", err)
	}

	if logDir == "" {
		t.Fatal("GetDefaultLogDir() returned empty string")
	}
	if !filepath.IsAbs(logDir) {
		t.Errorf("Expected absolute path, got: %s", logDir)
	}
	if !strings.Contains(filepath.ToSlash(logDir), "docdex") {
		t.Errorf("Expected path to contain 'docdex', got: %s", logDir)
	}
}

func TestWriteAndReadPIDFile(t *testing.T) {
	skipIfWindows(t)
	logDir := t.TempDir()

	if err := WritePIDFile(logDir); err != nil {
		t.Fatalf("WritePIDFile() failed: %v", err)
	}

	pidPath := filepath.Join(logDir, "docdex-watch.pid")
	if _, err := os.Stat(pidPath); os.IsNotExist(err) {
		t.Fatal("PID file was not created")
	}

	pid, err := ReadPIDFile(logDir)
	if err != nil {
		t.Fatalf("ReadPIDFile() failed: %v", err)
	}

	if pid != os.Getpid() {
		t.Errorf("ReadPIDFile() = %d, want %d", pid, os.Getpid())
	}
}

func TestReadPIDFile_NotExists(t *testing.T) {
	logDir := t.TempDir()

	pid, err := ReadPIDFile(logDir)
	if err != nil {
		t.Fatalf("ReadPIDFile() failed: %v", err)
	}

	if pid != 0 {
		t.Errorf("ReadPIDFile() = %d, want 0", pid)
	}
}

func TestReadPIDFile_InvalidContent(t *testing.T) {
	logDir := t.TempDir()
	pidPath := filepath.Join(logDir, "docdex-watch.pid")

	if err := os.WriteFile(pidPath, []byte("not-a-number\n"), 0644); err != nil {
		t.Fatalf("Failed to write invalid PID file: %v", err)
	}

	if _, err := ReadPIDFile(logDir); err == nil {
		t.Fatal("ReadPIDFile() should have failed with invalid content")
	}
}

func TestRemovePIDFile(t *testing.T) {
	skipIfWindows(t)
	logDir := t.TempDir()

	if err := WritePIDFile(logDir); err != nil {
		t.Fatalf("WritePIDFile() failed: %v", err)
	}

	if err := RemovePIDFile(logDir); err != nil {
		t.Fatalf("RemovePIDFile() failed: %v", err)
	}

	pidPath := filepath.Join(logDir, "docdex-watch.pid")
	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Fatal("PID file still exists after removal")
	}

	// Removing again should not error
	if err := RemovePIDFile(logDir); err != nil {
		t.Fatalf("RemovePIDFile() failed on non-existent file: %v", err)
	}
}

func TestRemovePIDFile_CleansUpLockFile(t *testing.T) {
	skipIfWindows(t)
	logDir := t.TempDir()

	if err := WritePIDFile(logDir); err != nil {
		t.Fatalf("WritePIDFile() failed: %v", err)
	}

	pidPath := filepath.Join(logDir, "docdex-watch.pid")
	lockPath := pidPath + ".lock"

	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		t.Fatal("Lock file was not created")
	}

	if err := RemovePIDFile(logDir); err != nil {
		t.Fatalf("RemovePIDFile() failed: %v", err)
	}

	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Error("PID file still exists after removal")
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("Lock file still exists after removal")
	}
}

func TestIsProcessRunning(t *testing.T) {
	if !IsProcessRunning(os.Getpid()) {
		t.Error("IsProcessRunning() returned false for current process")
	}

	if IsProcessRunning(0) {
		t.Error("IsProcessRunning() returned true for PID 0")
	}

	if IsProcessRunning(-1) {
		t.Error("IsProcessRunning() returned true for negative PID")
	}
}

func TestGetRunningPID_CleansStaleFile(t *testing.T) {
	logDir := t.TempDir()
	pidPath := filepath.Join(logDir, "docdex-watch.pid")

	if err := os.WriteFile(pidPath, []byte("9999999\n"), 0644); err != nil {
		t.Fatalf("failed to write stale PID file: %v", err)
	}

	pid, err := GetRunningPID(logDir)
	if err != nil {
		t.Fatalf("GetRunningPID() failed: %v", err)
	}
	if pid != 0 {
		t.Fatalf("GetRunningPID() = %d, want 0 for stale PID", pid)
	}

	if !IsProcessRunning(9999999) {
		if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
			t.Fatal("stale PID file was not removed")
		}
	}
}

func TestReadyFileLifecycle(t *testing.T) {
	logDir := t.TempDir()

	if IsReady(logDir) {
		t.Fatal("IsReady() should be false before write")
	}

	if err := WriteReadyFile(logDir); err != nil {
		t.Fatalf("WriteReadyFile() failed: %v", err)
	}
	if !IsReady(logDir) {
		t.Fatal("IsReady() should be true after write")
	}

	if err := RemoveReadyFile(logDir); err != nil {
		t.Fatalf("RemoveReadyFile() failed: %v", err)
	}
	if IsReady(logDir) {
		t.Fatal("IsReady() should be false after remove")
	}

	// Removing again should not error
	if err := RemoveReadyFile(logDir); err != nil {
		t.Fatalf("RemoveReadyFile() failed on non-existent file: %v", err)
	}
}

func TestConcurrentPIDAccess(t *testing.T) {
	skipIfWindows(t)
	logDir := t.TempDir()

	if err := WritePIDFile(logDir); err != nil {
		t.Fatalf("WritePIDFile() failed: %v", err)
	}

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func() {
			pid, err := ReadPIDFile(logDir)
			if err != nil {
				t.Errorf("Concurrent ReadPIDFile() failed: %v", err)
			}
			if pid != os.Getpid() {
				t.Errorf("Concurrent ReadPIDFile() got wrong PID: %d", pid)
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("Timeout waiting for concurrent reads")
		}
	}
}

func TestSpawnBackgroundErrors(t *testing.T) {
	base := t.TempDir()
	logDirFile := filepath.Join(base, "not-a-dir")
	if err := os.WriteFile(logDirFile, []byte("x"), 0600); err != nil {
		t.Fatalf("failed to create log dir blocker file: %v", err)
	}

	if _, _, err := SpawnBackground(logDirFile, []string{"watch"}); err == nil {
		t.Fatal("SpawnBackground() should fail when logDir is a file")
	}
}

func TestStopProcessInvalidPID(t *testing.T) {
	for _, pid := range []int{0, -1} {
		if err := StopProcess(pid); err == nil {
			t.Fatalf("StopProcess(%d) should fail", pid)
		}
	}
}

func TestGetLogFile(t *testing.T) {
	logDir := t.TempDir()
	want := filepath.Join(logDir, "docdex-watch.log")
	if got := GetLogFile(logDir); got != want {
		t.Fatalf("GetLogFile() = %q, want %q", got, want)
	}
}

func skipIfWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping on Windows: cannot delete locked files")
	}
}
