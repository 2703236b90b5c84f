package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fentz26/tempo/internal/config"
	"github.com/fentz26/tempo/internal/tui"
	"github.com/spf13/cobra"
)

const (
	daemonProbeTimeout = 500 * time.Millisecond
	daemonStartTimeout = 5 * time.Second
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI (starts the daemon if needed)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureDaemon(); err != nil {
			return err
		}
		if err := tui.New(apiAddr).Run(); err != nil {
			return fmt.Errorf("tui: %w", err)
		}
		return nil
	},
}

func daemonUp() bool {
	_, err := daemonHealth(daemonProbeTimeout)
	return err == nil
}

// ensureDaemon starts "tempo daemon" in the background when nothing answers on
// the API address, then waits for it to report healthy.
func ensureDaemon() error {
	if daemonUp() {
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return err
	}
	logPath := filepath.Join(config.HomeDir(), "daemon.log")
	cmd := exec.Command(exe, "daemon", "--config", configPath, "--log-file", logPath)
	configureDaemonProc(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	// The daemon outlives this process; nothing waits on it.
	go cmd.Wait()

	fmt.Printf("Starting tempo daemon (logs: %s)", logPath)
	deadline := time.Now().Add(daemonStartTimeout)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		if daemonUp() {
			fmt.Println(" ready")
			return nil
		}
		if time.Now().After(deadline) {
			fmt.Println()
			return fmt.Errorf("daemon did not become healthy at %s; see %s", apiAddr, logPath)
		}
		fmt.Print(".")
	}
	return nil
}
