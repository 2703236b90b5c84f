package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fentz26/tempo/internal/config"
	"github.com/fentz26/tempo/internal/controlplane"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tempo",
	Short: "Tempo - routine timer with spoken cues",
	Long:  `Tempo guides you through a routine one timed task at a time, with pause/resume, reordering, auto-advance and spoken milestone and overtime cues.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(config.ExpandPath(configPath))
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("api") {
			apiAddr = "http://" + cfg.Daemon.Listen
		}
		apiAddr = strings.TrimRight(apiAddr, "/")
		return nil
	},
	SilenceUsage: true,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr    string
	configPath string
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "", "API server address (default from daemon.listen)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to config file")

	// Add subcommands
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tempo %s\n", controlplane.Version)
		health, err := daemonHealth(daemonProbeTimeout)
		switch {
		case health == nil:
			fmt.Println("daemon: not running")
		case err != nil:
			fmt.Printf("daemon: %s (%v)\n", health.Version, err)
		default:
			fmt.Printf("daemon: %s at %s\n", health.Version, apiAddr)
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
