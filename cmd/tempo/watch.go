package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fentz26/tempo/internal/host"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var runWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the live run as it changes",
	Args:  cobra.NoArgs,
	RunE:  runRunWatch,
}

func init() {
	runCmd.AddCommand(runWatchCmd)
}

func runRunWatch(cmd *cobra.Command, args []string) error {
	wsURL, err := streamURL(apiAddr)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var e host.Event
		if err := conn.ReadJSON(&e); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseGoingAway) {
				fmt.Println("daemon stopped")
				return nil
			}
			return fmt.Errorf("stream closed: %w", err)
		}
		fmt.Println(eventLine(e, time.Now()))
	}
}

// streamURL maps the API base address onto the websocket stream endpoint.
func streamURL(api string) (string, error) {
	u, err := url.Parse(api)
	if err != nil {
		return "", fmt.Errorf("invalid api address %q: %w", api, err)
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/run/stream"
	return u.String(), nil
}

func eventLine(e host.Event, at time.Time) string {
	stamp := at.Format("15:04:05")
	if e.Type == host.EventDiscarded || e.Snapshot == nil {
		return stamp + "  run discarded"
	}

	run := e.Snapshot.Run
	parts := []string{string(run.Status)}
	if t := run.ActiveTask(); t != nil {
		parts = append(parts, t.Name)
		if e.Snapshot.Reading != nil {
			parts = append(parts, formatRemaining(e.Snapshot.Reading))
		}
	}
	p := e.Snapshot.Progress
	parts = append(parts, fmt.Sprintf("%d/%d done", p.Completed, p.Total))
	return fmt.Sprintf("%s  %s: %s", stamp, run.TemplateName, strings.Join(parts, ", "))
}
