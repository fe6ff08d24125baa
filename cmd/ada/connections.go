package ada

import (
	"context"
	"fmt"
	"time"

	"github.com/igorsilveira/ada/pkg/config"
	"github.com/igorsilveira/ada/pkg/store"
	"github.com/spf13/cobra"
)

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "List recent client connections",
	RunE:  runConnections,
}

var connectionsLimit int

func init() {
	connectionsCmd.Flags().IntVar(&connectionsLimit, "limit", 20, "maximum number of connections")
}

func runConnections(cmd *cobra.Command, args []string) error {
	db, err := store.New(config.Current().Store.DSN)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = db.Close() }()

	conns, err := db.RecentConnections(context.Background(), connectionsLimit)
	if err != nil {
		return fmt.Errorf("listing connections: %w", err)
	}
	if len(conns) == 0 {
		fmt.Println("No connections recorded.")
		return nil
	}

	for _, c := range conns {
		duration := "open"
		if c.DisconnectedAt != nil {
			duration = c.DisconnectedAt.Sub(c.ConnectedAt).Round(time.Second).String()
		}
		line := fmt.Sprintf("[%s] %s %-21s %-8s frames=%d audio=%d messages=%d",
			c.ConnectedAt.Format("2006-01-02 15:04:05"), c.ID, c.RemoteAddr, duration,
			c.Frames, c.AudioChunks, c.Messages,
		)
		if c.Error != "" {
			line += " error=" + c.Error
		}
		fmt.Println(line)
	}
	return nil
}
