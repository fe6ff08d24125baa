package ada

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/igorsilveira/ada/pkg/audit"
	"github.com/igorsilveira/ada/pkg/config"
	"github.com/igorsilveira/ada/pkg/store"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View the connection audit log",
	RunE:  runAudit,
}

var (
	auditEventType string
	auditSessionID string
	auditLimit     int
	auditSince     string
	auditSummary   bool
)

func init() {
	auditCmd.Flags().StringVar(&auditEventType, "type", "", "filter by event type")
	auditCmd.Flags().StringVar(&auditSessionID, "session", "", "filter by session ID")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "maximum number of entries")
	auditCmd.Flags().StringVar(&auditSince, "since", "", "show entries since (e.g. 2024-01-01)")
	auditCmd.Flags().BoolVar(&auditSummary, "summary", false, "print counts per event type instead of entries")
}

func openAudit() (*store.Store, *audit.Logger, error) {
	db, err := store.New(config.Current().Store.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	auditLog, err := audit.New(db.DB())
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("initializing audit logger: %w", err)
	}
	return db, auditLog, nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	db, auditLog, err := openAudit()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var since time.Time
	if auditSince != "" {
		since, err = time.Parse("2006-01-02", auditSince)
		if err != nil {
			return fmt.Errorf("invalid --since format (use YYYY-MM-DD): %w", err)
		}
	}

	ctx := context.Background()
	if auditSummary {
		counts, err := auditLog.CountByType(ctx, since)
		if err != nil {
			return err
		}
		types := make([]string, 0, len(counts))
		for t := range counts {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Printf("%-18s %d\n", t, counts[t])
		}
		return nil
	}

	entries, err := auditLog.Query(ctx, audit.Filter{
		EventType: auditEventType,
		SessionID: auditSessionID,
		Since:     since,
		Limit:     auditLimit,
	})
	if err != nil {
		return fmt.Errorf("querying audit log: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No audit entries found.")
		return nil
	}

	for _, e := range entries {
		ts := e.Timestamp.Format("2006-01-02 15:04:05")
		fmt.Printf("[%s] %-17s session=%-36s actor=%-7s %s\n",
			ts, e.EventType, e.SessionID, e.Actor, e.Detail,
		)
	}

	fmt.Printf("\n%d entries\n", len(entries))
	return nil
}
