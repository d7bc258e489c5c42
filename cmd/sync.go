package cmd

import (
	"fmt"

	"github.com/iksnae/agent-sessions/internal"
	"github.com/iksnae/agent-sessions/internal/source"
	"github.com/iksnae/agent-sessions/internal/store"
	"github.com/spf13/cobra"
)

var syncForce bool

// syncStats tracks what one sync pass did per source.
type syncStats struct {
	Locations int
	Skipped   int
	Ingested  int
	Errors    int
}

func (s syncStats) String() string {
	return fmt.Sprintf("locations=%d ingested=%d skipped=%d errors=%d",
		s.Locations, s.Ingested, s.Skipped, s.Errors)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ingest sessions from all detected sources",
	Long: `Detect installed assistants, discover their sessions, normalize each
one, and write the result into the local index.

Unchanged locations (same modification time as last sync) are skipped
unless --force is given. Re-ingesting unchanged sessions is harmless:
identifiers are deterministic, so the same input always produces the
same records.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}
		defer st.Close()

		registry := newRegistry(cfg)
		detected := registry.Detected()
		if len(detected) == 0 {
			fmt.Println("No sources detected on this machine.")
			return nil
		}

		for _, adapter := range detected {
			stats := syncSource(adapter, st)
			fmt.Printf("%-8s %s\n", adapter.Name(), stats)
		}
		return nil
	},
}

// syncSource ingests every discovered location of one source. Failures on a
// single location are counted, logged, and do not stop the pass.
func syncSource(adapter source.Adapter, st *store.Store) syncStats {
	var stats syncStats

	locs, err := adapter.Discover()
	if err != nil {
		internal.LogError("discover %s: %v", adapter.Name(), err)
		stats.Errors++
		return stats
	}
	stats.Locations = len(locs)

	for _, loc := range locs {
		mtime := loc.ModTime.Unix()
		if !syncForce {
			if seen, ok := st.LocationMtime(loc.Path); ok && seen == mtime {
				stats.Skipped++
				continue
			}
		}

		raws, err := adapter.Extract(loc)
		if err != nil {
			internal.LogWarn("extract %s: %v", loc.Path, err)
			stats.Errors++
			continue
		}

		failed := false
		for i := range raws {
			nc, err := adapter.Normalize(&raws[i], loc)
			if err != nil {
				internal.LogWarn("normalize %s: %v", loc.Path, err)
				failed = true
				continue
			}
			if err := st.Save(nc); err != nil {
				internal.LogWarn("save %s: %v", nc.Conversation.ID, err)
				failed = true
				continue
			}
			stats.Ingested++
		}

		if failed {
			stats.Errors++
			continue
		}
		if err := st.SetLocationMtime(loc.Path, mtime); err != nil {
			internal.LogWarn("record mtime %s: %v", loc.Path, err)
		}
	}

	return stats
}

func init() {
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "Re-ingest locations even if unchanged")
	rootCmd.AddCommand(syncCmd)
}
