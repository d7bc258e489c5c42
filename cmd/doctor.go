package cmd

import (
	"fmt"

	"github.com/iksnae/agent-sessions/internal/store"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check source availability and index health",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		reg := newRegistry(cfg)
		for _, a := range reg.All() {
			if !a.Detect() {
				fmt.Printf("✗ %s: not found\n", a.Name())
				continue
			}
			locs, err := a.Discover()
			if err != nil {
				fmt.Printf("! %s: detected, discovery failed: %v\n", a.Name(), err)
				continue
			}
			fmt.Printf("✓ %s: %d session files\n", a.Name(), len(locs))
		}

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			fmt.Printf("✗ index: %v\n", err)
			return nil
		}
		defer st.Close()

		stats, err := st.Stats()
		if err != nil {
			fmt.Printf("! index: opened, stats failed: %v\n", err)
			return nil
		}
		fmt.Printf("✓ index: %s\n", cfg.DBPath)
		fmt.Printf("  conversations: %d\n", stats.Conversations)
		fmt.Printf("  messages:      %d\n", stats.Messages)
		fmt.Printf("  tool calls:    %d\n", stats.ToolCalls)
		fmt.Printf("  file edits:    %d\n", stats.FileEdits)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
