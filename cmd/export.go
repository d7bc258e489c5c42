package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/agent-sessions/internal"
	"github.com/iksnae/agent-sessions/internal/export"
	"github.com/iksnae/agent-sessions/internal/store"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
	exportAll    bool
)

var exportCmd = &cobra.Command{
	Use:   "export [conversation-id]",
	Short: "Export conversations to markdown, json, jsonl, or yaml",
	Long: `Export a single conversation to stdout or a file, or export every
indexed conversation into a directory with --all.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !exportAll && len(args) != 1 {
			return fmt.Errorf("expected a conversation id (or --all)")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}
		defer st.Close()

		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		if exportAll {
			return exportEverything(st, exporter)
		}

		id, err := st.ResolveID(args[0])
		if err != nil {
			return err
		}
		nc, err := st.Get(id)
		if err != nil {
			return err
		}
		return exportOne(nc, exporter, exportOutput)
	},
}

func exportOne(nc *internal.NormalizedConversation, exporter export.Exporter, path string) error {
	if path == "" {
		if err := exporter.Export(nc, os.Stdout); err != nil {
			return &internal.ExportError{Format: exportFormat, Path: "stdout", Err: err}
		}
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()
	if err := exporter.Export(nc, f); err != nil {
		return &internal.ExportError{Format: exportFormat, Path: path, Err: err}
	}
	internal.LogInfo("exported %s to %s", nc.Conversation.ID, path)
	return nil
}

func exportEverything(st *store.Store, exporter export.Exporter) error {
	dir := exportOutput
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	convs, err := st.List()
	if err != nil {
		return err
	}

	exported := 0
	for _, c := range convs {
		nc, err := st.Get(c.ID)
		if err != nil {
			internal.LogWarn("skipping %s: %v", c.ID, err)
			continue
		}
		path := filepath.Join(dir, c.ID+"."+exporter.Extension())
		if err := exportOne(nc, exporter, path); err != nil {
			internal.LogWarn("skipping %s: %v", c.ID, err)
			continue
		}
		exported++
	}
	fmt.Printf("Exported %d conversations to %s\n", exported, dir)
	return nil
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "Output format (markdown, json, jsonl, yaml)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file, or directory with --all (default stdout)")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every indexed conversation")
	rootCmd.AddCommand(exportCmd)
}
