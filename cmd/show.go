package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agent-sessions/internal/store"
	"github.com/spf13/cobra"
)

var showTools bool

var (
	roleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	toolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

var showCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Show one conversation",
	Long:  `Show a conversation's messages, tool calls, and file edits. The id may be abbreviated to a unique prefix.`,
	Args:  cobra.ExactArgs(1),
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

		id, err := st.ResolveID(args[0])
		if err != nil {
			return err
		}
		nc, err := st.Get(id)
		if err != nil {
			return err
		}

		c := nc.Conversation
		title := c.Title
		if title == "" {
			title = c.ID
		}
		fmt.Println(roleStyle.Render(title))
		fmt.Println(metaStyle.Render(fmt.Sprintf("source: %s  mode: %s  messages: %d", c.Source, c.Mode, c.MessageCount)))
		if c.Workspace != "" {
			fmt.Println(metaStyle.Render("workspace: " + c.Workspace))
		}
		if c.Model != "" {
			fmt.Println(metaStyle.Render("model: " + c.Model))
		}
		if c.TotalLinesAdded != nil || c.TotalLinesRemoved != nil {
			fmt.Println(metaStyle.Render(fmt.Sprintf("lines: +%d/-%d", derefInt(c.TotalLinesAdded), derefInt(c.TotalLinesRemoved))))
		}
		fmt.Println()

		toolsByMessage := make(map[string]int)
		for _, tc := range nc.ToolCalls {
			toolsByMessage[tc.MessageID]++
		}

		for _, m := range nc.Messages {
			header := m.Role
			if m.Timestamp != "" {
				header += "  " + m.Timestamp
			}
			if m.LinesAdded != nil || m.LinesRemoved != nil {
				header += fmt.Sprintf("  +%d/-%d", derefInt(m.LinesAdded), derefInt(m.LinesRemoved))
			}
			fmt.Println(roleStyle.Render(header))
			fmt.Println(m.Content)

			if showTools {
				for _, tc := range nc.ToolCalls {
					if tc.MessageID != m.ID {
						continue
					}
					line := "  ↳ " + tc.Tool
					if tc.FilePath != "" {
						line += "  " + tc.FilePath
					}
					fmt.Println(toolStyle.Render(line))
				}
				for _, fe := range nc.FileEdits {
					if fe.MessageID != m.ID {
						continue
					}
					fmt.Println(toolStyle.Render(fmt.Sprintf("  ✎ %s %s (+%d/-%d)", fe.Kind, fe.Path, fe.LinesAdded, fe.LinesRemoved)))
				}
			} else if n := toolsByMessage[m.ID]; n > 0 {
				fmt.Println(metaStyle.Render(fmt.Sprintf("  (%d tool calls, use --tools to expand)", n)))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showTools, "tools", false, "Show tool calls and file edits inline")
	rootCmd.AddCommand(showCmd)
}
