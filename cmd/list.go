package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agent-sessions/internal"
	"github.com/iksnae/agent-sessions/internal/store"
	"github.com/spf13/cobra"
)

var listSource string

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed conversations",
	Long:  `List all conversations in the local index, most recently updated first.`,
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

		var convs []internal.Conversation
		if listSource != "" {
			convs, err = st.ListBySource(listSource)
		} else {
			convs, err = st.List()
		}
		if err != nil {
			return err
		}

		if len(convs) == 0 {
			fmt.Println("No conversations indexed. Run 'agent-sessions sync' first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, headerStyle.Render("ID")+"\t"+
			headerStyle.Render("SOURCE")+"\t"+
			headerStyle.Render("TITLE")+"\t"+
			headerStyle.Render("MSGS")+"\t"+
			headerStyle.Render("LINES")+"\t"+
			headerStyle.Render("UPDATED"))

		for _, c := range convs {
			title := c.Title
			if title == "" {
				title = c.Subtitle
			}
			if len(title) > 48 {
				title = title[:45] + "..."
			}

			lines := ""
			if c.TotalLinesAdded != nil || c.TotalLinesRemoved != nil {
				lines = fmt.Sprintf("+%d/-%d", derefInt(c.TotalLinesAdded), derefInt(c.TotalLinesRemoved))
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				idStyle.Render(c.ID[:12]),
				sourceStyle.Render(c.Source),
				title,
				countStyle.Render(fmt.Sprintf("%d", c.MessageCount)),
				lines,
				dateStyle.Render(c.UpdatedAt))
		}
		return w.Flush()
	},
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func init() {
	listCmd.Flags().StringVarP(&listSource, "source", "s", "", "Only list conversations from one source (claude, codex, cursor)")
	rootCmd.AddCommand(listCmd)
}
