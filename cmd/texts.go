package cmd

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/catalog"
	"github.com/abhisek/readmind/internal/ui/theme"
)

var textsCmd = &cobra.Command{
	Use:   "texts",
	Short: "List catalog texts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cfg)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}

		texts := cat.All()
		if tt, _ := cmd.Flags().GetString("type"); tt != "" {
			texts = cat.ByType(catalog.TextType(tt))
		}
		if target, _ := cmd.Flags().GetString("target"); target != "" {
			d, err := capability.Parse(target)
			if err != nil {
				return err
			}
			texts = lo.Filter(cat.Recommend(d), func(t *catalog.Text, _ int) bool {
				return lo.Contains(texts, t)
			})
		}

		if len(texts) == 0 {
			fmt.Println("No texts found.")
			return nil
		}

		tbl := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
			Headers("ID", "Title", "Type", "Difficulty", "Targets", "Segments")
		for _, t := range texts {
			tbl.Row(t.ID, t.Title, string(t.Type), string(t.Difficulty), targets(t), fmt.Sprint(len(t.Segments)))
		}
		_, err = lipgloss.Println(tbl.Render())
		return err
	},
}

var textShowCmd = &cobra.Command{
	Use:   "show <text-id>",
	Short: "Print a text with its segments and hints",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(cfg)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		t, err := cat.Get(args[0])
		if err != nil {
			return err
		}

		var b strings.Builder
		b.WriteString(theme.Title.Render(t.Title) + "\n")
		b.WriteString(theme.Dim.Render(fmt.Sprintf("%s · %s · %s · %s", t.Author, t.Type, t.Difficulty, targets(t))) + "\n")
		for _, s := range t.Segments {
			b.WriteString("\n" + theme.Body.Render(s.Content) + "\n")
			if s.Hint != "" {
				b.WriteString(theme.Hint.Render("  › "+s.Hint) + "\n")
			}
		}
		_, err = lipgloss.Print(b.String())
		return err
	},
}

func targets(t *catalog.Text) string {
	return strings.Join(lo.Map(t.TargetCapabilities, func(d capability.Dimension, _ int) string {
		return string(d)
	}), " ")
}

func init() {
	textsCmd.Flags().String("type", "", "Filter by text type (Prose, Novel, News, Poetry, Science, History)")
	textsCmd.Flags().String("target", "", "Only texts for this capability, best match first (R1-R4)")
	textsCmd.AddCommand(textShowCmd)
}
