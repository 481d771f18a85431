package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/readmind/internal/capability"
	"github.com/abhisek/readmind/internal/i18n"
	"github.com/abhisek/readmind/internal/ui/components"
	"github.com/abhisek/readmind/internal/ui/theme"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the learner's capability profile and focus dimension",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := cfg.ParsedProfile()
		if err != nil {
			return err
		}
		weakest, err := capability.Weakest(p)
		if err != nil {
			return err
		}
		loc := i18n.New(cfg.Lang)

		out := theme.Title.Render(loc.T("ProfileTitle")) + "\n\n" +
			components.ProfileBars(p, 60) + "\n\n" +
			theme.Hint.Render(loc.Td("Weakest", map[string]any{"Dimension": weakest.DisplayName()})) + "\n" +
			theme.Dim.Render(weakest.Info().Description)
		_, err = lipgloss.Println(out)
		if err != nil {
			return err
		}

		cat, err := loadCatalog(cfg)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		if recommended := cat.Recommend(weakest); len(recommended) > 0 {
			fmt.Println()
			fmt.Println(loc.Td("Recommended", map[string]any{"Dimension": weakest}))
			for i, t := range recommended {
				fmt.Printf("  %d. %s (%s)\n", i+1, t.Title, t.ID)
			}
		}
		return nil
	},
}
