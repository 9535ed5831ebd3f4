package cmd

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/lernbuddy/internal/generation"
	"github.com/abhisek/lernbuddy/internal/identity"
	"github.com/abhisek/lernbuddy/internal/profile"
	"github.com/abhisek/lernbuddy/internal/scoring"
	"github.com/abhisek/lernbuddy/internal/testsession"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8B5CF6"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	levelStyles  = map[scoring.Level]lipgloss.Style{
		scoring.LevelExcellent:     lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
		scoring.LevelVeryGood:      lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		scoring.LevelGood:          lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E22E")),
		scoring.LevelSatisfactory:  lipgloss.NewStyle().Foreground(lipgloss.Color("#E6DB74")),
		scoring.LevelNeedsPractice: lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94")),
	}
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a learner's completed tests",
	RunE: func(cmd *cobra.Command, args []string) error {
		account, _ := cmd.Flags().GetString("account")
		limit, _ := cmd.Flags().GetInt("limit")
		if strings.TrimSpace(account) == "" {
			return fmt.Errorf("--account is required")
		}

		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		analyzer := profile.NewAnalyzer(rt.store.Profiles(), profile.WithLogger(rt.log))
		svc := testsession.New(rt.store.Sessions(), analyzer, generation.New(nil),
			testsession.WithConfig(rt.cfg.Sessions()),
			testsession.WithLogger(rt.log),
		)
		tests, err := svc.History(cmd.Context(), identity.FromAccount(account), limit)
		if err != nil {
			return err
		}
		if len(tests) == 0 {
			fmt.Println("No completed tests found.")
			return nil
		}

		fmt.Println(headingStyle.Render(fmt.Sprintf("%-16s  %-14s  %-24s  %7s  %7s  %s",
			"Completed", "Subject", "Topic", "Score", "Correct", "Level")))
		fmt.Println(strings.Repeat("─", 100))
		for _, t := range tests {
			level := string(t.PerformanceLevel)
			if st, ok := levelStyles[t.PerformanceLevel]; ok {
				level = st.Render(level)
			}
			fmt.Printf("%-16s  %-14s  %-24s  %6.1f%%  %7s  %s\n",
				t.CompletedAt.Local().Format("2006-01-02 15:04"),
				truncate(t.Subject, 14),
				truncate(t.Topic, 24),
				t.Score,
				fmt.Sprintf("%d/%d", t.CorrectCount, t.TotalQuestions),
				level,
			)
		}
		fmt.Println(mutedStyle.Render(fmt.Sprintf("\n%d tests", len(tests))))
		return nil
	},
}

func init() {
	historyCmd.Flags().String("account", "", "Account id of the learner")
	historyCmd.Flags().IntP("limit", "n", 0, "Number of tests to show (0 uses the configured page size)")
}
