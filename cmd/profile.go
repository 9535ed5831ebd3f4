package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lernbuddy/internal/identity"
	"github.com/abhisek/lernbuddy/internal/profile"
	"github.com/abhisek/lernbuddy/internal/prompt"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show a learner's detected learning profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		account, _ := cmd.Flags().GetString("account")
		subject, _ := cmd.Flags().GetString("subject")
		if strings.TrimSpace(account) == "" {
			return fmt.Errorf("--account is required")
		}

		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		analyzer := profile.NewAnalyzer(rt.store.Profiles(),
			profile.WithHistoryLimit(rt.cfg.Engine.ProfileHistoryLimit),
			profile.WithLogger(rt.log),
		)
		p, err := analyzer.Profile(cmd.Context(), identity.FromAccount(account))
		if err != nil {
			return err
		}

		fmt.Println(headingStyle.Render("Learning profile"))
		fmt.Println(strings.Repeat("─", 60))
		if p.Default {
			fmt.Println(mutedStyle.Render(fmt.Sprintf("Not enough history yet (%d of %d sessions), showing defaults.",
				p.SessionCount, profile.MinSessions)))
		}
		fmt.Printf("Style:            %s\n", p.Style)
		fmt.Printf("Session length:   %d min\n", p.OptimalSessionLength)
		fmt.Printf("Preferred:        %s\n", listOrDash(p.PreferredSubjects))
		fmt.Printf("Struggling with:  %s\n", listOrDash(p.StruggleAreas))
		fmt.Printf("Sessions:         %d\n", p.SessionCount)
		if !p.Default {
			fmt.Printf("Mean duration:    %.1f min (sd %.1f)\n", p.Patterns.MeanDuration, p.Patterns.DurationStdDev)
			fmt.Printf("Timing spread:    %.2f h\n", p.Patterns.TimingSpread)
		}

		fmt.Println()
		fmt.Println(mutedStyle.Render(prompt.AdaptiveContext(p, subject)))
		return nil
	},
}

func listOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func init() {
	profileCmd.Flags().String("account", "", "Account id of the learner")
	profileCmd.Flags().String("subject", "", "Subject for the adaptive context preview")
}
