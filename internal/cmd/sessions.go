package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jpatrickfarrell/jat/internal/activity"
	"github.com/jpatrickfarrell/jat/internal/session"
	"github.com/jpatrickfarrell/jat/internal/tmux"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var sessionsJSON bool

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"ls"},
	Short:   "List tmux sessions and their agents",
	RunE:    runSessions,
}

func init() {
	sessionsCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	tm := tmux.New()
	if !tm.IsAvailable() {
		return fmt.Errorf("tmux not found in PATH")
	}

	sessions, err := session.NewLister(tm).List()
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	if sessionsJSON {
		return json.NewEncoder(os.Stdout).Encode(sessions)
	}

	if len(sessions) == 0 {
		fmt.Println("No tmux sessions running.")
		return nil
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 40 {
		width = w
	}

	titler := cases.Title(language.English)
	now := time.Now()
	fmt.Printf("%-24s %-8s %-10s %-10s %s\n", "SESSION", "KIND", "ELAPSED", "ACTIVITY", "ATTACHED")
	for _, s := range sessions {
		elapsed := "-"
		if !s.CreatedAt.IsZero() {
			if e := activity.ElapsedSince(s.CreatedAt.UTC().Format(time.RFC3339), now); e != nil {
				if e.ShowHours {
					elapsed = e.Hours + ":" + e.Minutes + ":" + e.Seconds
				} else {
					elapsed = e.Minutes + ":" + e.Seconds
				}
			}
		}
		age := "-"
		if !s.LastActivity.IsZero() {
			age = activity.CalculateAt(s.LastActivity, now).FormattedAge
		}
		attached := ""
		if s.Attached {
			attached = "yes"
		}
		line := fmt.Sprintf("%-24s %-8s %-10s %-10s %s",
			s.Name, titler.String(string(s.Kind)), elapsed, age, attached)
		if len(line) > width {
			line = strings.TrimRight(line[:width], " ")
		}
		fmt.Println(line)
	}
	return nil
}
