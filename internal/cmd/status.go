package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jpatrickfarrell/jat/internal/web"
	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status [session]",
	Short: "Show agent states from a running dashboard",
	Long: `Query a running jat server for the resolved state of every session,
or a single session when one is named.

The server is the source of truth for activity states because it holds
the signal store and any optimistic overrides.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/api/sessions", cfg.Listen))
	if err != nil {
		return fmt.Errorf("is the dashboard running? (jat serve): %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dashboard returned %s", resp.Status)
	}

	var payload web.SessionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if len(args) == 1 {
		var filtered []web.SessionRow
		for _, row := range payload.Sessions {
			if row.Name == args[0] || row.AgentName == args[0] {
				filtered = append(filtered, row)
			}
		}
		if len(filtered) == 0 {
			return fmt.Errorf("no session %q", args[0])
		}
		payload.Sessions = filtered
		payload.Total = len(filtered)
	}

	if statusJSON {
		return json.NewEncoder(os.Stdout).Encode(payload)
	}

	if payload.Total == 0 {
		fmt.Println("No sessions.")
		return nil
	}
	fmt.Printf("%-24s %-18s %-8s %s\n", "SESSION", "STATE", "SOURCE", "DETAIL")
	for _, row := range payload.Sessions {
		source := "signal"
		if row.FromOverride {
			source = "override"
		}
		detail := row.Question
		if detail == "" {
			detail = row.TaskTitle
		}
		fmt.Printf("%-24s %-18s %-8s %s\n", row.Name, row.StateLabel, source, detail)
	}
	return nil
}
