package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jpatrickfarrell/jat/internal/signal"
	"github.com/spf13/cobra"
)

var (
	signalTask     string
	signalTitle    string
	signalQuestion string
	signalSummary  string
)

var signalCmd = &cobra.Command{
	Use:   "signal <session> <type>",
	Short: "Send an activity signal to the dashboard",
	Long: `Report an agent's activity state to a running jat server.

Agent hooks call this when the agent starts, finishes, or needs input:

  jat signal jat-dag working --task jat-42 --title "Wire signal store"
  jat signal jat-dag needs_input --question "Which port should I use?"
  jat signal jat-dag completed`,
	Args: cobra.ExactArgs(2),
	RunE: runSignal,
}

func init() {
	signalCmd.Flags().StringVar(&signalTask, "task", "", "task ID the agent is working on")
	signalCmd.Flags().StringVar(&signalTitle, "title", "", "task title")
	signalCmd.Flags().StringVar(&signalQuestion, "question", "", "question for needs_input signals")
	signalCmd.Flags().StringVar(&signalSummary, "summary", "", "summary for completion signals")
	rootCmd.AddCommand(signalCmd)
}

func runSignal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sig := signal.Signal{
		Session:   args[0],
		Type:      args[1],
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	data := map[string]interface{}{}
	if signalTask != "" {
		data["task_id"] = signalTask
	}
	if signalTitle != "" {
		data["task_title"] = signalTitle
	}
	if signalQuestion != "" {
		data["question"] = signalQuestion
	}
	if signalSummary != "" {
		data["summary"] = signalSummary
	}
	if len(data) > 0 {
		sig.Data = data
	}

	body, err := json.Marshal(sig)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(fmt.Sprintf("http://%s/api/signals", cfg.Listen), "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("is the dashboard running? (jat serve): %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dashboard rejected signal: %s", resp.Status)
	}
	return nil
}
