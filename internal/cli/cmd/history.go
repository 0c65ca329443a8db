package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/levi616boop/AI-content-gen/internal/cli/client"
	"github.com/levi616boop/AI-content-gen/internal/common"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show pipeline run history",
		Run:   runHistory,
	}

	cmd.Flags().StringP("id", "i", "", "Specific job ID to show stage detail for")
	cmd.Flags().IntP("limit", "n", 20, "Number of recent jobs to list")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) {
	jobID, _ := cmd.Flags().GetString("id")
	limit, _ := cmd.Flags().GetInt("limit")

	path := fmt.Sprintf("/jobs?limit=%d", limit)
	if jobID != "" {
		path = "/jobs/" + jobID
	}

	resp, err := client.SendRequest(http.MethodGet, path, nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	body, err := client.ReadResponseBody(resp)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	var envelope common.Response
	if err := json.Unmarshal(body, &envelope); err != nil {
		fmt.Printf("Error: Failed to parse response - %v\n", err)
		return
	}
	if envelope.Code != common.SuccessCode {
		fmt.Printf("History failed: %s\n", envelope.Message)
		return
	}

	formatted, err := json.MarshalIndent(envelope.Data, "", "  ")
	if err != nil {
		fmt.Printf("Error: Failed to format output - %v\n", err)
		return
	}
	fmt.Println(string(formatted))
}
