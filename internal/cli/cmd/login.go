package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/levi616boop/AI-content-gen/internal/cli/client"
	"github.com/levi616boop/AI-content-gen/internal/common"
	"github.com/levi616boop/AI-content-gen/pkg/api"
)

func NewLoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to the pipeline server",
		Run:   runLogin,
	}

	cmd.Flags().StringP("secret", "s", "", "API secret (defaults to AUTOED_API_SECRET)")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) {
	secret, _ := cmd.Flags().GetString("secret")
	if secret == "" {
		secret = os.Getenv("AUTOED_API_SECRET")
	}
	if secret == "" {
		fmt.Println("Error: no secret given, use --secret or AUTOED_API_SECRET")
		return
	}

	jsonData, err := json.Marshal(api.LoginRequest{Secret: secret})
	if err != nil {
		fmt.Printf("Error: Failed to serialize data - %v\n", err)
		return
	}

	resp, err := client.SendRequest(http.MethodPost, "/login", bytes.NewBuffer(jsonData))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	authHeader := resp.Header.Get("Authorization")
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
		fmt.Printf("Login failed: %s\n", envelope.Message)
		return
	}

	token, err := common.GetAuthorizationToken(authHeader)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if err := client.SaveToken(token); err != nil {
		fmt.Printf("Error: Failed to save token - %v\n", err)
		return
	}
	fmt.Println("Login successful")
}
