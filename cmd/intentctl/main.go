// Package main implements the intentctl CLI for manual operations against
// an intentd HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	version   = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "intentctl",
	Short:   "CLI for intentd HTTP server operations",
	Long:    `intentctl is a command-line interface for interacting with the intentd HTTP server.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9090", "intentd server URL")
	rootCmd.AddCommand(recognizeCmd)
	rootCmd.AddCommand(healthCmd)
}

var appKeyFlag string

var recognizeCmd = &cobra.Command{
	Use:   "recognize [text]",
	Short: "Recognize an intent for the given text",
	Long: `Recognize an intent for the given text via the intentd HTTP server.

Examples:
  intentctl recognize --app-key demo "what is my order status"

  echo "cancel my subscription" | intentctl recognize --app-key demo -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecognize,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check intentd server health",
	RunE:  runHealth,
}

func init() {
	recognizeCmd.Flags().StringVar(&appKeyFlag, "app-key", "", "application key (required)")
	_ = recognizeCmd.MarkFlagRequired("app-key")
}

// RecognizeRequest matches internal/httpapi/server.go's RecognizeRequest.
type RecognizeRequest struct {
	AppKey string `json:"app_key"`
	Text   string `json:"text"`
}

// HealthResponse matches internal/httpapi/server.go's HealthResponse.
type HealthResponse struct {
	Status string `json:"status"`
}

func runRecognize(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 0 || args[0] == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		text = string(content)
	} else {
		text = args[0]
	}
	if text == "" {
		return fmt.Errorf("no text to recognize")
	}

	reqJSON, err := json.Marshal(RecognizeRequest{AppKey: appKeyFlag, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/intent/recognize", serverURL)
	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Print(string(body))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", serverURL)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Server Status: %s\n", healthResp.Status)
	fmt.Printf("Server URL: %s\n", serverURL)
	return nil
}
