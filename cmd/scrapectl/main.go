// scrapectl is a small operator client for a running scrapeq server:
// submit a job, check its status, hit the health endpoint.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var serverURL string

func main() {
	root := &cobra.Command{
		Use:           "scrapectl",
		Short:         "Operator CLI for the scrapeq service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8085", "scrapeq server base URL")

	root.AddCommand(submitCmd(), statusCmd(), healthCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func submitCmd() *cobra.Command {
	var scriptPath string
	var wait bool

	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Submit a scrape job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scriptSrc := ""
			if scriptPath != "" {
				data, err := os.ReadFile(scriptPath)
				if err != nil {
					return err
				}
				scriptSrc = string(data)
			}

			body, _ := json.Marshal(map[string]string{
				"url":    args[0],
				"script": scriptSrc,
			})
			resp, err := http.Post(serverURL+"/scrape/start", "application/json", bytes.NewReader(body))
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var ack struct {
				JobID  string `json:"job_id"`
				Status string `json:"status"`
				Error  string `json:"error"`
				Detail string `json:"detail"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
				return err
			}
			if resp.StatusCode != http.StatusAccepted {
				return fmt.Errorf("submission rejected (%d): %s %s", resp.StatusCode, ack.Error, ack.Detail)
			}

			fmt.Printf("job %s %s\n", ack.JobID, ack.Status)
			if !wait {
				return nil
			}
			return pollUntilDone(ack.JobID)
		},
	}
	cmd.Flags().StringVar(&scriptPath, "script", "", "file containing the action script")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the job reaches a terminal state")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job_id>",
		Short: "Print the current record of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, status, err := getJob(args[0])
			if err != nil {
				return err
			}
			if status == http.StatusNotFound {
				return fmt.Errorf("job %s not found (unknown id or already cleaned up)", args[0])
			}
			fmt.Println(string(body))
			return nil
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server liveness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(serverURL + "/health")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			fmt.Println(string(bytes.TrimSpace(body)))
			return nil
		},
	}
}

func getJob(jobID string) ([]byte, int, error) {
	resp, err := http.Get(serverURL + "/scrape/job?job_id=" + url.QueryEscape(jobID))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return bytes.TrimSpace(body), resp.StatusCode, nil
}

func pollUntilDone(jobID string) error {
	for {
		time.Sleep(2 * time.Second)

		body, status, err := getJob(jobID)
		if err != nil {
			return err
		}
		if status == http.StatusNotFound {
			return fmt.Errorf("job %s disappeared while waiting", jobID)
		}

		var record struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(body, &record); err != nil {
			return err
		}
		if record.Status == "completed" || record.Status == "failed" {
			fmt.Println(string(body))
			return nil
		}
	}
}
