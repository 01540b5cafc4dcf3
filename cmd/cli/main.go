package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  cli submit <workflow.yaml> [server-url]")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 3 {
		usage()
	}

	command := os.Args[1]
	switch command {
	case "submit":
		workflowPath := os.Args[2]
		server := "http://localhost:8080"
		if len(os.Args) > 3 {
			server = os.Args[3]
		}

		// read yaml file
		data, err := os.ReadFile(workflowPath)
		if err != nil {
			fmt.Println("❌ Failed to read workflow file:", err)
			os.Exit(1)
		}

		// send to server
		resp, err := http.Post(server+"/workflows", "application/x-yaml", bytes.NewBuffer(data))
		if err != nil {
			fmt.Println("❌ Failed to send request:", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		var submitted struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
			fmt.Println("❌ Bad server response:", err)
			os.Exit(1)
		}
		fmt.Println("Submitted workflow, id:", submitted.ID)

		// poll until the run settles
		for {
			time.Sleep(1 * time.Second)

			status, err := fetchStatus(server, submitted.ID)
			if err != nil {
				fmt.Println("❌ Failed to fetch status:", err)
				os.Exit(1)
			}
			if status == "pending" || status == "running" {
				continue
			}

			if status == "success" {
				fmt.Println("✅ Workflow passed")
				return
			}
			fmt.Println("❌ Workflow failed")
			os.Exit(1)
		}

	default:
		usage()
	}
}

func fetchStatus(server, id string) (string, error) {
	resp, err := http.Get(server + "/workflows/" + id)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned %s", resp.Status)
	}

	var state struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return "", err
	}
	return state.Status, nil
}
