// Command queue_report polls the approvals API and prints an aging
// summary of the open queue, flagging requests that have sat unresolved
// past a threshold. Intended for cron or ad-hoc operator use.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type approvalRequest struct {
	ID          string    `json:"id"`
	RequestType string    `json:"requestType"`
	EntityKind  string    `json:"entityKind"`
	Status      string    `json:"status"`
	RequesterID string    `json:"requesterId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type envelope struct {
	Data []approvalRequest `json:"data"`
}

func main() {
	var (
		baseURL   string
		token     string
		threshold time.Duration
		timeout   time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&token, "token", os.Getenv("MMS_OPS_TOKEN"), "Bearer token (defaults to MMS_OPS_TOKEN)")
	flag.DurationVar(&threshold, "threshold", 48*time.Hour, "Age after which an open request is flagged stale")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	if token == "" {
		log.Fatal("no token: pass -token or set MMS_OPS_TOKEN")
	}

	requests, err := fetchOpenRequests(baseURL, token, timeout)
	if err != nil {
		log.Fatalf("failed to fetch open approvals: %v", err)
	}

	now := time.Now().UTC()
	byKind := make(map[string]int)
	stale := make([]approvalRequest, 0)
	for _, request := range requests {
		byKind[request.EntityKind]++
		if now.Sub(request.CreatedAt) > threshold {
			stale = append(stale, request)
		}
	}

	fmt.Printf("open approval requests: %d\n", len(requests))
	for kind, count := range byKind {
		fmt.Printf("  %-24s %d\n", kind, count)
	}
	if len(stale) == 0 {
		fmt.Println("no requests past threshold")
		return
	}

	fmt.Printf("\nstale (older than %s):\n", threshold)
	for _, request := range stale {
		fmt.Printf("  %s  %-24s %-28s requested by %s at %s\n",
			request.ID, request.EntityKind, request.Status,
			request.RequesterID, request.CreatedAt.Format(time.RFC3339))
	}
	os.Exit(1)
}

func fetchOpenRequests(baseURL, token string, timeout time.Duration) ([]approvalRequest, error) {
	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/v1/approvals?limit=200", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var parsed envelope
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return parsed.Data, nil
}
