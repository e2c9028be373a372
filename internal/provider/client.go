// Package provider talks to the external scrape service (Apify-style
// actor API): submit a run, poll it to a terminal status, fetch the
// resulting dataset.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"social-insights-service/internal/entity"
)

const (
	defaultBaseURL = "https://api.apify.com/v2"

	instagramActorID = "apify~instagram-scraper"
	tiktokActorID    = "clockworks~tiktok-scraper"

	// Fixed poll interval; profile lookups get a smaller attempt budget
	// than full post collection since they are cheaper for the provider.
	PollInterval        = 3 * time.Second
	PostsPollAttempts   = 60 // ~180s
	ProfilePollAttempts = 30 // ~90s
)

var (
	ErrNoCredentials = errors.New("provider: no API token configured")
	ErrPollTimeout   = errors.New("provider: polling attempts exhausted")
	ErrRunFailed     = errors.New("provider: run ended in failure status")
	ErrEmptyDataset  = errors.New("provider: dataset is empty")
)

// JobRequest describes one scrape run.
type JobRequest struct {
	Platform    entity.Platform
	Handle      string
	ProfileOnly bool
	Limit       int
}

// Client is one scrape-provider client. A single client serves both
// platforms; the actor and input payload differ per request.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	interval time.Duration
}

func NewClient(token string) *Client {
	return &Client{
		baseURL:  defaultBaseURL,
		token:    token,
		http:     &http.Client{Timeout: 30 * time.Second},
		interval: PollInterval,
	}
}

// Configured reports whether credentials are present. Callers decide
// whether to fall back before submitting anything.
func (c *Client) Configured() bool {
	return c.token != ""
}

// SubmitJob starts an actor run and returns the provider run id.
func (c *Client) SubmitJob(ctx context.Context, req JobRequest) (string, error) {
	if c.token == "" {
		return "", ErrNoCredentials
	}

	actorID := instagramActorID
	if req.Platform == entity.PlatformTikTok {
		actorID = tiktokActorID
	}

	body, err := json.Marshal(buildInput(req))
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/acts/%s/runs?token=%s", c.baseURL, actorID, c.token)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("provider: start run: status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("provider: start run: empty run id")
	}
	return result.Data.ID, nil
}

// PollUntilTerminal checks the run status at a fixed interval until it
// reaches a terminal state or the attempt budget is spent. On success
// it returns the dataset id holding the results. Transport errors break
// the loop conservatively rather than retrying indefinitely.
func (c *Client) PollUntilTerminal(ctx context.Context, runID string, maxAttempts int) (string, error) {
	statusURL := fmt.Sprintf("%s/actor-runs/%s?token=%s", c.baseURL, runID, c.token)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.interval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
		if err != nil {
			return "", err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return "", err
		}

		var status struct {
			Data struct {
				Status           string `json:"status"`
				DefaultDatasetID string `json:"defaultDatasetId"`
			} `json:"data"`
		}
		decErr := json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if decErr != nil {
			return "", decErr
		}

		switch status.Data.Status {
		case "SUCCEEDED":
			return status.Data.DefaultDatasetID, nil
		case "FAILED", "ABORTED", "TIMED-OUT":
			return "", fmt.Errorf("%w: %s", ErrRunFailed, status.Data.Status)
		case "RUNNING", "READY", "":
			// keep polling
		}
	}

	return "", ErrPollTimeout
}

// FetchResults retrieves the dataset items for a finished run. An empty
// or malformed result set is a failure, not a success.
func (c *Client) FetchResults(ctx context.Context, datasetID string) ([]map[string]any, error) {
	url := fmt.Sprintf("%s/datasets/%s/items?token=%s", c.baseURL, datasetID, c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var items []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("provider: decode dataset: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyDataset
	}
	return items, nil
}

// buildInput assembles the actor input. Field names and semantics are
// actor-specific: the Instagram scraper takes profile URLs and a
// result-type mode, the TikTok scraper a profile list and a per-page
// limit.
func buildInput(req JobRequest) map[string]any {
	switch req.Platform {
	case entity.PlatformTikTok:
		input := map[string]any{
			"profiles":       []string{req.Handle},
			"resultsPerPage": req.Limit,
		}
		if req.ProfileOnly {
			input["resultsPerPage"] = 1
			input["shouldDownloadVideos"] = false
		}
		return input
	default:
		resultsType := "posts"
		if req.ProfileOnly {
			resultsType = "details"
		}
		return map[string]any{
			"directUrls":   []string{"https://www.instagram.com/" + req.Handle + "/"},
			"resultsType":  resultsType,
			"resultsLimit": req.Limit,
		}
	}
}
