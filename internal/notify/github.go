package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

const githubAPI = "https://api.github.com"

// GitHubIssue opens one issue per alert in Repository (owner/repo).
type GitHubIssue struct {
	Token      string
	Repository string
	Labels     []string
	BaseURL    string
	Client     *http.Client
}

func NewGitHubIssue(token, repository string) *GitHubIssue {
	if token == "" || repository == "" {
		return nil
	}
	return &GitHubIssue{
		Token:      token,
		Repository: repository,
		Labels:     []string{"uptime-alert"},
		BaseURL:    githubAPI,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type githubIssue struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

func (g *GitHubIssue) Send(ctx context.Context, title, text string) error {
	if !strings.Contains(g.Repository, "/") {
		return errors.New("repository must be owner/repo")
	}
	body, err := json.Marshal(githubIssue{Title: title, Body: text, Labels: g.Labels})
	if err != nil {
		return err
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+g.Token)
	h.Set("Accept", "application/vnd.github+json")
	h.Set("User-Agent", "uptime-monitor")
	return postJSON(ctx, g.Client, g.BaseURL+"/repos/"+g.Repository+"/issues", body, h)
}
