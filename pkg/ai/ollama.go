package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OllamaService implements Provider using a local Ollama server.
type OllamaService struct {
	getBaseURL func() string // Dynamic getter for BaseURL
	getModel   func() string // Dynamic getter for Model
}

// NewOllamaService creates a new Ollama service
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaService{
		getBaseURL: func() string { return baseURL },
		getModel:   func() string { return model },
	}
}

// NewOllamaServiceWithGetters creates a new Ollama service whose endpoint
// and model can change at runtime.
func NewOllamaServiceWithGetters(getBaseURL, getModel func() string) *OllamaService {
	return &OllamaService{
		getBaseURL: getBaseURL,
		getModel:   getModel,
	}
}

func (o *OllamaService) generate(ctx context.Context, prompt string, numPredict int) (string, error) {
	url := o.getBaseURL() + "/api/generate"

	payload := map[string]interface{}{
		"model":  o.getModel(),
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.2,
			"num_predict": numPredict,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return result.Response, nil
}

func (o *OllamaService) SummarizeThread(ctx context.Context, threadText string) (string, error) {
	prompt := fmt.Sprintf(`You are an assistant for a garage door and gate service company's shared inbox.
Summarize the email thread below for a dispatcher in at most 2 lines.
Line 1 is the gist; line 2 (optional) is "Action needed: ..." or "Scheduled: ...".
If it is promotional or spam, write only "Promotional email from [sender]".
Do not truncate sentences.

THREAD:
%s

SUMMARY:`, threadText)

	return o.generate(ctx, prompt, 100)
}

func (o *OllamaService) SuggestTriage(ctx context.Context, req TriageRequest) (*TriageSuggestion, error) {
	var projects strings.Builder
	for _, p := range req.KnownProjects {
		fmt.Fprintf(&projects, "- id=%s number=%s title=%s\n", p.ID, p.Number, p.Title)
	}

	direction := "sent by our team"
	if req.FromCustomer {
		direction = "sent by the customer"
	}

	prompt := fmt.Sprintf(`You are triaging a garage door / gate service company's shared inbox.
The latest message was %s. Respond with ONLY a JSON object of the form
{"inferred_state":"needs_reply|waiting_on_customer|none","summary":"...","action":{"type":"none|link_project|create_project|create_job","project_id":"...","title":"...","description":"..."}}.
Only use link_project with an id from this list:
%s
SUBJECT: %s
FROM: %s
MESSAGE:
%s

JSON OUTPUT:`, direction, projects.String(), req.Subject, req.CustomerEmail, req.LatestMessage)

	text, err := o.generate(ctx, prompt, 500)
	if err != nil {
		return nil, err
	}

	return ParseTriageSuggestion(text)
}

func (o *OllamaService) DraftReply(ctx context.Context, threadText string) (string, error) {
	prompt := fmt.Sprintf(`You work for a garage door and gate service company.
Write a short, friendly, professional reply to the thread below. Do not invent
prices or appointment times; offer to confirm them. Plain text only.

THREAD:
%s

REPLY:`, threadText)

	return o.generate(ctx, prompt, 400)
}
