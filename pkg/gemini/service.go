package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fieldline-backend/pkg/ai"
)

const generateURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent?key="

type GeminiService struct {
	ApiKey string
}

func NewGeminiService(apiKey string) *GeminiService {
	return &GeminiService{ApiKey: apiKey}
}

func (g *GeminiService) generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", generateURL+g.ApiKey, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API error: %s", string(respBody))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}

	// Walk candidates[0].content.parts[0].text
	if c, ok := result["candidates"].([]interface{}); ok && len(c) > 0 {
		if cand, ok := c[0].(map[string]interface{}); ok {
			if content, ok := cand["content"].(map[string]interface{}); ok {
				if parts, ok := content["parts"].([]interface{}); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]interface{}); ok {
						if text, ok := part["text"].(string); ok {
							return text, nil
						}
					}
				}
			}
		}
	}
	return "", fmt.Errorf("no text returned")
}

func (g *GeminiService) SummarizeThread(ctx context.Context, threadText string) (string, error) {
	prompt := fmt.Sprintf(`You are an assistant for a garage door and gate service company's shared inbox.
Summarize the email thread below for a dispatcher deciding what to do next.

RULES:
- Line 1: the gist in one short sentence.
- Line 2 (only if relevant): "Action needed: ..." or "Scheduled: ..." or "Note: ...".
- If the thread is an advertisement or spam, write only "Promotional email from [sender]".
- At most 2 lines.

THREAD:
%s

SUMMARY:`, threadText)

	return g.generate(ctx, prompt)
}

func (g *GeminiService) SuggestTriage(ctx context.Context, req ai.TriageRequest) (*ai.TriageSuggestion, error) {
	var projects strings.Builder
	for _, p := range req.KnownProjects {
		fmt.Fprintf(&projects, "- id=%s number=%s title=%s\n", p.ID, p.Number, p.Title)
	}

	direction := "sent by our team"
	if req.FromCustomer {
		direction = "sent by the customer"
	}

	prompt := fmt.Sprintf(`You are triaging a garage door / gate service company's shared inbox.
The latest message in this thread was %s.

Decide:
1. inferred_state: "needs_reply" if the customer is waiting on us, "waiting_on_customer" if we are waiting on them, otherwise "none".
2. summary: one sentence.
3. action: what to do with the thread. One of:
   - {"type":"none"}
   - {"type":"link_project","project_id":"<id from the list below>"}
   - {"type":"create_project","title":"...","description":"..."}
   - {"type":"create_job","title":"...","description":"..."}
Only use link_project when the thread clearly matches a listed project.

EXISTING PROJECTS:
%s
SUBJECT: %s
FROM: %s
MESSAGE:
%s

Respond with ONLY a JSON object: {"inferred_state":"...","summary":"...","action":{...}}`,
		direction, projects.String(), req.Subject, req.CustomerEmail, req.LatestMessage)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return ai.ParseTriageSuggestion(text)
}

func (g *GeminiService) DraftReply(ctx context.Context, threadText string) (string, error) {
	prompt := fmt.Sprintf(`You are drafting a reply on behalf of a garage door and gate service company.
Write a short, friendly, professional reply to the thread below. Do not invent
prices or appointment times; propose to confirm them instead. Plain text only,
no subject line, no signature block.

THREAD:
%s

REPLY:`, threadText)

	return g.generate(ctx, prompt)
}
