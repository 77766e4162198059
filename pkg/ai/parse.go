package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON trims prose and markdown fences around the first JSON value
// in a model response. Models are asked for bare JSON but do not always
// comply.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}
	return text
}

// ParseTriageSuggestion decodes and normalizes a model triage response.
// Anything malformed degrades to a safe value instead of failing the whole
// suggestion: an unusable action becomes "none", an unknown inferred state
// becomes "none".
func ParseTriageSuggestion(text string) (*TriageSuggestion, error) {
	var suggestion TriageSuggestion
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &suggestion); err != nil {
		return nil, fmt.Errorf("failed to parse triage response: %w", err)
	}

	switch suggestion.InferredState {
	case "needs_reply", "waiting_on_customer", "none":
	default:
		suggestion.InferredState = "none"
	}

	suggestion.Action = normalizeAction(suggestion.Action)
	return &suggestion, nil
}

func normalizeAction(action SuggestedAction) SuggestedAction {
	switch action.Type {
	case ActionLinkProject:
		if action.ProjectID == "" {
			return SuggestedAction{Type: ActionNone}
		}
		return SuggestedAction{Type: ActionLinkProject, ProjectID: action.ProjectID}
	case ActionLinkJob:
		if action.JobID == "" {
			return SuggestedAction{Type: ActionNone}
		}
		return SuggestedAction{Type: ActionLinkJob, JobID: action.JobID}
	case ActionCreateProject:
		if action.Title == "" {
			return SuggestedAction{Type: ActionNone}
		}
		return SuggestedAction{Type: ActionCreateProject, Title: action.Title, Description: action.Description}
	case ActionCreateJob:
		if action.Title == "" {
			return SuggestedAction{Type: ActionNone}
		}
		return SuggestedAction{Type: ActionCreateJob, Title: action.Title, Description: action.Description}
	case ActionNone:
		return SuggestedAction{Type: ActionNone}
	default:
		return SuggestedAction{Type: ActionNone}
	}
}
