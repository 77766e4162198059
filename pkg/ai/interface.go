package ai

import "context"

// SuggestedActionType discriminates what the AI proposes doing with a thread.
type SuggestedActionType string

const (
	ActionNone          SuggestedActionType = "none"
	ActionLinkProject   SuggestedActionType = "link_project"
	ActionLinkJob       SuggestedActionType = "link_job"
	ActionCreateProject SuggestedActionType = "create_project"
	ActionCreateJob     SuggestedActionType = "create_job"
)

// SuggestedAction is a tagged union: Type selects which of the payload
// fields are meaningful. Consumers switch on Type exhaustively.
type SuggestedAction struct {
	Type SuggestedActionType `json:"type"`

	// link_project / link_job
	ProjectID string `json:"project_id,omitempty"`
	JobID     string `json:"job_id,omitempty"`

	// create_project / create_job
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// ProjectHint is an existing project offered to the model for matching.
type ProjectHint struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Title  string `json:"title"`
}

// TriageRequest is the thread context handed to the model.
type TriageRequest struct {
	Subject       string
	LatestMessage string
	FromCustomer  bool
	CustomerEmail string
	KnownProjects []ProjectHint
}

// TriageSuggestion is the model's structured verdict on a thread. Fields
// are best-effort; callers must tolerate any of them being empty.
type TriageSuggestion struct {
	InferredState string          `json:"inferred_state"` // needs_reply | waiting_on_customer | none
	Summary       string          `json:"summary"`
	Action        SuggestedAction `json:"action"`
}

// Provider is the interface for AI thread processing. Implement this to add
// new providers (Gemini, Ollama, OpenAI, ...).
type Provider interface {
	SummarizeThread(ctx context.Context, threadText string) (string, error)
	SuggestTriage(ctx context.Context, req TriageRequest) (*TriageSuggestion, error)
	DraftReply(ctx context.Context, threadText string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
