package ai

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackService implements smart AI provider routing with fallback
// - Summarization: Ollama first (local, free), fallback to Gemini
// - Triage and reply drafting: Gemini first (better quality), fallback to Ollama
type FallbackService struct {
	gemini Provider
	ollama *OllamaService
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(gemini Provider, ollama *OllamaService) *FallbackService {
	return &FallbackService{
		gemini: gemini,
		ollama: ollama,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if _, ok := err.(net.Error); ok {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}

	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
	}

	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}

// SummarizeThread tries Ollama first (free, local), falls back to Gemini.
func (f *FallbackService) SummarizeThread(ctx context.Context, threadText string) (string, error) {
	if f.ollama != nil {
		result, err := f.ollama.SummarizeThread(ctx, threadText)
		if err == nil {
			return result, nil
		}
		log.Printf("[AI] Ollama summarization failed: %v, falling back to Gemini", err)
	}

	if f.gemini != nil {
		result, err := f.gemini.SummarizeThread(ctx, threadText)
		if err == nil {
			return result, nil
		}

		if isQuotaError(err) && f.ollama != nil {
			log.Printf("[AI] Gemini quota exhausted: %v, retrying Ollama", err)
			return f.ollama.SummarizeThread(ctx, threadText)
		}

		return "", fmt.Errorf("gemini summarization failed: %w", err)
	}

	return "", fmt.Errorf("no AI provider available for summarization")
}

// SuggestTriage tries Gemini first (better structured output), falls back
// to Ollama on quota or connection errors.
func (f *FallbackService) SuggestTriage(ctx context.Context, req TriageRequest) (*TriageSuggestion, error) {
	if f.gemini != nil {
		result, err := f.gemini.SuggestTriage(ctx, req)
		if err == nil {
			return result, nil
		}

		if isQuotaError(err) {
			log.Printf("[AI] Gemini quota exhausted: %v, falling back to Ollama", err)
		} else {
			log.Printf("[AI] Gemini triage error: %v, falling back to Ollama", err)
		}
	}

	if f.ollama != nil {
		result, err := f.ollama.SuggestTriage(ctx, req)
		if err == nil {
			return result, nil
		}

		if isConnectionError(err) && f.gemini != nil {
			log.Printf("[AI] Ollama connection failed: %v, retrying Gemini", err)
			return f.gemini.SuggestTriage(ctx, req)
		}

		return nil, fmt.Errorf("ollama triage failed: %w", err)
	}

	return nil, fmt.Errorf("no AI provider available for triage")
}

// DraftReply tries Gemini first, falls back to Ollama.
func (f *FallbackService) DraftReply(ctx context.Context, threadText string) (string, error) {
	if f.gemini != nil {
		result, err := f.gemini.DraftReply(ctx, threadText)
		if err == nil {
			return result, nil
		}
		log.Printf("[AI] Gemini reply drafting error: %v, falling back to Ollama", err)
	}

	if f.ollama != nil {
		result, err := f.ollama.DraftReply(ctx, threadText)
		if err == nil {
			return result, nil
		}
		return "", fmt.Errorf("ollama reply drafting failed: %w", err)
	}

	return "", fmt.Errorf("no AI provider available for reply drafting")
}
