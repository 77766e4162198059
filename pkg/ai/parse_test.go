package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONStripsFencesAndProse(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, ExtractJSON("Here is the result: {\"a\":1} hope that helps"))
	assert.Equal(t, `{"a":1}`, ExtractJSON(`{"a":1}`))
}

func TestParseTriageSuggestionNormalizesState(t *testing.T) {
	s, err := ParseTriageSuggestion(`{"inferred_state":"needs_reply","summary":"broken spring","action":{"type":"none"}}`)
	require.NoError(t, err)
	assert.Equal(t, "needs_reply", s.InferredState)

	s, err = ParseTriageSuggestion(`{"inferred_state":"urgent!!","summary":"x","action":{"type":"none"}}`)
	require.NoError(t, err)
	assert.Equal(t, "none", s.InferredState)
}

func TestParseTriageSuggestionDegradesMalformedActions(t *testing.T) {
	// link_project without a project id is unusable
	s, err := ParseTriageSuggestion(`{"inferred_state":"none","action":{"type":"link_project"}}`)
	require.NoError(t, err)
	assert.Equal(t, ActionNone, s.Action.Type)

	// create_project without a title is unusable
	s, err = ParseTriageSuggestion(`{"inferred_state":"none","action":{"type":"create_project","description":"d"}}`)
	require.NoError(t, err)
	assert.Equal(t, ActionNone, s.Action.Type)

	// unknown action types never leak through
	s, err = ParseTriageSuggestion(`{"inferred_state":"none","action":{"type":"delete_everything"}}`)
	require.NoError(t, err)
	assert.Equal(t, ActionNone, s.Action.Type)
}

func TestParseTriageSuggestionKeepsValidActions(t *testing.T) {
	s, err := ParseTriageSuggestion(`{"inferred_state":"needs_reply","summary":"s","action":{"type":"link_project","project_id":"p1"}}`)
	require.NoError(t, err)
	assert.Equal(t, ActionLinkProject, s.Action.Type)
	assert.Equal(t, "p1", s.Action.ProjectID)

	s, err = ParseTriageSuggestion(`{"inferred_state":"none","action":{"type":"create_job","title":"Fix opener","description":"d"}}`)
	require.NoError(t, err)
	assert.Equal(t, ActionCreateJob, s.Action.Type)
	assert.Equal(t, "Fix opener", s.Action.Title)
}

func TestParseTriageSuggestionRejectsNonJSON(t *testing.T) {
	_, err := ParseTriageSuggestion("I could not decide")
	assert.Error(t, err)
}
