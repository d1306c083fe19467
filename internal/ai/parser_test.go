package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractClassification(t *testing.T) {
	t.Run("plain JSON object", func(t *testing.T) {
		got, err := ExtractClassification(`{"severity":"high","department":"Water Supply","priorityScore":85,"suggestions":{"fix":"replace valve"}}`)
		require.NoError(t, err)

		assert.Equal(t, "high", got.Severity)
		assert.Equal(t, "Water Supply", got.Department)
		assert.Equal(t, 85, got.PriorityScore)
		assert.Equal(t, "replace valve", got.Suggestions["fix"])
	})

	t.Run("JSON wrapped in markdown fences", func(t *testing.T) {
		got, err := ExtractClassification("Sure! Here you go:\n```json\n{\"severity\":\"low\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "low", got.Severity)
	})

	t.Run("severity is trimmed and lower cased", func(t *testing.T) {
		got, err := ExtractClassification(`{"severity":" HIGH "}`)
		require.NoError(t, err)
		assert.Equal(t, "high", got.Severity)
	})

	t.Run("fractional priority score is truncated", func(t *testing.T) {
		got, err := ExtractClassification(`{"priorityScore":72.9}`)
		require.NoError(t, err)
		assert.Equal(t, 72, got.PriorityScore)
	})

	t.Run("string suggestions are wrapped", func(t *testing.T) {
		got, err := ExtractClassification(`{"suggestions":"call the water board"}`)
		require.NoError(t, err)
		assert.Equal(t, "call the water board", got.Suggestions["text"])
	})

	t.Run("missing fields stay zero valued", func(t *testing.T) {
		got, err := ExtractClassification(`{}`)
		require.NoError(t, err)
		assert.Empty(t, got.Severity)
		assert.Empty(t, got.Department)
		assert.Zero(t, got.PriorityScore)
		assert.Nil(t, got.Suggestions)
	})

	t.Run("no JSON at all", func(t *testing.T) {
		_, err := ExtractClassification("the model refused to answer")
		assert.ErrorIs(t, err, ErrNoJSON)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := ExtractClassification(`{"severity": high}`)
		assert.Error(t, err)
	})
}
