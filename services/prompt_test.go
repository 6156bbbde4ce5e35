package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptContainsContextAndQuestion(t *testing.T) {
	prompt := BuildPrompt(
		[]string{"The capital of France is Paris.", "Paris has two million residents."},
		"What is the capital of France?",
		"",
	)

	assert.Contains(t, prompt, "The capital of France is Paris.")
	assert.Contains(t, prompt, "Paris has two million residents.")
	assert.Contains(t, prompt, "What is the capital of France?")
	assert.Contains(t, prompt, "ONLY the provided context")
	assert.Contains(t, prompt, NotFoundAnswer)
	assert.NotContains(t, prompt, "Conversation so far")
}

func TestBuildPromptPreservesChunkOrder(t *testing.T) {
	prompt := BuildPrompt([]string{"first passage", "second passage"}, "q", "")
	assert.Less(t, strings.Index(prompt, "first passage"), strings.Index(prompt, "second passage"))
}

func TestBuildPromptIncludesHistory(t *testing.T) {
	history := "User: My name is Alex\nAssistant: Hello Alex"
	prompt := BuildPrompt([]string{"context"}, "What is my name?", history)

	assert.Contains(t, prompt, "Conversation so far:")
	assert.Contains(t, prompt, "My name is Alex")
}

func TestBuildPromptDeterministic(t *testing.T) {
	a := BuildPrompt([]string{"x", "y"}, "q", "h")
	b := BuildPrompt([]string{"x", "y"}, "q", "h")
	assert.Equal(t, a, b)
}
