package prompts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildQueryPrompt(t *testing.T) {
	prompt := NewPromptBuilder().BuildQueryPrompt("Cheapest flight from Delhi to Mumbai?")

	assert.Contains(t, prompt, SchemaContext)
	assert.Contains(t, prompt, QueryExamples)
	assert.Contains(t, prompt, "UNANSWERABLE")
	assert.Contains(t, prompt, "question: Cheapest flight from Delhi to Mumbai?")
}

func TestBuildAnswerPrompt(t *testing.T) {
	prompt := NewPromptBuilder().BuildAnswerPrompt("How many?", "SELECT COUNT(*) FROM flights", "n\n2")

	assert.Contains(t, prompt, "User Question: How many?")
	assert.Contains(t, prompt, "SQL Used: SELECT COUNT(*) FROM flights")
	assert.Contains(t, prompt, "Results:\nn\n2")
}

func TestBuildErrorPrompt(t *testing.T) {
	prompt := NewPromptBuilder().BuildErrorPrompt("fare?", errors.New("no such column: fare"))

	assert.Contains(t, prompt, `Question: "fare?"`)
	assert.Contains(t, prompt, "Error: no such column: fare")
}
