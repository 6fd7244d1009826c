package prompts

import (
	"fmt"
)

// PromptBuilder handles the construction of prompts for the LLM
type PromptBuilder struct {
	baseContext string
	examples    string
}

// NewPromptBuilder creates a new PromptBuilder with schema context
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		baseContext: SchemaContext,
		examples:    QueryExamples,
	}
}

// BuildQueryPrompt creates a prompt for SQL query generation
func (pb *PromptBuilder) BuildQueryPrompt(question string) string {
	return fmt.Sprintf(`You are a SQL query generator for a flight fare database. Follow these rules strictly:

%s

Rules:
1. Return exactly one SQLite SELECT statement and nothing else.
2. Never modify data: no INSERT, UPDATE, DELETE, DROP, ALTER, CREATE, ATTACH or PRAGMA.
3. Use table aliases: flights AS f, airlines AS a, routes AS r.
4. Use LOWER() on both sides when matching city or airline names.
5. Add LIMIT 20 to queries that list rows.
6. If the question cannot be answered from these tables, return: SELECT 'UNANSWERABLE' AS error;

%s

Now generate a SQL query for this question: %s`, pb.baseContext, pb.examples, question)
}

// BuildAnswerPrompt asks the model to turn query results into a short answer
func (pb *PromptBuilder) BuildAnswerPrompt(question, sql, results string) string {
	return fmt.Sprintf(`You answer questions about flight fares using SQL query results.

User Question: %s
SQL Used: %s
Results:
%s

Requirements:
1. Answer in one to three plain sentences.
2. Use only the numbers in the results; prices are in Indian rupees.
3. If the results are empty, say that no matching flights were found.

Answer:`, question, sql, results)
}

// BuildErrorPrompt creates a prompt for generating user-friendly error messages
func (pb *PromptBuilder) BuildErrorPrompt(question string, err error) string {
	return fmt.Sprintf(`Generate a user-friendly error message for this failed question about flight data:

Question: "%s"

Error: %v

Requirements:
1. Explain the issue in simple terms
2. Suggest how to rephrase the question
3. Keep the message concise and helpful

Error Message:`, question, err)
}
