package chat

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are an expert in answering questions. You are provided multiple context items that are related to the question you have to answer. Use the following pieces of context to answer the question at the end.

Context: %s

Question: %s
Answer: `

// composeContext merges the three context sources into one block, in the
// fixed order training data, session history, retrieved snippets, each item
// newline-joined. No deduplication or truncation is applied beyond what the
// upstream components already bounded.
func composeContext(training, history, snippets []string) string {
	parts := make([]string, 0, len(training)+len(history)+len(snippets))
	parts = append(parts, training...)
	parts = append(parts, history...)
	parts = append(parts, snippets...)
	return strings.Join(parts, "\n")
}

// renderPrompt substitutes the composed context and the question into the
// instruction template.
func renderPrompt(context, query string) string {
	return fmt.Sprintf(promptTemplate, context, query)
}
