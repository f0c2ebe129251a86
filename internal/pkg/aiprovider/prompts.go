package aiprovider

const (
	// maxPromptTextChars caps the document text embedded into the prompt so a
	// long PDF does not blow the provider's context window.
	maxPromptTextChars = 8000

	extractionSystemPrompt = "You are a document analysis assistant. Extract structured data from the " +
		"provided document text and respond with a single JSON object. Include the document's key fields " +
		"such as title, dates, parties, amounts, line items and any identifiers you find. Use null for " +
		"fields you cannot determine. Respond with JSON only, no prose."
)

// buildUserPrompt wraps the extracted document text for the model, truncating
// it to the provider-safe limit.
func buildUserPrompt(text string) string {
	if len(text) > maxPromptTextChars {
		text = text[:maxPromptTextChars]
	}
	return "Extract structured data from the following document text:\n\n" + text
}
