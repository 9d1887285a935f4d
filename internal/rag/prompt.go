package rag

import "strings"

// NoSnippetsPlaceholder stands in for the grounding text when retrieval
// found nothing.
const NoSnippetsPlaceholder = "no relevant snippets found"

const (
	refStart = "<<REF>>"
	refEnd   = "<<END>>"
)

const promptRules = `You are a helpful assistant that answers questions using the reference material below.
- Answer using only the material between ` + refStart + ` and ` + refEnd + `.
- If the user is just greeting you or making small talk, respond warmly; no reference material is needed for that.
- If the material does not contain the answer, say so politely and suggest uploading a relevant document. Do not invent facts.
- Never mention the reference markers, search queries, snippets or how the material was selected.`

// Compose builds the grounding instruction for a turn. It is a pure
// function of the grounding text: identical input yields identical output.
func Compose(groundingText string) string {
	body := strings.TrimSpace(groundingText)
	if body == "" {
		body = NoSnippetsPlaceholder
	}
	var sb strings.Builder
	sb.WriteString(promptRules)
	sb.WriteString("\n\n")
	sb.WriteString(refStart)
	sb.WriteString("\n")
	sb.WriteString(body)
	sb.WriteString("\n")
	sb.WriteString(refEnd)
	return sb.String()
}
