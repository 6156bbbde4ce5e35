package services

import "strings"

// NotFoundAnswer is the fixed reply when retrieval yields nothing relevant,
// and the inability sentence the model is instructed to use.
const NotFoundAnswer = "I could not find the answer in the documents."

// BuildPrompt assembles the grounding prompt: ranked context passages, an
// optional conversation transcript, the question, and the instructions that
// pin the model to in-context answers with source citations. Pure
// templating; no retrieval logic lives here.
func BuildPrompt(contextChunks []string, question, chatHistory string) string {
	var sb strings.Builder

	sb.WriteString("You are an AI assistant that answers questions using ONLY the provided context.\n")
	sb.WriteString("If the answer is not in the context, say '" + NotFoundAnswer + "'\n\n")

	sb.WriteString("Context:\n")
	for i, chunk := range contextChunks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(chunk)
	}
	sb.WriteString("\n\n")

	if chatHistory != "" {
		sb.WriteString("Conversation so far:\n")
		sb.WriteString(chatHistory)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\n")

	sb.WriteString("Instructions:\n")
	sb.WriteString("- Be concise and clear.\n")
	sb.WriteString("- Do not add information that is not in the context.\n")
	sb.WriteString("- If relevant, include the source (document name and page number).\n\n")
	sb.WriteString("Final Answer:")

	return sb.String()
}
