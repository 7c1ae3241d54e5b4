package interpreter

import (
	"fmt"

	"interactai/internal/domain/entity"
)

// promptSnippetChars bounds how much snapshot content reaches the prompt.
const promptSnippetChars = 1000

// systemPrompt fixes the output-format contract. The JSON object form is the
// canonical wire format; the ACTION token line is accepted for compatibility
// with smaller models that ignore the JSON instruction.
const systemPrompt = `You are InteractAI Voice, an assistant that controls and interprets a webpage through voice commands.

You will be given a snapshot of the current page and one user command. Respond with valid JSON ONLY, no prose and no markdown, in ONE of these forms:

1) ACTION:
{"responseType":"action","action":"highlight"|"scroll"|"click"|"navigate"|"site_search"|"read","text":"<target phrase or query>"}

2) TEXT REPLY:
{"responseType":"reply","text":"<your answer to the user>"}

Rules:
- If the user explicitly asks to search something, use action "site_search" with the query as text.
- For webpage interaction (highlight, scroll to a section, click, navigate to orders/address/cart/etc.) use the matching action with a short target phrase.
- For summarization or questions about the page, use a text reply.
- Be concise, accurate, and deterministic.`

func buildMessages(command string, snap *entity.PageSnapshot) []entity.ChatMessage {
	snippet := snap.Content
	if len(snippet) > promptSnippetChars {
		snippet = snippet[:promptSnippetChars]
	}

	user := fmt.Sprintf(
		"Webpage context:\nTitle: %s\nURL: %s\nContent snippet: %s\n\nUser command: %s",
		snap.Title, snap.URL, snippet, command,
	)

	return []entity.ChatMessage{
		{Role: entity.RoleSystem, Content: systemPrompt},
		{Role: entity.RoleUser, Content: user},
	}
}
