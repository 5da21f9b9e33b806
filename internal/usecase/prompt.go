package usecase

import (
	"fmt"
	"strings"
)

// DefaultPersona is the assistant persona used when none is configured.
const DefaultPersona = "You are True Live, a messaging assistant that answers questions about Israel, " +
	"the Jewish people and current affairs. Keep answers short enough for a chat message."

type instructionContext struct {
	persona   string
	language  string
	sensitive bool
}

// buildSystemInstruction renders the system turn sent with every assistant
// completion.
func buildSystemInstruction(ctx instructionContext) string {
	lines := []string{
		"Role:",
		normalizePromptInput(ctx.persona),
		"",
		"Language:",
		fmt.Sprintf("Reply only in the language with ISO 639-1 code %q, the language of the user's last message.", ctx.language),
	}
	if ctx.sensitive {
		lines = append(lines,
			"",
			"Topic:",
			"The user's last message touches a sensitive topic. Prefer verifiable facts and a neutral tone.",
		)
	}
	return strings.Join(lines, "\n")
}

func normalizePromptInput(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}
