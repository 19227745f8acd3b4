package fetchers

import (
	"fmt"

	"github.com/rickchristie/ghost"
)

const promptTemplate = `You are an inline writing assistant embedded in a text editor.
Continue the user's text from exactly where it stops. Match its tone, tense, and style.
Keep the continuation short: one phrase up to one sentence.

Respond with valid JSON matching this schema:
{
  "completion": "the continuation text",
  "plan": ["%d short phrases describing where the text could go next"]
}
Output ONLY the JSON, with no explanations or introductory text.
%s
TEXT TO CONTINUE:
%s`

const safeModeLine = "Keep the continuation free of violent, sexual, or otherwise mature content.\n"

// BuildPrompt renders the generation prompt for one fetch request.
func BuildPrompt(req ghost.FetchRequest) string {
	safety := ""
	if req.SafeMode {
		safety = safeModeLine
	}

	planCount := req.PlanCount
	if planCount < 1 {
		planCount = 1
	}

	return fmt.Sprintf(promptTemplate, planCount, safety, req.ContextText)
}
