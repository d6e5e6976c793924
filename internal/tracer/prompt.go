package tracer

import (
	"fmt"
	"strings"
)

// promptTemplate is the fixed instructional text sent to the model.
// Cached analyses are keyed by the exact rendered prompt, so any
// change to this wording invalidates every existing cache entry.
const promptTemplate = `You are an AI assistant explaining policy calculations.
The user has run a simulation for the variable '%[1]s'.
Here's the tracer output:
%[2]s

Please explain this result in clear, factual terms. Your explanation should:
1. Briefly describe what %[1]s is.
2. Explain the main factors that led to this result.
3. Mention any key thresholds or rules that affected the calculation.
4. If relevant, suggest how changes in input might affect this result.

Provide only factual explanations of the policy mechanics. Do not include commentary, opinions, quotes, or phrases like "Certainly!" or "Here's an explanation." The response will be rendered as markdown, so preface $ with \.`

// RenderPrompt combines the target variable and its extracted trace
// segment into the prompt string. Pure and deterministic: identical
// inputs render byte-identical prompts, which the exact-match analysis
// cache depends on.
func RenderPrompt(target string, segment []string) string {
	return fmt.Sprintf(promptTemplate, target, strings.Join(segment, "\n"))
}
