package reading

import (
	"fmt"
	"strings"

	"hexcast/internal/hexagram"
)

// systemPromptTemplate frames the model as a diviner working from the
// canonical texts and pins the JSON output contract. The placeholders are,
// in order: hexagram text, changing-line text, response language.
const systemPromptTemplate = `You are a seasoned I Ching diviner. A querent has cast a hexagram and asks for guidance.

Canonical hexagram text:
%s

Changing-line text:
%s

Ground your interpretation in these texts. Where the texts are silent, draw on classical I Ching tradition, but never contradict them. Be concrete and honest; do not flatter.

Respond in %s.

Respond with a single JSON object and nothing else. Use exactly these keys:
{
  "hexagram_name": "name of the cast hexagram",
  "summary": "one-sentence answer to the question",
  "interpretation": "reading of the hexagram in the light of the question",
  "line_change": "what the changing line means here",
  "final_hexagram": "the hexagram this one changes into and what that shift signals",
  "advice": "practical guidance for the querent"
}`

const missingTextNotice = "(no canonical text is recorded for this coordinate; interpret from tradition)"

// defaultQuestion stands in when the querent asks nothing specific.
const defaultQuestion = "The querent asks for a general reading of their present situation."

// BuildSystemPrompt renders the system prompt for a text record. Missing
// texts are stated outright so the model does not invent a citation.
func BuildSystemPrompt(rec TextRecord, language string) string {
	parent := strings.TrimSpace(rec.ParentText)
	child := strings.TrimSpace(rec.ChildText)
	if !rec.Found || parent == "" {
		parent = missingTextNotice
	}
	if !rec.Found || child == "" {
		child = missingTextNotice
	}
	if language == "" {
		language = DefaultLanguage
	}
	return fmt.Sprintf(systemPromptTemplate, parent, child, language)
}

// BuildUserMessage renders the querent's side of the exchange.
func BuildUserMessage(question string, c hexagram.Coordinate) string {
	q := strings.TrimSpace(question)
	if q == "" {
		q = defaultQuestion
	}
	return fmt.Sprintf("Hexagram %s, changing line %s.\nQuestion: %s", c.Parent(), c.Child(), q)
}
