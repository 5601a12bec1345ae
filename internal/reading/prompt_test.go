package reading

import (
	"strings"
	"testing"

	"hexcast/internal/hexagram"
)

func TestBuildSystemPrompt(t *testing.T) {
	rec := TextRecord{ParentText: "parent body", ChildText: "child body", Found: true}

	got := BuildSystemPrompt(rec, "en")
	if !strings.Contains(got, "parent body") || !strings.Contains(got, "child body") {
		t.Errorf("prompt missing texts:\n%s", got)
	}
	if !strings.Contains(got, "Respond in en.") {
		t.Errorf("prompt missing language instruction:\n%s", got)
	}
	for _, key := range []string{"hexagram_name", "summary", "interpretation", "line_change", "final_hexagram", "advice"} {
		if !strings.Contains(got, key) {
			t.Errorf("prompt missing output key %q", key)
		}
	}
}

func TestBuildSystemPromptMissingRecord(t *testing.T) {
	got := BuildSystemPrompt(TextRecord{}, "")
	if !strings.Contains(got, missingTextNotice) {
		t.Errorf("missing record should surface the notice, got:\n%s", got)
	}
	if !strings.Contains(got, "Respond in "+DefaultLanguage+".") {
		t.Errorf("empty language should fall back to %q", DefaultLanguage)
	}
}

func TestBuildSystemPromptBlankTexts(t *testing.T) {
	// A record can exist with one side blank; only the blank side gets the notice.
	rec := TextRecord{ParentText: "parent body", ChildText: "   ", Found: true}
	got := BuildSystemPrompt(rec, "zh")
	if !strings.Contains(got, "parent body") {
		t.Errorf("parent text dropped:\n%s", got)
	}
	if !strings.Contains(got, missingTextNotice) {
		t.Errorf("blank child text should surface the notice:\n%s", got)
	}
}

func TestBuildUserMessage(t *testing.T) {
	c := hexagram.Derive(17, 10, 13)

	got := BuildUserMessage("Will the harvest be good?", c)
	if !strings.Contains(got, "Hexagram 1-2, changing line 1.") {
		t.Errorf("message missing coordinate: %q", got)
	}
	if !strings.Contains(got, "Will the harvest be good?") {
		t.Errorf("message missing question: %q", got)
	}

	got = BuildUserMessage("  ", c)
	if !strings.Contains(got, defaultQuestion) {
		t.Errorf("blank question should fall back to the default, got: %q", got)
	}
}
