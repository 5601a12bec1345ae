package reading

import (
	"time"
	"unicode/utf8"
)

const (
	// DefaultLanguage is used when a request does not name one.
	DefaultLanguage = "zh"

	// MaxQuestionLen caps the question length in runes.
	MaxQuestionLen = 500
)

// Request carries everything needed to generate one reading. First, Second
// and Third are the raw numbers the user cast; they may be any integers.
type Request struct {
	First     int
	Second    int
	Third     int
	Question  string
	Language  string
	UserID    string
	WithImage bool
}

// Validate checks the request before any collaborator is touched.
func (r Request) Validate() error {
	if r.UserID == "" {
		return &RequestError{Field: "user_id", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(r.Question) > MaxQuestionLen {
		return &RequestError{Field: "question", Reason: "too long"}
	}
	return nil
}

// Result is a finished reading. It echoes the request's inputs so clients
// can render the full exchange without keeping their own copy.
type Result struct {
	Parent string `json:"parent_coord"`
	Child  string `json:"child_coord"`

	HexagramName   string `json:"hexagram_name"`
	Summary        string `json:"summary"`
	Interpretation string `json:"interpretation"`
	LineChange     string `json:"line_change"`
	FinalHexagram  string `json:"final_hexagram"`
	Advice         string `json:"advice"`

	ImageURL string `json:"image_url,omitempty"`

	First    int    `json:"first"`
	Second   int    `json:"second"`
	Third    int    `json:"third"`
	Question string `json:"question"`
	Language string `json:"language"`

	CreatedAt time.Time `json:"created_at"`
}
