package reading

import "context"

// FeatureBasicDivination is the feature key readings are metered under.
const FeatureBasicDivination = "basic_divination"

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed bool
	Reason  string
}

// QuotaChecker decides whether a user may consume a feature right now.
type QuotaChecker interface {
	Check(ctx context.Context, userID, feature string) (Decision, error)
}

// UsageLogger records one successful consumption of a feature.
type UsageLogger interface {
	Log(ctx context.Context, userID, feature string) error
}

// TextRecord is the canonical text pair for a coordinate. Found is false
// when no record exists, which is a normal condition, not an error.
type TextRecord struct {
	ParentText string
	ChildText  string
	Found      bool
}

// TextStore looks up divination texts by coordinate.
type TextStore interface {
	Get(ctx context.Context, parent, child string) (TextRecord, error)
}

// ImageResolver produces a time-limited URL for the hexagram image at a
// coordinate.
type ImageResolver interface {
	SignedURL(ctx context.Context, parent, child string) (string, error)
}

// ModelClient turns a prompt pair into a structured reading. Responses the
// provider returns but that cannot be parsed are reported as errors.
type ModelClient interface {
	Complete(ctx context.Context, system, user string) (StructuredReading, error)
}

// StructuredReading is the interpretive payload the model must produce.
type StructuredReading struct {
	HexagramName   string `json:"hexagram_name"`
	Summary        string `json:"summary"`
	Interpretation string `json:"interpretation"`
	LineChange     string `json:"line_change"`
	FinalHexagram  string `json:"final_hexagram"`
	Advice         string `json:"advice"`
}

// Empty reports whether the model produced no usable content at all.
func (s StructuredReading) Empty() bool {
	return s.HexagramName == "" && s.Summary == "" && s.Interpretation == "" &&
		s.LineChange == "" && s.FinalHexagram == "" && s.Advice == ""
}
