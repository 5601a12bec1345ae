package llm

import "context"

// MockClient is a canned-response Client for tests and offline development.
// When Response is empty it returns a fixed, well-formed reading payload so
// the full pipeline can run without a provider key.
type MockClient struct {
	Response string
	Err      error

	// Calls records every invocation for assertions.
	Calls []MockCall
}

// MockCall captures one invocation of the mock.
type MockCall struct {
	System string
	User   string
}

const mockReadingJSON = `{
  "hexagram_name": "乾 (The Creative)",
  "summary": "Strong forward movement is favored.",
  "interpretation": "The hexagram speaks of persistent creative energy meeting its moment.",
  "line_change": "The changing line counsels acting openly rather than waiting.",
  "final_hexagram": "夬 (Breakthrough)",
  "advice": "Commit to the course you have been preparing."
}`

// NewMockClient returns a mock with the default canned reading.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Complete returns the canned response.
func (m *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem returns the canned response and records the call.
func (m *MockClient) CompleteWithSystem(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	m.Calls = append(m.Calls, MockCall{System: systemPrompt, User: userPrompt})
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return mockReadingJSON, nil
}
