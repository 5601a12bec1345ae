package llm

import (
	"context"

	"hexcast/internal/reading"
)

// StructuredClient adapts a raw Client to the reading service's model
// port: one completion call followed by a parse. Transport errors and
// unparseable responses surface the same way, as a failed invocation.
type StructuredClient struct {
	client Client
}

// NewStructuredClient wraps a raw client.
func NewStructuredClient(client Client) *StructuredClient {
	return &StructuredClient{client: client}
}

// Complete implements reading.ModelClient.
func (s *StructuredClient) Complete(ctx context.Context, system, user string) (reading.StructuredReading, error) {
	raw, err := s.client.CompleteWithSystem(ctx, system, user)
	if err != nil {
		return reading.StructuredReading{}, err
	}
	return ParseReading(raw)
}
