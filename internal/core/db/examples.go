package db

import (
	"context"
	"fmt"
	"time"
)

// Example pairs an utterance with the rule code it maps to.
type Example struct {
	ID         int64  `db:"id" json:"id,omitempty"`
	Utterance  string `db:"utterance" json:"utterance"`
	TargetCode string `db:"target_code" json:"target_code"`
}

// ExampleStore persists utterance examples for the exact-match index.
type ExampleStore struct {
	queries *Queries
}

// NewExampleStore creates a store over named queries.
func NewExampleStore(queries *Queries) *ExampleStore {
	return &ExampleStore{queries: queries}
}

// ListExamples returns all examples in insertion order.
func (s *ExampleStore) ListExamples(ctx context.Context) ([]Example, error) {
	var examples []Example
	if err := s.queries.Select(ctx, "list-examples", &examples); err != nil {
		return nil, fmt.Errorf("failed to list examples: %w", err)
	}
	return examples, nil
}

// AddExample stores one example.
func (s *ExampleStore) AddExample(ctx context.Context, utterance, targetCode string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.queries.Exec(ctx, "insert-example", utterance, targetCode, now); err != nil {
		return fmt.Errorf("failed to insert example: %w", err)
	}
	return nil
}
