package issues

import (
	"context"
	"errors"
	"testing"
)

func TestPublish_RejectsIncompleteIssue(t *testing.T) {
	tests := []struct {
		name  string
		issue NewIssue
	}{
		{name: "empty issue", issue: NewIssue{}},
		{name: "missing title", issue: NewIssue{HTMLContent: "<p>hi</p>", TextContent: "hi"}},
		{name: "missing html body", issue: NewIssue{Title: "Issue 1", TextContent: "hi"}},
		{name: "missing text body", issue: NewIssue{Title: "Issue 1", HTMLContent: "<p>hi</p>"}},
	}

	// Validation happens before any database work, so a nil pool is fine here.
	publisher := NewPublisher(nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := publisher.Publish(context.Background(), tt.issue)
			if !errors.Is(err, ErrEmptyIssue) {
				t.Errorf("Publish(%+v) error = %v, want ErrEmptyIssue", tt.issue, err)
			}
		})
	}
}
