package engine

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Veraticus/sift/internal/llm"
)

// ErrMockFailure is returned by MockClassifier on a scripted failure.
var ErrMockFailure = errors.New("mock classifier failure")

// MockClassifier is a scripted llm.Classifier for tests. It answers by
// keyword, or with a fixed response or error when one is set.
type MockClassifier struct {
	Keywords map[string]string
	Response *llm.Response
	Err      error
	// FailOn makes the call with this 1-based number fail.
	FailOn   int
	requests []llm.Request
	mu       sync.Mutex
}

// NewMockClassifier creates a mock that maps description keywords
// (case-insensitive) to category ids.
func NewMockClassifier(keywords map[string]string) *MockClassifier {
	return &MockClassifier{Keywords: keywords}
}

// ClassifyBatch records the request and answers it.
func (m *MockClassifier) ClassifyBatch(_ context.Context, req llm.Request) (llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.Err != nil || (m.FailOn > 0 && len(m.requests) == m.FailOn) {
		err := m.Err
		if err == nil {
			err = ErrMockFailure
		}
		return llm.Response{}, err
	}
	if m.Response != nil {
		return *m.Response, nil
	}

	resp := llm.Response{ModelName: req.ModelName, Usage: &llm.Usage{InputTokens: len(req.Batch), OutputTokens: 1}}
	for _, item := range req.Batch {
		desc := strings.ToLower(item.Description)
		for kw, cat := range m.Keywords {
			if strings.Contains(desc, strings.ToLower(kw)) {
				resp.Results = append(resp.Results, llm.Result{Index: item.Index, CategoryID: cat})
				break
			}
		}
	}
	return resp, nil
}

// Requests returns every request received so far.
func (m *MockClassifier) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.requests...)
}
