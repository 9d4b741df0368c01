package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/jbrukh/bayesian"

	"github.com/Veraticus/sift/internal/common"
)

const defaultMinConfidence = 0.6

// bayesClassifier is an offline TF-IDF naive Bayes model trained on the
// categorized ledger. It only answers when one class clearly wins.
type bayesClassifier struct {
	cl            *bayesian.Classifier
	classes       []bayesian.Class
	minConfidence float64
	mu            sync.RWMutex
}

func newBayesClassifier(cfg Config) *bayesClassifier {
	minConfidence := cfg.MinConfidence
	if minConfidence <= 0 {
		minConfidence = defaultMinConfidence
	}
	return &bayesClassifier{minConfidence: minConfidence}
}

// Train rebuilds the model from labelled examples. The model needs at least
// two distinct categories; otherwise it stays untrained.
func (b *bayesClassifier) Train(examples []Example) {
	seen := make(map[string]bool)
	var classes []bayesian.Class
	for _, ex := range examples {
		if ex.CategoryID == "" || seen[ex.CategoryID] {
			continue
		}
		seen[ex.CategoryID] = true
		classes = append(classes, bayesian.Class(ex.CategoryID))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(classes) < 2 {
		b.cl, b.classes = nil, nil
		return
	}

	cl := bayesian.NewClassifierTfIdf(classes...)
	for _, ex := range examples {
		if terms := descriptionTerms(ex.Description); len(terms) > 0 && ex.CategoryID != "" {
			cl.Learn(terms, bayesian.Class(ex.CategoryID))
		}
	}
	cl.ConvertTermsFreqToTfIdf()

	b.cl, b.classes = cl, classes
}

func (b *bayesClassifier) classify(ctx context.Context, req Request) (Response, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.cl == nil {
		return Response{}, fmt.Errorf("%w: bayes model has not been trained", common.ErrClassifierUnavailable)
	}

	allowed := make(map[string]bool, len(req.Categories))
	for _, c := range req.Categories {
		allowed[c.ID] = true
	}

	var results []Result
	for _, item := range req.Batch {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}
		terms := descriptionTerms(item.Description)
		if len(terms) == 0 {
			continue
		}
		scores, best, strict := b.cl.ProbScores(terms)
		if !strict || scores[best] < b.minConfidence {
			continue
		}
		class := string(b.classes[best])
		if allowed[class] {
			results = append(results, Result{Index: item.Index, CategoryID: class})
		}
	}

	return Response{ModelName: "naive-bayes", Results: results}, nil
}

// descriptionTerms lower-cases a description and splits it into alphabetic
// tokens. Store numbers and card suffixes carry no signal.
func descriptionTerms(desc string) []string {
	fields := strings.FieldsFunc(strings.ToLower(desc), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	terms := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			terms = append(terms, f)
		}
	}
	return terms
}
