package engine

import (
	"context"

	"github.com/Veraticus/sift/internal/config"
	"github.com/Veraticus/sift/internal/llm"
	"github.com/Veraticus/sift/internal/model"
	"github.com/Veraticus/sift/internal/service"
)

// BatchItem is a description awaiting AI categorization. Index is the
// caller's position for the item.
type BatchItem struct {
	Description string
	Index       int
}

// BatchOutcome is what the AI pass produced.
type BatchOutcome struct {
	// Assignments maps item index to category id.
	Assignments map[int]string
	Usage       llm.Usage
	Batches     int
	Failed      int
}

// BatchCategorizer sends descriptions to the classifier in sequential,
// bounded batches and keeps only answers that refer to a requested item and
// a known category.
type BatchCategorizer struct {
	classifier llm.Classifier
	logs       *LogRecorder
}

// NewBatchCategorizer creates a categorizer that records observations in logs.
func NewBatchCategorizer(classifier llm.Classifier, logs *LogRecorder) *BatchCategorizer {
	return &BatchCategorizer{classifier: classifier, logs: logs}
}

// Categorize classifies items against catalog. A failed batch contributes no
// assignments and the remaining batches still run. Once ctx is done no
// further calls are made. progress receives (items processed, total items)
// after every batch.
func (b *BatchCategorizer) Categorize(ctx context.Context, items []BatchItem, catalog []model.Category, cfg config.AIConfig, progress service.ProgressFunc) BatchOutcome {
	out := BatchOutcome{Assignments: make(map[int]string)}
	if len(items) == 0 {
		return out
	}

	size := cfg.BatchSize
	if size <= 0 {
		size = config.DefaultBatchSize
	}

	refs := make([]llm.CategoryRef, 0, len(catalog))
	known := make(map[string]bool, len(catalog))
	for _, c := range catalog {
		if model.IsUncategorizedID(c.ID) {
			continue
		}
		refs = append(refs, llm.CategoryRef{ID: c.ID, Name: c.Name})
		known[c.ID] = true
	}

	b.logs.Record(ctx, model.AILogInfo, "starting AI categorization", map[string]any{
		"items":       len(items),
		"batch_size":  size,
		"model":       cfg.ModelName,
		"thinking":    cfg.EnableThinking,
		"temperature": cfg.Temperature,
	})

	processed := 0
	for start := 0; start < len(items); start += size {
		if err := ctx.Err(); err != nil {
			b.logs.Record(ctx, model.AILogError, "AI categorization cancelled", map[string]any{
				"processed": processed,
				"total":     len(items),
			})
			break
		}

		chunk := items[start:min(start+size, len(items))]
		out.Batches++

		assigned, usage, err := b.classifyChunk(ctx, chunk, refs, known, cfg)
		if err != nil {
			out.Failed++
			b.logs.Record(ctx, model.AILogError, "AI batch failed", map[string]any{
				"batch":      out.Batches,
				"batch_size": len(chunk),
				"error":      err.Error(),
			})
		} else {
			for idx, cat := range assigned {
				out.Assignments[idx] = cat
			}
			out.Usage.InputTokens += usage.InputTokens
			out.Usage.OutputTokens += usage.OutputTokens
			b.logs.Record(ctx, model.AILogSuccess, "AI batch categorized", map[string]any{
				"batch":         out.Batches,
				"batch_size":    len(chunk),
				"categorized":   len(assigned),
				"input_tokens":  usage.InputTokens,
				"output_tokens": usage.OutputTokens,
			})
		}

		processed += len(chunk)
		progress.Report(processed, len(items))
	}

	return out
}

func (b *BatchCategorizer) classifyChunk(ctx context.Context, chunk []BatchItem, refs []llm.CategoryRef, known map[string]bool, cfg config.AIConfig) (map[int]string, llm.Usage, error) {
	req := llm.Request{
		Provider:       cfg.Provider,
		ModelName:      cfg.ModelName,
		EnableThinking: cfg.EnableThinking,
		Temperature:    cfg.Temperature,
		Categories:     refs,
		Batch:          make([]llm.BatchItem, len(chunk)),
	}
	inChunk := make(map[int]bool, len(chunk))
	for i, item := range chunk {
		req.Batch[i] = llm.BatchItem{Description: item.Description, Index: item.Index}
		inChunk[item.Index] = true
	}

	resp, err := b.classifier.ClassifyBatch(ctx, req)
	if err != nil {
		return nil, llm.Usage{}, err
	}

	assigned := make(map[int]string, len(resp.Results))
	var badIndex, badCategory int
	for _, r := range resp.Results {
		switch {
		case !inChunk[r.Index]:
			badIndex++
		case !known[r.CategoryID]:
			badCategory++
		default:
			if _, dup := assigned[r.Index]; !dup {
				assigned[r.Index] = r.CategoryID
			}
		}
	}
	if badIndex > 0 || badCategory > 0 {
		b.logs.Record(ctx, model.AILogDebug, "dropped invalid AI results", map[string]any{
			"unknown_index":    badIndex,
			"unknown_category": badCategory,
		})
	}

	var usage llm.Usage
	if resp.Usage != nil {
		usage = *resp.Usage
	}
	return assigned, usage, nil
}
