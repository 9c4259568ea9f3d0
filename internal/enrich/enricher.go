package enrich

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/zionnet/newsflow/internal/domain"
	"github.com/zionnet/newsflow/internal/summarize"
	"github.com/zionnet/newsflow/internal/upstream"
)

// SummaryUnavailable is substituted when the summarization collaborator
// fails; a missing summary never fails the whole fetch.
const SummaryUnavailable = "summary unavailable"

// Enricher fetches the freshest item for one category and attaches a
// generated summary.
type Enricher struct {
	source     upstream.Source
	summarizer summarize.Summarizer
	logger     *zap.Logger
}

func New(source upstream.Source, summarizer summarize.Summarizer, logger *zap.Logger) *Enricher {
	return &Enricher{source: source, summarizer: summarizer, logger: logger}
}

// Fetch returns the enriched first article for the category.
//
// A non-success upstream status, an empty result set, or an item without a
// link all yield domain.ErrNoArticle; the category is a miss, not a fault.
// Transport failures propagate as errors; the pipeline downgrades both cases
// to a per-category omission.
func (e *Enricher) Fetch(ctx context.Context, category domain.Category) (*domain.ContentRecord, error) {
	resp, err := e.source.Query(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("upstream query for %q: %w", category, err)
	}

	if resp.Status != "success" || len(resp.Results) == 0 {
		return nil, domain.ErrNoArticle
	}

	first := resp.Results[0]
	if first.Link == "" {
		return nil, domain.ErrNoArticle
	}

	summary, err := e.summarizer.Summarize(ctx, first.Link)
	if err != nil {
		e.logger.Warn("summarization failed, substituting placeholder",
			zap.String("category", string(category)),
			zap.String("link", first.Link),
			zap.Error(err),
		)
		summary = SummaryUnavailable
	}

	return &domain.ContentRecord{
		Category:    category,
		Tags:        dedupeTags(first.Category),
		Title:       first.Title,
		Description: first.Description,
		Link:        first.Link,
		Summary:     summary,
	}, nil
}

// dedupeTags collapses the upstream tag list to a set, keeping first-seen order.
func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
