package usecase

import (
	"context"
	"fmt"
	"log"
)

// SemanticSearch queries the vector index and hydrates the hits from the
// thread store. Threads that were deleted since indexing are skipped.
func (u *threadUsecase) SemanticSearch(ctx context.Context, query string, limit int) ([]*SearchHit, error) {
	if u.deps.Index == nil {
		return nil, fmt.Errorf("semantic search is not configured")
	}
	if limit <= 0 {
		limit = 10
	}

	ids, distances, err := u.deps.Index.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]*SearchHit, 0, len(ids))
	for i, id := range ids {
		t, err := u.deps.Threads.FindByID(id)
		if err != nil {
			log.Printf("[Search] Failed to load thread %s: %v", id, err)
			continue
		}
		if t == nil || t.IsDeleted {
			continue
		}

		hit := &SearchHit{Thread: u.view(t)}
		if i < len(distances) {
			hit.Distance = distances[i]
		}
		hits = append(hits, hit)
	}

	return hits, nil
}
