package chroma

import (
	"context"
	"fmt"
	"log"
	"os"

	"fieldline-backend/pkg/config"
	gmailpkg "fieldline-backend/pkg/gmail"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
)

// ThreadIndex stores thread embeddings for semantic inbox search.
type ThreadIndex struct {
	client     chroma.Client
	embedFunc  *gemini.GeminiEmbeddingFunction
	config     *config.Config
	collection chroma.Collection
}

func NewThreadIndex(cfg *config.Config) (*ThreadIndex, error) {
	if cfg.ChromaAPIKey == "" {
		return nil, fmt.Errorf("CHROMA_API_KEY is required")
	}

	if cfg.GeminiAPIKey != "" {
		os.Setenv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	}

	embedFunc, err := gemini.NewGeminiEmbeddingFunction(
		gemini.WithEnvAPIKey(),
		gemini.WithDefaultModel("text-embedding-004"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding function: %w", err)
	}

	var client chroma.Client
	if cfg.ChromaDatabase != "" && cfg.ChromaTenant != "" {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
			chroma.WithDatabaseAndTenant(cfg.ChromaDatabase, cfg.ChromaTenant),
		)
	} else {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(
		context.Background(),
		"email_threads",
		chroma.WithEmbeddingFunctionCreate(embedFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("[Chroma] Initialized thread index")

	return &ThreadIndex{
		client:     client,
		embedFunc:  embedFunc,
		config:     cfg,
		collection: collection,
	}, nil
}

// UpsertThread indexes (or refreshes) a thread's subject and latest body.
// Thread ID doubles as the document ID so repeated syncs do not duplicate.
func (c *ThreadIndex) UpsertThread(ctx context.Context, threadID, subject, body string) error {
	text := fmt.Sprintf("Subject: %s\n\nBody: %s", subject, body)
	// Embedding models have token limits.
	text = gmailpkg.TruncateRunes(text, 10000)

	metadata, err := chroma.NewDocumentMetadataFromMap(map[string]interface{}{
		"thread_id": threadID,
		"subject":   subject,
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata: %w", err)
	}

	err = c.collection.Upsert(
		ctx,
		chroma.WithIDs(chroma.DocumentID(threadID)),
		chroma.WithMetadatas(metadata),
		chroma.WithTexts(text),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert thread embedding: %w", err)
	}

	return nil
}

// Search returns thread IDs ranked by semantic similarity to the query.
func (c *ThreadIndex) Search(ctx context.Context, query string, limit int) ([]string, []float64, error) {
	results, err := c.collection.Query(
		ctx,
		chroma.WithQueryTexts(query),
		chroma.WithNResults(limit),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query collection: %w", err)
	}

	if results == nil || results.CountGroups() == 0 {
		return []string{}, []float64{}, nil
	}

	idGroups := results.GetIDGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(idGroups) == 0 || len(idGroups[0]) == 0 {
		return []string{}, []float64{}, nil
	}

	threadIDs := make([]string, 0, len(idGroups[0]))
	for _, id := range idGroups[0] {
		threadIDs = append(threadIDs, string(id))
	}

	distances := []float64{}
	if len(distanceGroups) > 0 {
		for _, d := range distanceGroups[0] {
			distances = append(distances, float64(d))
		}
	}

	return threadIDs, distances, nil
}

// DeleteThread removes a soft-deleted thread from the index.
func (c *ThreadIndex) DeleteThread(ctx context.Context, threadID string) error {
	err := c.collection.Delete(ctx, chroma.WithIDsDelete(chroma.DocumentID(threadID)))
	if err != nil {
		return fmt.Errorf("failed to delete thread embedding: %w", err)
	}
	return nil
}
