package vectorstore

import (
	"context"
	"fmt"

	"vectorstore-rag/domain"

	qdrant "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
)

// Payload field names under which snippet data is stored on each point.
const (
	payloadText          = "text"
	payloadReferenceDesc = "reference_description"
	payloadReferenceLink = "reference_link"
)

// QdrantClient implements domain.VectorStore backed by a Qdrant collection
// reached over gRPC. Keys are textual GUIDs; each record is persisted as one
// point whose payload carries the snippet text and reference fields.
type QdrantClient struct {
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
	collection  string
	dimensions  int
	logger      *zap.Logger
}

// NewQdrantClient connects to the Qdrant instance at addr and targets the
// given collection. The collection itself is created lazily by
// EnsureCollection.
func NewQdrantClient(addr, collection string, dimensions int, logger *zap.Logger) (*QdrantClient, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("could not connect to Qdrant: %w", err)
	}
	return &QdrantClient{
		points:      qdrant.NewPointsClient(conn),
		collections: qdrant.NewCollectionsClient(conn),
		collection:  collection,
		dimensions:  dimensions,
		logger:      logger,
	}, nil
}

// EnsureCollection creates the collection if it does not exist yet. Calling
// it against an existing collection is a no-op.
func (c *QdrantClient) EnsureCollection(ctx context.Context) error {
	_, err := c.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: c.collection,
	})
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.Unavailable {
		return c.wrapRPC("get collection info", err)
	}

	c.logger.Info("collection does not exist, creating",
		zap.String("collection", c.collection),
		zap.Int("dimensions", c.dimensions))

	_, err = c.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: c.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(c.dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return c.wrapRPC("create collection", err)
	}
	return nil
}

// Upsert inserts or replaces a single snippet by key.
func (c *QdrantClient) Upsert(ctx context.Context, snippet domain.TextSnippet[string]) (string, error) {
	if err := snippet.Validate(c.dimensions); err != nil {
		return snippet.Key, err
	}
	keys, err := c.upsertPoints(ctx, []domain.TextSnippet[string]{snippet})
	if err != nil {
		return snippet.Key, err
	}
	return keys[0], nil
}

// UpsertBatch writes snippets in a single request. Qdrant applies the whole
// batch or none of it; a failed request surfaces as a *domain.BatchError
// listing the keys that were not committed.
func (c *QdrantClient) UpsertBatch(ctx context.Context, snippets []domain.TextSnippet[string]) ([]string, error) {
	for _, snippet := range snippets {
		if err := snippet.Validate(c.dimensions); err != nil {
			return nil, &domain.BatchError{FailedKeys: snippetKeys(snippets), Err: err}
		}
	}
	keys, err := c.upsertPoints(ctx, snippets)
	if err != nil {
		return nil, &domain.BatchError{FailedKeys: snippetKeys(snippets), Err: err}
	}
	return keys, nil
}

func (c *QdrantClient) upsertPoints(ctx context.Context, snippets []domain.TextSnippet[string]) ([]string, error) {
	if len(snippets) == 0 {
		return nil, nil
	}
	points := make([]*qdrant.PointStruct, len(snippets))
	keys := make([]string, len(snippets))
	for i, snippet := range snippets {
		payload := map[string]*qdrant.Value{
			payloadText: stringValue(snippet.Text),
		}
		if snippet.ReferenceDescription != "" {
			payload[payloadReferenceDesc] = stringValue(snippet.ReferenceDescription)
		}
		if snippet.ReferenceLink != "" {
			payload[payloadReferenceLink] = stringValue(snippet.ReferenceLink)
		}
		points[i] = &qdrant.PointStruct{
			Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: snippet.Key}},
			Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: snippet.Embedding}}},
			Payload: payload,
		}
		keys[i] = snippet.Key
	}

	_, err := c.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.collection,
		Points:         points,
		Wait:           proto.Bool(true), // writes must be acknowledged before the call returns
	})
	if err != nil {
		return nil, c.wrapRPC("upsert points", err)
	}
	return keys, nil
}

// Get returns the snippet stored under key, or nil if no point exists.
func (c *QdrantClient) Get(ctx context.Context, key string) (*domain.TextSnippet[string], error) {
	resp, err := c.points.Get(ctx, &qdrant.GetPoints{
		CollectionName: c.collection,
		Ids:            []*qdrant.PointId{{PointIdOptions: &qdrant.PointId_Uuid{Uuid: key}}},
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &qdrant.WithVectorsSelector{SelectorOptions: &qdrant.WithVectorsSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, c.wrapRPC("get point", err)
	}
	result := resp.GetResult()
	if len(result) == 0 {
		return nil, nil
	}
	point := result[0]
	snippet := domain.TextSnippet[string]{
		Key:                  key,
		Text:                 point.GetPayload()[payloadText].GetStringValue(),
		Embedding:            point.GetVectors().GetVector().GetData(),
		ReferenceDescription: point.GetPayload()[payloadReferenceDesc].GetStringValue(),
		ReferenceLink:        point.GetPayload()[payloadReferenceLink].GetStringValue(),
	}
	return &snippet, nil
}

// Delete removes the point stored under key and reports whether it existed.
func (c *QdrantClient) Delete(ctx context.Context, key string) (bool, error) {
	existing, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}
	_, err = c.points.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{
					Ids: []*qdrant.PointId{{PointIdOptions: &qdrant.PointId_Uuid{Uuid: key}}},
				},
			},
		},
		Wait: proto.Bool(true),
	})
	if err != nil {
		return false, c.wrapRPC("delete point", err)
	}
	return true, nil
}

// SearchByVector runs a similarity search against the collection. Ranking is
// delegated to the server (cosine distance, configured at collection
// creation). The optional predicate is applied to the returned hits.
func (c *QdrantClient) SearchByVector(ctx context.Context, query domain.Embedding, topK int, filter domain.Filter[string]) ([]domain.ScoredSnippet[string], error) {
	if len(query) != c.dimensions {
		return nil, &domain.DimensionError{Want: c.dimensions, Got: len(query)}
	}
	if topK < 1 {
		return nil, fmt.Errorf("topK must be at least 1, got %d", topK)
	}
	resp, err := c.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: c.collection,
		Vector:         query,
		Limit:          uint64(topK),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &qdrant.WithVectorsSelector{SelectorOptions: &qdrant.WithVectorsSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, c.wrapRPC("search points", err)
	}

	results := make([]domain.ScoredSnippet[string], 0, len(resp.GetResult()))
	for _, hit := range resp.GetResult() {
		key := ""
		if uuidVal, ok := hit.GetId().GetPointIdOptions().(*qdrant.PointId_Uuid); ok {
			key = uuidVal.Uuid
		}
		snippet := domain.TextSnippet[string]{
			Key:                  key,
			Text:                 hit.GetPayload()[payloadText].GetStringValue(),
			Embedding:            hit.GetVectors().GetVector().GetData(),
			ReferenceDescription: hit.GetPayload()[payloadReferenceDesc].GetStringValue(),
			ReferenceLink:        hit.GetPayload()[payloadReferenceLink].GetStringValue(),
		}
		if filter != nil && !filter(snippet) {
			continue
		}
		results = append(results, domain.ScoredSnippet[string]{
			Snippet: snippet,
			Score:   float64(hit.GetScore()),
		})
	}
	return results, nil
}

// wrapRPC wraps a gRPC error, marking transport-level failures as
// domain.ErrStoreUnavailable so callers can tell an unreachable backend from
// a rejected request.
func (c *QdrantClient) wrapRPC(op string, err error) error {
	if status.Code(err) == codes.Unavailable {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func snippetKeys(snippets []domain.TextSnippet[string]) []string {
	keys := make([]string, len(snippets))
	for i, snippet := range snippets {
		keys[i] = snippet.Key
	}
	return keys
}

func stringValue(v string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
}
