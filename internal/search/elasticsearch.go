package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/AchAffand/SuratJalan-sub001/config"
	"github.com/AchAffand/SuratJalan-sub001/internal/model"
)

// Client is an interface for delivery note search operations
type Client interface {
	IndexNote(ctx context.Context, note *model.DeliveryNote) error
	DeleteNote(ctx context.Context, id string) error
	SearchNotes(ctx context.Context, query string) ([]json.RawMessage, error)
}

// esClient implements the Client interface
type esClient struct {
	client *elasticsearch.Client
	index  string
}

// NewClient creates a new Elasticsearch client
func NewClient(cfg config.ElasticsearchConfig) (Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.URLs,
	}

	if cfg.Username != "" && cfg.Password != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	esCfg.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	// Test the connection
	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("Elasticsearch error: %s", res.String())
	}

	return &esClient{
		client: client,
		index:  cfg.Index,
	}, nil
}

// IndexNote indexes a delivery note document
func (e *esClient) IndexNote(ctx context.Context, note *model.DeliveryNote) error {
	document, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal note: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: note.UUID,
		Body:       bytes.NewReader(document),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("failed to index note: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing note: %s", res.String())
	}

	return nil
}

// DeleteNote removes a delivery note document from the index
func (e *esClient) DeleteNote(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{
		Index:      e.index,
		DocumentID: id,
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("failed to delete note from index: %w", err)
	}
	defer res.Body.Close()

	// A missing document is fine, the note may never have been indexed
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("error deleting note from index: %s", res.String())
	}

	return nil
}

// SearchNotes searches delivery notes by plate, driver, note number or destination
func (e *esClient) SearchNotes(ctx context.Context, query string) ([]json.RawMessage, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"vehicle_plate", "driver_name", "note_number", "destination"},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(&buf),
		e.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching notes: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	documents := make([]json.RawMessage, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		documents = append(documents, hit.Source)
	}

	return documents, nil
}
