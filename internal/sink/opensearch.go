package sink

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchutil"

	"github.com/telhawk-systems/runbridge/internal/logging"
	"github.com/telhawk-systems/runbridge/internal/sensor"
)

// OpenSearchConfig holds connection settings for the event index.
type OpenSearchConfig struct {
	URL      string
	Username string
	Password string
	Insecure bool
	Index    string
}

// eventDocument is the indexed form of an event.
type eventDocument struct {
	ID        string         `json:"id"`
	AssetKey  string         `json:"asset_key"`
	AssetPath []string       `json:"asset_path"`
	Timestamp time.Time      `json:"@timestamp"`
	Sensor    string         `json:"sensor"`
	TickID    string         `json:"tick_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// OpenSearchSink bulk-indexes events, keyed by event ID so replays overwrite.
type OpenSearchSink struct {
	client *opensearch.Client
	index  string
	sensor string
	logger *logging.Logger
}

// NewOpenSearchSink connects to OpenSearch and verifies the cluster responds.
func NewOpenSearchSink(cfg OpenSearchConfig, sensorName string, logger *logging.Logger) (*OpenSearchSink, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.Insecure,
			},
		},
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: httpClient.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	info, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to ping opensearch: %w", err)
	}
	defer info.Body.Close()

	if info.IsError() {
		return nil, fmt.Errorf("opensearch returned error: %s", info.Status())
	}

	if logger == nil {
		logger = logging.Default()
	}
	index := cfg.Index
	if index == "" {
		index = "runbridge-events"
	}
	return &OpenSearchSink{client: client, index: index, sensor: sensorName, logger: logger}, nil
}

func (s *OpenSearchSink) Name() string {
	return "opensearch"
}

func (s *OpenSearchSink) Emit(ctx context.Context, result *sensor.Result) error {
	if len(result.Events) == 0 {
		return nil
	}

	bi, err := opensearchutil.NewBulkIndexer(opensearchutil.BulkIndexerConfig{
		Client:     s.client,
		Index:      s.index,
		NumWorkers: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	tickID := logging.GetTickID(ctx)
	var (
		mu       sync.Mutex
		failures []string
	)
	fail := func(msg string) {
		mu.Lock()
		failures = append(failures, msg)
		mu.Unlock()
	}

	for _, e := range result.Events {
		data, err := json.Marshal(eventDocument{
			ID:        e.ID,
			AssetKey:  e.AssetKey.String(),
			AssetPath: e.AssetKey.Path(),
			Timestamp: e.Timestamp,
			Sensor:    s.sensor,
			TickID:    tickID,
			Metadata:  e.Metadata,
		})
		if err != nil {
			fail(fmt.Sprintf("%s: marshal: %v", e.ID, err))
			continue
		}

		err = bi.Add(ctx, opensearchutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: e.ID,
			Body:       bytes.NewReader(data),
			OnFailure: func(ctx context.Context, item opensearchutil.BulkIndexerItem, res opensearchutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					fail(fmt.Sprintf("%s: %v", item.DocumentID, err))
				} else {
					fail(fmt.Sprintf("%s: %s: %s", item.DocumentID, res.Error.Type, res.Error.Reason))
				}
			},
		})
		if err != nil {
			fail(fmt.Sprintf("%s: add: %v", e.ID, err))
		}
	}

	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("bulk indexer close error: %w", err)
	}

	stats := bi.Stats()
	s.logger.WithContext(ctx).Debug("indexed events",
		"index", s.index,
		"indexed", stats.NumIndexed,
		"failed", stats.NumFailed)

	if len(failures) > 0 {
		return fmt.Errorf("failed to index %d of %d events: %s",
			len(failures), len(result.Events), strings.Join(failures, "; "))
	}
	return nil
}
