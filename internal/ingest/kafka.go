package ingest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/segmentio/kafka-go"

	"threat-monitor/internal/config"
	"threat-monitor/internal/logging"
	"threat-monitor/internal/models"
)

// maxBuffered bounds the ingest buffer; older records are dropped first
// once the cap is reached.
const maxBuffered = 1000

// Buffer accumulates records between monitoring cycles.
type Buffer struct {
	mu      sync.Mutex
	records []models.Record
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Add appends one record, evicting the oldest entry when full.
func (b *Buffer) Add(rec models.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.records) >= maxBuffered {
		b.records = b.records[1:]
	}
	b.records = append(b.records, rec)
}

// Drain returns the accumulated records and empties the buffer.
func (b *Buffer) Drain() []models.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.records
	b.records = nil
	return out
}

// customMessage is the wire shape accepted on the ingest topic.
type customMessage struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Consumer reads observations for the "custom" source type from a Kafka
// topic into the buffer.
type Consumer struct {
	reader *kafka.Reader
	buf    *Buffer
	logger *logging.Logger
}

// NewConsumer builds a consumer for the configured broker and topic.
func NewConsumer(cfg config.Config, buf *Buffer, logger *logging.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.Kafka.Broker},
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	return &Consumer{reader: reader, buf: buf, logger: logger}
}

// Start consumes messages until the context is cancelled.
func (c *Consumer) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.logger.Infof("Kafka ingest consumer started")
		for {
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.logger.Infof("Kafka ingest consumer stopped")
					return
				}
				c.logger.Errorf("Read message failed: %v", err)
				continue
			}

			var m customMessage
			if err := json.Unmarshal(msg.Value, &m); err != nil {
				c.logger.Errorf("Unmarshal ingest message failed: %v", err)
				continue
			}
			if m.Title == "" && m.Content == "" {
				c.logger.Warnf("Ignoring ingest message with no title or content")
				continue
			}

			c.buf.Add(models.Record{
				Fields: map[string]string{
					"title":   m.Title,
					"content": m.Content,
				},
				Raw: map[string]any{
					"title":   m.Title,
					"content": m.Content,
					"source":  m.Source,
					"topic":   msg.Topic,
					"offset":  msg.Offset,
				},
			})
		}
	}()
}

// Close shuts the underlying reader down.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
