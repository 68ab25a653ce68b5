package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/riadocs/ria/pkg/natsutil"
)

const (
	// Subject carries parsed documents to the ingest worker.
	Subject = "ria.ingest.docs"
	// DLQSubject receives documents that failed MaxRetries times.
	DLQSubject = "ria.ingest.docs.dlq"
	// DoneSubject announces successfully stored documents.
	DoneSubject = "ria.ingest.docs.done"
	// MaxRetries before a document goes to the DLQ.
	MaxRetries = 3

	retryHeader = "X-Retry-Count"
)

// DoneEvent is published after a document is stored, with the corpus
// size at that point.
type DoneEvent struct {
	Doc    string `json:"doc"`
	Chunks int    `json:"chunks"`
}

// dlqMessage is published to the DLQ on repeated failure.
type dlqMessage struct {
	Doc     ParsedDoc `json:"doc"`
	Error   string    `json:"error"`
	Retries int       `json:"retries"`
}

// StartConsumer subscribes to the ingest subject and runs each document
// through the pipeline, re-publishing failures with an incremented retry
// count until they land in the DLQ.
func StartConsumer(nc *nats.Conn, deps Deps) (*nats.Subscription, error) {
	pipeline := NewPipeline(deps)
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	return nc.Subscribe(Subject, func(msg *nats.Msg) {
		var doc ParsedDoc
		if err := json.Unmarshal(msg.Data, &doc); err != nil {
			log.Error("ingest: unmarshal failed", "error", err)
			return
		}

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get(retryHeader); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		result := pipeline(context.Background(), doc)
		if result.IsErr() {
			_, pipeErr := result.Unwrap()
			retries++
			log.Error("ingest: pipeline failed",
				"error", pipeErr,
				"doc", doc.DocName,
				"retry", retries,
			)

			if retries >= MaxRetries {
				data, _ := json.Marshal(dlqMessage{Doc: doc, Error: pipeErr.Error(), Retries: retries})
				if err := nc.Publish(DLQSubject, data); err != nil {
					log.Error("ingest: DLQ publish failed", "error", err)
				}
				return
			}

			retryMsg := nats.NewMsg(Subject)
			retryMsg.Data = msg.Data
			retryMsg.Header = nats.Header{}
			retryMsg.Header.Set(retryHeader, fmt.Sprintf("%d", retries))
			if err := nc.PublishMsg(retryMsg); err != nil {
				log.Error("ingest: retry publish failed", "error", err)
			}
			return
		}

		docName, _ := result.Unwrap()
		log.Info("ingest: document stored", "doc", docName)

		done := DoneEvent{Doc: docName, Chunks: deps.Corpus.Len()}
		if err := natsutil.Publish(context.Background(), nc, DoneSubject, done); err != nil {
			log.Error("ingest: done publish failed", "error", err)
		}
	})
}
