// Package catalog maintains the document registry in Neo4j: one node per
// ingested manual, its sections, and cross-reference links between
// documents. Retrieval never touches the catalog; it serves the document
// listing API and ingest bookkeeping.
package catalog

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Document is the registry record for one ingested manual.
type Document struct {
	Name       string    `json:"doc_name"`
	Pages      int       `json:"pages"`
	Chunks     int       `json:"chunks"`
	Sections   int       `json:"sections"`
	SHA256     string    `json:"sha256"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Section is a heading-delimited region of a document.
type Section struct {
	DocName   string `json:"doc_name"`
	Title     string `json:"title"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
	Chunks    int    `json:"chunks"`
}

// Stats holds aggregate catalog counts.
type Stats struct {
	Documents  int64 `json:"documents"`
	Sections   int64 `json:"sections"`
	References int64 `json:"references"`
}

// CypherResult is the minimal result surface the catalog consumes.
type CypherResult interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// CypherSession is the minimal session surface the catalog consumes.
type CypherSession interface {
	Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error)
	Close(ctx context.Context) error
}

// SessionOpener opens catalog sessions. The production implementation
// wraps neo4j.DriverWithContext; tests substitute fakes.
type SessionOpener interface {
	OpenSession(ctx context.Context) CypherSession
}

func timeFromUnix(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

type driverOpener struct {
	driver neo4j.DriverWithContext
}

func (d driverOpener) OpenSession(ctx context.Context) CypherSession {
	return sessionAdapter{sess: d.driver.NewSession(ctx, neo4j.SessionConfig{})}
}

type sessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a sessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (CypherResult, error) {
	res, err := a.sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return resultAdapter{res: res}, nil
}

func (a sessionAdapter) Close(ctx context.Context) error {
	return a.sess.Close(ctx)
}

type resultAdapter struct {
	res neo4j.ResultWithContext
}

func (r resultAdapter) Next(ctx context.Context) bool { return r.res.Next(ctx) }
func (r resultAdapter) Record() *neo4j.Record         { return r.res.Record() }
func (r resultAdapter) Err() error                    { return r.res.Err() }
