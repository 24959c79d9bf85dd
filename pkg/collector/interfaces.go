package collector

import (
	"context"
	"net/url"

	"graphharvest/pkg/graph"
)

// Transport defines the Graph operations the collector drives
type Transport interface {
	FetchObject(ctx context.Context, id, fields string) (graph.Record, error)
	FetchConnection(ctx context.Context, id, edge, fields string, params url.Values) (*graph.Connection, error)
	FetchNextPage(ctx context.Context, conn *graph.Connection) (*graph.Connection, error)
}

// PageObserver is notified of every page appended to a collection
type PageObserver interface {
	ObservePage(edge string, records int)
}
