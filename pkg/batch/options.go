package batch

import (
	"github.com/dd0wney/cluso-batchgraph/pkg/idcache"
	"github.com/dd0wney/cluso-batchgraph/pkg/logging"
	"github.com/dd0wney/cluso-batchgraph/pkg/metrics"
)

// Option configures a BatchGraph at construction
type Option func(*BatchGraph)

// WithVertexIDKey stamps every vertex's external identifier onto the
// property key.
func WithVertexIDKey(key string) Option {
	return func(g *BatchGraph) {
		g.vertexIDKey = key
	}
}

// WithEdgeIDKey stamps edge identifiers onto the property key
func WithEdgeIDKey(key string) Option {
	return func(g *BatchGraph) {
		g.edgeIDKey = key
	}
}

// WithIncrementalLoading makes unresolved identifiers fall back to a lookup
// in the backing store.
func WithIncrementalLoading() Option {
	return func(g *BatchGraph) {
		g.loadingFromScratch = false
	}
}

// WithCache replaces the identity cache selected by the id type
func WithCache(c idcache.Cache) Option {
	return func(g *BatchGraph) {
		g.cache = c
	}
}

func WithLogger(l logging.Logger) Option {
	return func(g *BatchGraph) {
		g.logger = l
	}
}

func WithMetrics(m *metrics.Registry) Option {
	return func(g *BatchGraph) {
		g.metrics = m
	}
}

// WithLoadID names the load session in log output. A random UUID is used
// otherwise.
func WithLoadID(id string) Option {
	return func(g *BatchGraph) {
		g.loadID = id
	}
}
