// Package importer streams CSV vertex and edge files into a batch loader.
//
// Vertex files need an id column and may carry a label column; edge files
// need from, to and label columns and may carry an id column. Every other
// column becomes a property. A column is typed with a suffix such as
// "age:int"; string is the default. Identifier columns accept string and
// int.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dd0wney/cluso-batchgraph/pkg/batch"
	"github.com/dd0wney/cluso-batchgraph/pkg/logging"
	"github.com/dd0wney/cluso-batchgraph/pkg/validation"
)

var (
	ErrBadHeader     = errors.New("invalid CSV header")
	ErrMissingColumn = errors.New("missing required column")
)

// DefaultVertexLabel is used for vertex rows without a label
const DefaultVertexLabel = "vertex"

// RowError reports the line of a rejected row
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Result summarises one imported file
type Result struct {
	Rows     int
	Vertices int
	Edges    int
	Skipped  int
	Duration time.Duration
}

// Importer feeds CSV rows to a BatchGraph
type Importer struct {
	g             *batch.BatchGraph
	logger        logging.Logger
	progressEvery int
	skipInvalid   bool
}

type Option func(*Importer)

func WithLogger(l logging.Logger) Option {
	return func(im *Importer) {
		im.logger = l
	}
}

// WithProgressEvery logs progress every n rows. Zero disables it.
func WithProgressEvery(n int) Option {
	return func(im *Importer) {
		im.progressEvery = n
	}
}

// WithSkipInvalid logs and skips rows that fail validation or reference
// unknown vertices instead of aborting the import.
func WithSkipInvalid(skip bool) Option {
	return func(im *Importer) {
		im.skipInvalid = skip
	}
}

func New(g *batch.BatchGraph, opts ...Option) *Importer {
	im := &Importer{
		g:             g,
		logger:        logging.NewNopLogger(),
		progressEvery: 100000,
	}
	for _, opt := range opts {
		opt(im)
	}
	im.logger = im.logger.With(logging.Component("importer"))
	return im
}

// ImportVertices adds one vertex per row of r
func (im *Importer) ImportVertices(ctx context.Context, r io.Reader) (Result, error) {
	return im.run(ctx, r, "vertices", []string{"id", "label"}, []string{"id"}, im.vertexRow)
}

// ImportEdges adds one edge per row of r. Both endpoints must already exist
// in the load or, for incremental loads, in the backing graph.
func (im *Importer) ImportEdges(ctx context.Context, r io.Reader) (Result, error) {
	return im.run(ctx, r, "edges", []string{"id", "from", "to", "label"}, []string{"from", "to", "label"}, im.edgeRow)
}

type rowFunc func(h *header, record []string, res *Result) error

func (im *Importer) run(ctx context.Context, r io.Reader, kind string, reserved, required []string, row rowFunc) (Result, error) {
	timer := logging.StartTimer(im.logger, "import finished", logging.String("file", kind))
	res, err := im.scan(ctx, r, kind, reserved, required, row)
	res.Duration = timer.Elapsed()
	if err != nil {
		timer.EndError(err)
		return res, err
	}
	timer.EndWithLevel(logging.InfoLevel, logging.Int("rows", res.Rows), logging.Int("skipped", res.Skipped))
	return res, nil
}

func (im *Importer) scan(ctx context.Context, r io.Reader, kind string, reserved, required []string, row rowFunc) (Result, error) {
	var res Result

	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	cells, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return res, fmt.Errorf("%w: empty %s file", ErrBadHeader, kind)
		}
		return res, fmt.Errorf("read %s header: %w", kind, err)
	}
	h, err := parseHeader(cells, reserved, required)
	if err != nil {
		return res, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read %s: %w", kind, err)
		}
		line, _ := reader.FieldPos(0)
		res.Rows++

		if err := row(h, record, &res); err != nil {
			if !im.skipInvalid || !skippable(err) {
				return res, &RowError{Line: line, Err: err}
			}
			res.Skipped++
			im.logger.Warn("row skipped", logging.String("file", kind), logging.Int("line", line), logging.Error(err))
		}

		if im.progressEvery > 0 && res.Rows%im.progressEvery == 0 {
			im.logger.Info("import progress", logging.String("file", kind), logging.Count(res.Rows))
		}
	}

	return res, nil
}

// skippable reports whether a row error concerns only that row's data
func skippable(err error) bool {
	var vErr *validationError
	return errors.As(err, &vErr) ||
		errors.Is(err, batch.ErrDuplicateIdentity) ||
		errors.Is(err, batch.ErrVertexNotFound) ||
		errors.Is(err, batch.ErrUnresolvedEndpoint) ||
		errors.Is(err, batch.ErrAmbiguousIdentity)
}

type validationError struct {
	err error
}

func (e *validationError) Error() string { return e.err.Error() }

func (e *validationError) Unwrap() error { return e.err }

func (im *Importer) vertexRow(h *header, record []string, res *Result) error {
	rec := validation.VertexRecord{
		ID:         h.cell(record, "id"),
		Label:      h.cell(record, "label"),
		Properties: h.rawProperties(record),
	}
	if err := validation.ValidateVertexRecord(&rec); err != nil {
		return &validationError{err}
	}

	id, err := h.id(record, "id")
	if err != nil {
		return &validationError{err}
	}
	props, err := h.typedProperties(rec.Properties)
	if err != nil {
		return &validationError{err}
	}
	label := rec.Label
	if label == "" {
		label = DefaultVertexLabel
	}

	if _, err := im.g.AddVertex(id, label, props); err != nil {
		return err
	}
	res.Vertices++
	return nil
}

func (im *Importer) edgeRow(h *header, record []string, res *Result) error {
	rec := validation.EdgeRecord{
		ID:         h.cell(record, "id"),
		From:       h.cell(record, "from"),
		To:         h.cell(record, "to"),
		Label:      h.cell(record, "label"),
		Properties: h.rawProperties(record),
	}
	if err := validation.ValidateEdgeRecord(&rec); err != nil {
		return &validationError{err}
	}

	var ids [3]any
	for i, name := range []string{"from", "to", "id"} {
		id, err := h.id(record, name)
		if err != nil {
			return &validationError{err}
		}
		ids[i] = id
	}
	props, err := h.typedProperties(rec.Properties)
	if err != nil {
		return &validationError{err}
	}

	// resolving the source first lets runs of edges sharing a source skip
	// the identity cache
	out, err := im.g.V(ids[0])
	if err != nil {
		return err
	}
	in, err := im.g.V(ids[1])
	if err != nil {
		return err
	}
	if _, err := out.AddEdgeWithID(ids[2], rec.Label, in, props); err != nil {
		return err
	}
	res.Edges++
	return nil
}
