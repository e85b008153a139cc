// Package resolver fetches command nodes and their schema/options
// attachments once per process and hands every caller a derived copy.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formfields/internal/logging"
	"github.com/goliatone/go-formfields/internal/metrics"
	"github.com/goliatone/go-formfields/pkg/cache"
	"github.com/goliatone/go-formfields/pkg/flight"
	"github.com/goliatone/go-formfields/pkg/infer"
	"github.com/goliatone/go-formfields/pkg/project"
	"github.com/goliatone/go-formfields/pkg/schema"
	"github.com/goliatone/go-formfields/pkg/store"
)

// ErrNoStore is returned when a resolver is created without a store.
var ErrNoStore = errors.New("resolver: store is required")

// ExampleKey marks a schema attachment whose schema is inferred from an
// example value: {"byExample": {...}}.
const ExampleKey = "byExample"

// Mode selects which view of a node callers receive.
type Mode int

const (
	// Master returns the node's schema and options as stored.
	Master Mode = iota
	// Slave returns the read-only projection.
	Slave
)

func (m Mode) String() string {
	if m == Slave {
		return "slave"
	}
	return "master"
}

// NodeKey identifies a node cache entry.
type NodeKey struct {
	NodeID string
}

func (k NodeKey) String() string {
	return "command-field:" + k.NodeID
}

// Document is the cached master view of a node.
type Document struct {
	NodeID   string
	Metadata map[string]any
	Schema   *schema.Schema
	Options  *schema.Options
}

// Result is what a caller receives. It never aliases the cached document.
type Result struct {
	NodeID  string
	Mode    Mode
	Schema  *schema.Schema
	Options *schema.Options
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache replaces the in-memory attachment cache.
func WithCache(c cache.Cache) Option {
	return func(r *Resolver) {
		if c != nil {
			r.attachments = c
		}
	}
}

// WithLogger sets the logger used for cache traces.
func WithLogger(l logging.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithEngine sets the inference engine used for byExample schemas.
func WithEngine(e *infer.Engine) Option {
	return func(r *Resolver) {
		if e != nil {
			r.engine = e
		}
	}
}

// WithRegisterer registers the resolver counters on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Resolver) {
		r.registerer = reg
	}
}

// Resolver owns the node cache. Entries are installed before any I/O so
// concurrent callers for the same node share one fetch.
type Resolver struct {
	store       store.Store
	attachments cache.Cache
	engine      *infer.Engine
	logger      logging.Logger
	registerer  prometheus.Registerer
	metrics     *metrics.Resolver

	mu    sync.Mutex
	nodes map[NodeKey]*flight.Future[*Document]
}

// New creates a resolver over s.
func New(s store.Store, options ...Option) (*Resolver, error) {
	if s == nil {
		return nil, ErrNoStore
	}
	r := &Resolver{
		store:       s,
		attachments: cache.NewMemory(),
		engine:      infer.Default(),
		logger:      logging.NewNop(),
		nodes:       make(map[NodeKey]*flight.Future[*Document]),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	m, err := metrics.NewResolver(r.registerer)
	if err != nil {
		return nil, fmt.Errorf("resolver: register metrics: %w", err)
	}
	r.metrics = m
	return r, nil
}

// Resolve delivers the node's schema and options to done. On a resolved hit
// done runs before Resolve returns; otherwise it runs once, on the fetching
// goroutine, after the single shared fetch finishes. Pending waiters are
// queued while the cache lock is held, so they fire in the order their
// Resolve calls reached the cache.
//
// The shared fetch is detached from ctx cancellation: one caller giving up
// must not fail the other waiters. Callers that need to stop waiting use
// Load, which returns on ctx.Done.
func (r *Resolver) Resolve(ctx context.Context, nodeID string, mode Mode, done func(Result, error)) {
	if done == nil {
		done = func(Result, error) {}
	}
	if nodeID == "" {
		done(Result{}, errors.New("resolver: node id is required"))
		return
	}

	key := NodeKey{NodeID: nodeID}
	log := r.logger.With(map[string]any{"node": key.String(), "mode": mode.String()})
	deliver := func(doc *Document, err error) {
		if err != nil {
			done(Result{}, err)
			return
		}
		done(derive(doc, mode), nil)
	}

	r.mu.Lock()
	future, ok := r.nodes[key]
	fresh := !ok
	if fresh {
		future = flight.New[*Document]()
		r.nodes[key] = future
	}
	queued := future.Enqueue(deliver)
	r.mu.Unlock()

	switch {
	case fresh:
		r.metrics.Node(metrics.ResultMiss)
		log.Debug("node cache miss", nil)
	case queued:
		r.metrics.Node(metrics.ResultWait)
		log.Debug("node fetch in flight, waiting", nil)
	default:
		r.metrics.Node(metrics.ResultHit)
		log.Debug("node cache hit", nil)
		future.Then(deliver)
	}

	if fresh {
		go r.fetch(context.WithoutCancel(ctx), key, future, log)
	}
}

// Load is the blocking form of Resolve.
func (r *Resolver) Load(ctx context.Context, nodeID string, mode Mode) (Result, error) {
	type outcome struct {
		result Result
		err    error
	}
	ch := make(chan outcome, 1)
	r.Resolve(ctx, nodeID, mode, func(result Result, err error) {
		ch <- outcome{result: result, err: err}
	})
	select {
	case out := <-ch:
		return out.result, out.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Forget drops the node entry and its cached attachments. An in-flight fetch
// still resolves its own waiters.
func (r *Resolver) Forget(ctx context.Context, nodeID string) error {
	r.mu.Lock()
	delete(r.nodes, NodeKey{NodeID: nodeID})
	r.mu.Unlock()

	return r.attachments.Delete(ctx,
		cache.AttachmentKey{NodeID: nodeID, Name: store.AttachmentSchema},
		cache.AttachmentKey{NodeID: nodeID, Name: store.AttachmentOptions},
	)
}

// Cached reports whether a node entry exists, resolved or not.
func (r *Resolver) Cached(nodeID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.nodes[NodeKey{NodeID: nodeID}]
	return ok
}

func (r *Resolver) fetch(ctx context.Context, key NodeKey, future *flight.Future[*Document], log logging.Logger) {
	doc, err := r.load(ctx, key.NodeID, log)
	if err != nil {
		r.evict(key, future)
		log.WithError(err).Warn("node fetch failed", nil)
	} else {
		log.Debug("node fetched, firing waiters", map[string]any{"waiters": future.Pending()})
	}
	future.Resolve(doc, err)
}

func (r *Resolver) evict(key NodeKey, future *flight.Future[*Document]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.nodes[key]; ok && current == future {
		delete(r.nodes, key)
	}
}

func (r *Resolver) load(ctx context.Context, nodeID string, log logging.Logger) (*Document, error) {
	node, err := r.store.QueryOne(ctx, store.Query{DocID: nodeID})
	if err != nil {
		r.metrics.Error(metrics.StageQuery)
		return nil, fmt.Errorf("resolver: query %s: %w", nodeID, err)
	}

	var schemaRaw, optionsRaw []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := r.attachment(gctx, node, store.AttachmentSchema, log)
		schemaRaw = data
		return err
	})
	g.Go(func() error {
		data, err := r.attachment(gctx, node, store.AttachmentOptions, log)
		optionsRaw = data
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s, err := r.parseSchema(schemaRaw)
	if err != nil {
		r.metrics.Error(metrics.StageParse)
		return nil, fmt.Errorf("resolver: parse %s schema: %w", nodeID, err)
	}
	opts, err := schema.ParseOptions(optionsRaw)
	if err != nil {
		r.metrics.Error(metrics.StageParse)
		return nil, fmt.Errorf("resolver: parse %s options: %w", nodeID, err)
	}

	return &Document{
		NodeID:   node.ID(),
		Metadata: node.Metadata(),
		Schema:   s,
		Options:  opts,
	}, nil
}

func (r *Resolver) attachment(ctx context.Context, node store.Node, name string, log logging.Logger) ([]byte, error) {
	key := cache.AttachmentKey{NodeID: node.ID(), Name: name}

	data, ok, err := r.attachments.Get(ctx, key)
	switch {
	case err != nil:
		r.metrics.Error(metrics.StageCache)
		log.WithError(err).Warn("attachment cache read failed", map[string]any{"attachment": key.String()})
	case ok:
		r.metrics.Attachment(metrics.ResultHit)
		log.Debug("attachment cache hit", map[string]any{"attachment": key.String()})
		return data, nil
	}

	r.metrics.Attachment(metrics.ResultMiss)
	data, err = node.Download(ctx, name)
	if err != nil {
		r.metrics.Error(metrics.StageDownload)
		return nil, fmt.Errorf("resolver: download %s: %w", key, err)
	}
	if err := r.attachments.Set(ctx, key, data); err != nil {
		r.metrics.Error(metrics.StageCache)
		log.WithError(err).Warn("attachment cache write failed", map[string]any{"attachment": key.String()})
	}
	return data, nil
}

// parseSchema accepts a schema document or {"byExample": <example>}.
func (r *Resolver) parseSchema(data []byte) (*schema.Schema, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil && len(probe) == 1 {
		if raw, ok := probe[ExampleKey]; ok {
			example, err := infer.DecodeExample(raw)
			if err != nil {
				return nil, err
			}
			return r.engine.SchemaByExample(example, "")
		}
	}
	return schema.ParseSchema(data)
}

func derive(doc *Document, mode Mode) Result {
	out := Result{NodeID: doc.NodeID, Mode: mode}
	if mode == Slave {
		out.Schema = project.SlaveSchema(doc.Schema)
		out.Options = project.SlaveOptions(doc.Options)
		return out
	}
	out.Schema = doc.Schema.Clone()
	out.Options = doc.Options.Clone()
	return out
}
