package session

import (
	"context"
	"fmt"

	"github.com/papercomputeco/spool/pkg/config"
	"github.com/papercomputeco/spool/pkg/eventstream"
	"github.com/papercomputeco/spool/pkg/eventstream/kafka"
	"github.com/papercomputeco/spool/pkg/eventstream/nop"
	"github.com/papercomputeco/spool/pkg/graph"
	"github.com/papercomputeco/spool/pkg/logger"
	"github.com/papercomputeco/spool/pkg/storage"
	"github.com/papercomputeco/spool/pkg/storage/inmemory"
	"github.com/papercomputeco/spool/pkg/storage/postgres"
	"github.com/papercomputeco/spool/pkg/storage/sqlite"
)

// Open wires a fresh session from configuration: the record log backend,
// the event stream publisher, and the logger. Explicit options are applied
// on top and win.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Session, error) {
	drv, err := openDriver(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New(
		logger.WithDebug(cfg.Logging.Debug),
		logger.WithPretty(cfg.Logging.Pretty),
		logger.WithJSON(cfg.Logging.JSON),
	)

	var pub eventstream.Publisher = nop.NewPublisher()
	if cfg.EventStream.Enabled {
		pub = kafka.NewPublisher(cfg.EventStream.Brokers, cfg.EventStream.Topic)
	}

	base := []Option{
		WithDriver(drv),
		WithPublisher(pub),
		WithLogger(log),
	}
	return New(append(base, opts...)...), nil
}

func openDriver(ctx context.Context, cfg *config.Config) (storage.Driver, error) {
	switch cfg.Storage.Backend {
	case "", config.BackendMemory:
		return inmemory.NewDriver(), nil
	case config.BackendSQLite:
		return sqlite.NewDriver(cfg.Storage.SQLitePath)
	case config.BackendPostgres:
		return postgres.NewDriver(ctx, cfg.Storage.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Load rebuilds a session from an existing record log. Replay is strict:
// any record that references an unknown node, re-derives to a different
// content address, or otherwise fails validation aborts the load with a
// storage.CorruptError rather than yielding a partially trusted graph.
//
// The root conversation is the graph named by WithRoot when given, and the
// first scope id encountered in the log otherwise; every other scope id is
// registered as a subgraph under its handle.
func Load(ctx context.Context, drv storage.Driver, opts ...Option) (*Session, error) {
	chosen := defaultOptions()
	for _, opt := range opts {
		opt(chosen)
	}

	var (
		rootID = chosen.rootID
		graphs = make(map[string]*graph.Graph)
	)

	err := drv.Replay(ctx, func(rec *storage.Record) error {
		g, ok := graphs[rec.GraphID]
		if !ok {
			// Graphs rebuilt during replay must not re-append; they
			// share the live log only once loading completes.
			g = graph.New(rec.GraphID, nil)
			graphs[rec.GraphID] = g
			if rootID == "" {
				rootID = rec.GraphID
			}
		}
		return g.Apply(rec)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replay record log: %w", err)
	}

	if chosen.rootID != "" {
		if _, ok := graphs[chosen.rootID]; !ok {
			return nil, fmt.Errorf("root graph %q not found in record log", chosen.rootID)
		}
	}

	base := []Option{WithDriver(drv)}
	if rootID != "" {
		base = append(base, WithID(rootID))
	}
	s := New(append(base, opts...)...)

	if root, ok := graphs[rootID]; ok {
		root.AttachLog(drv)
		s.root = root
	}
	for handle, g := range graphs {
		if handle == rootID {
			continue
		}
		g.AttachLog(drv)
		s.subgraphs[handle] = g
	}

	s.log.Debug("session loaded", "session_id", s.id, "subgraphs", len(s.subgraphs))
	return s, nil
}
