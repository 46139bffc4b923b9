package session

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/papercomputeco/spool/pkg/eventstream"
	"github.com/papercomputeco/spool/pkg/eventstream/nop"
	"github.com/papercomputeco/spool/pkg/logger"
	"github.com/papercomputeco/spool/pkg/storage"
	"github.com/papercomputeco/spool/pkg/storage/inmemory"
)

type options struct {
	id           string
	rootID       string
	source       string
	model        string
	systemPrompt string

	log *slog.Logger
	drv storage.Driver
	pub eventstream.Publisher
}

func defaultOptions() *options {
	return &options{
		id:  uuid.NewString(),
		log: logger.Nop(),
		drv: inmemory.NewDriver(),
		pub: nop.NewPublisher(),
	}
}

// Option configures a Session at construction time.
type Option func(*options)

// WithID sets the session identifier. Load uses this internally; callers
// normally let New generate one.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithRoot selects which graph id Load treats as the root conversation when
// a shared log holds several. Without it the first graph id encountered in
// the log wins. New ignores it.
func WithRoot(id string) Option {
	return func(o *options) {
		o.rootID = id
	}
}

// WithSource records which client or harness opened the session.
func WithSource(source string) Option {
	return func(o *options) {
		o.source = source
	}
}

// WithModel records the model the session converses with.
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithSystemPrompt records the system prompt in session metadata.
func WithSystemPrompt(prompt string) Option {
	return func(o *options) {
		o.systemPrompt = prompt
	}
}

// WithDriver sets the record log backend. Defaults to in-memory.
func WithDriver(drv storage.Driver) Option {
	return func(o *options) {
		o.drv = drv
	}
}

// WithPublisher sets the event stream publisher. Defaults to a no-op.
func WithPublisher(pub eventstream.Publisher) Option {
	return func(o *options) {
		o.pub = pub
	}
}

// WithLogger sets the structured logger. Defaults to a discard logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}
