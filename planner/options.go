package planner

import (
	"math/rand"
	"time"

	"github.com/coltree/mergetree/mtlog"
	"github.com/coltree/mergetree/mtresource"
)

// options holds the Planner's optional collaborators, mirroring the
// teacher's functional-options configuration surface.
type options struct {
	logger    *mtlog.Logger
	resources *mtresource.Controller
	now       func() time.Time
	rng       *rand.Rand
}

// Option configures a Planner.
type Option func(*options)

// WithLogger sets the logger the Planner emits its stable debug lines
// through. Defaults to a no-op logger.
func WithLogger(l *mtlog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithResourceController sets the Controller consulted for the
// uncompressed-cache decision. Defaults to nil, which ShouldUseCache
// treats as "always allow".
func WithResourceController(c *mtresource.Controller) Option {
	return func(o *options) { o.resources = c }
}

// WithClock overrides the Planner's time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRand overrides the Planner's source of randomness for C4's part
// shuffle, so tests can assert on a reproducible worker assignment.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

func defaultOptions() *options {
	return &options{
		logger: mtlog.Noop(),
		now:    time.Now,
	}
}
