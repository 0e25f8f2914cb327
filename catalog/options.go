package catalog

import "github.com/coltree/mergetree/mtresource"

// options holds NewStore's optional configuration.
type options struct {
	resources *mtresource.Controller
}

// Option configures a Store returned by NewStore.
type Option func(*options)

// WithResourceController gates a Store's manifest loads and saves
// behind rc: concurrent refreshes are capped at rc's
// MaxBackgroundWorkers and read/write throughput at its
// IOLimitBytesPerSec. Stores for different tables that share one
// Controller have their catalog refreshes gated together, independent
// of each Store's own internal serialization.
func WithResourceController(rc *mtresource.Controller) Option {
	return func(o *options) { o.resources = rc }
}
