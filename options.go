package annex

import (
	"log/slog"

	"github.com/annexsearch/annex/codec"
	"github.com/annexsearch/annex/internal/lsh"
)

// Options contains configuration options for a Store.
type Options struct {
	// Tables is the number of independent LSH hash tables (L).
	// More tables raise recall at the cost of larger candidate sets.
	Tables int

	// Bits is the bucket key width per table (B).
	// Fewer bits raise recall at the cost of larger candidate sets.
	Bits int

	// InitialCapacity is the initial slot capacity of the vector buffer.
	// The buffer doubles when exhausted and never shrinks.
	InitialCapacity int

	// Codec encodes snapshot payloads. Defaults to codec.Default.
	Codec codec.Codec

	// Compression selects the snapshot stream compression.
	Compression Compression

	// Logger receives structured operation logs. Noop by default.
	Logger *Logger

	// Metrics receives operation metrics. Noop by default.
	Metrics MetricsCollector
}

// DefaultOptions contains the default configuration options for a Store.
var DefaultOptions = Options{
	Tables:      lsh.DefaultTables,
	Bits:        lsh.DefaultBits,
	Compression: CompressionNone,
}

// Option configures Store construction.
type Option func(o *Options)

// WithTables sets the number of LSH hash tables (L).
func WithTables(tables int) Option {
	return func(o *Options) {
		o.Tables = tables
	}
}

// WithBits sets the bucket key width per table (B).
func WithBits(bits int) Option {
	return func(o *Options) {
		o.Bits = bits
	}
}

// WithInitialCapacity sets the initial slot capacity of the vector buffer.
func WithInitialCapacity(capacity int) Option {
	return func(o *Options) {
		o.InitialCapacity = capacity
	}
}

// WithCodec configures the codec used for snapshot payloads.
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *Options) {
		if c == nil {
			c = codec.Default
		}
		o.Codec = c
	}
}

// WithCompression configures snapshot stream compression.
// Snapshots record the compression name in their header, so loading does not
// depend on this setting.
func WithCompression(c Compression) Option {
	return func(o *Options) {
		o.Compression = c
	}
}

// WithLogger configures structured logging for operations.
func WithLogger(logger *Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *Options) {
		o.Logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *Options) {
		o.Metrics = mc
	}
}

func applyOptions(optFns []Option) Options {
	o := DefaultOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.Codec == nil {
		o.Codec = codec.Default
	}
	if o.Logger == nil {
		o.Logger = NoopLogger()
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetricsCollector{}
	}
	return o
}
