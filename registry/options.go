package registry

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Opt configures a Registry.
type Opt func(*options)

type options struct {
	logger         *slog.Logger
	registerer     prometheus.Registerer
	minimumEntries int
	flaggedSamples int
	newID          func() string
}

func defaultOptions() *options {
	return &options{
		logger:         slog.Default(),
		registerer:     prometheus.NewRegistry(),
		flaggedSamples: 20,
		newID: func() string {
			return "urn:uuid:" + uuid.NewString()
		},
	}
}

func WithLogger(l *slog.Logger) Opt {
	return func(o *options) {
		o.logger = l
	}
}

// WithRegisterer registers the registry metrics with reg instead of a
// private registry.
func WithRegisterer(reg prometheus.Registerer) Opt {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithMinimumEntries sets the minimum entry count for lists created without one.
func WithMinimumEntries(n int) Opt {
	return func(o *options) {
		o.minimumEntries = n
	}
}

// WithFlaggedSamples sets how many flagged indices Summary reports.
func WithFlaggedSamples(n int) Opt {
	return func(o *options) {
		o.flaggedSamples = n
	}
}

// WithIDGenerator replaces the urn:uuid generator used for lists created
// without an ID.
func WithIDGenerator(f func() string) Opt {
	return func(o *options) {
		o.newID = f
	}
}

// ImportOpt describes how Import decodes a credential.
type ImportOpt func(*importOptions)

type importOptions struct {
	minimumEntries int
	entryCount     int
}

// WithListMinimumEntries sets the minimum entry count the imported list was
// created with.
func WithListMinimumEntries(n int) ImportOpt {
	return func(o *importOptions) {
		o.minimumEntries = n
	}
}

// WithListEntryCount limits the imported list to its first n entries.
func WithListEntryCount(n int) ImportOpt {
	return func(o *importOptions) {
		o.entryCount = n
	}
}
