package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pilacorp/go-statuslist-sdk/credential/common/statuslist"
)

var (
	ErrNotFound = errors.New("status list not found")
	ErrExists   = errors.New("status list already exists")
	ErrClosed   = errors.New("registry is closed")
)

// Registry holds status lists by ID. Each list is paired with the credential
// that publishes it, and every mutation re-materializes the credential's
// encodedList before the list is unlocked, so a credential returned by the
// registry always matches the list state it was taken from.
//
// Writers to one list are serialized; different lists are independent.
type Registry struct {
	mu      sync.RWMutex
	lists   map[string]*managedList
	closed  bool
	opts    *options
	logger  *slog.Logger
	metrics *Metrics
}

type managedList struct {
	mu         sync.Mutex
	credential *statuslist.Credential
	list       *statuslist.StatusList
	// minimumEntries is the floor the list was created or imported with. The
	// published encodedList is always decoded against it.
	minimumEntries int
}

// listSnapshot is what readers of the published encodedList need, copied under
// the list lock.
type listSnapshot struct {
	subject        statuslist.CredentialSubject
	minimumEntries int
	entryCount     int
}

func (m *managedList) materialize() error {
	return statuslist.SyncEncodedList(m.credential, m.list)
}

// Summary describes the state of one list.
type Summary struct {
	ID                string                     `json:"id"`
	StatusPurpose     statuslist.StatusPurpose   `json:"statusPurpose"`
	EntryCount        int                        `json:"entryCount"`
	StatusSize        int                        `json:"statusSize"`
	EncodedListLength int                        `json:"encodedListLength"`
	FlaggedCount      int                        `json:"flaggedCount"`
	FlaggedSamples    []int                      `json:"flaggedSamples"`
	StatusMessages    []statuslist.StatusMessage `json:"statusMessages,omitempty"`
	Digest            string                     `json:"digest"`
}

// New creates an empty registry.
func New(opts ...Opt) *Registry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Registry{
		lists:   make(map[string]*managedList),
		opts:    o,
		logger:  o.logger,
		metrics: NewMetrics(o.registerer),
	}
}

// Metrics returns the registry metrics.
func (r *Registry) Metrics() *Metrics {
	return r.metrics
}

// Create builds a new list and its credential. A missing credential ID is
// generated and the list ID defaults to "<id>#list".
func (r *Registry) Create(ctx context.Context, opts statuslist.CreateOptions) (*statuslist.Credential, error) {
	if opts.ID == "" {
		opts.ID = r.opts.newID()
	}
	if opts.ListID == "" {
		opts.ListID = opts.ID + "#list"
	}
	if opts.MinimumEntries == 0 {
		opts.MinimumEntries = r.defaultMinimumEntries()
	}

	credential, list, err := statuslist.CreateStatusListCredential(opts)
	if err != nil {
		return nil, err
	}

	m := &managedList{credential: credential, list: list, minimumEntries: opts.MinimumEntries}
	if err := r.insert(credential.ID, m); err != nil {
		return nil, err
	}

	r.metrics.ListsCreated.WithLabelValues(string(opts.StatusPurpose)).Inc()
	r.logger.InfoContext(ctx, "status list created",
		"id", credential.ID,
		"purpose", opts.StatusPurpose,
		"entries", list.EntryCount(),
		"statusSize", list.StatusSize())
	return credential.Clone(), nil
}

func (r *Registry) defaultMinimumEntries() int {
	if r.opts.minimumEntries != 0 {
		return r.opts.minimumEntries
	}
	return statuslist.MinimumEntryCount
}

// Import adds an existing status list credential, for example one loaded from
// persistent storage. The credential must carry an ID. The encodedList does
// not record the minimum entry count or the entry count the list was created
// with; pass them with WithListMinimumEntries and WithListEntryCount when they
// differ from the registry defaults. Without WithListEntryCount every whole
// entry the bitstring holds is addressable.
func (r *Registry) Import(ctx context.Context, credential *statuslist.Credential, opts ...ImportOpt) error {
	if credential == nil || credential.ID == "" {
		return statuslist.NewError(statuslist.CodeMalformedValue, "credential id is required")
	}

	o := importOptions{minimumEntries: r.defaultMinimumEntries()}
	for _, opt := range opts {
		opt(&o)
	}

	listOpts := []statuslist.ListOpt{statuslist.WithMinimumEntries(o.minimumEntries)}
	if o.entryCount != 0 {
		listOpts = append(listOpts, statuslist.WithEntryCount(o.entryCount))
	}
	list, err := credential.List(listOpts...)
	if err != nil {
		return err
	}

	m := &managedList{credential: credential.Clone(), list: list, minimumEntries: o.minimumEntries}
	if err := r.insert(credential.ID, m); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "status list imported", "id", credential.ID, "entries", list.EntryCount())
	return nil
}

func (r *Registry) insert(id string, m *managedList) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, exists := r.lists[id]; exists {
		return fmt.Errorf("%w: %s", ErrExists, id)
	}
	r.lists[id] = m
	r.metrics.ListsActive.Set(float64(len(r.lists)))
	return nil
}

func (r *Registry) lookup(id string) (*managedList, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrClosed
	}
	m, ok := r.lists[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m, nil
}

// Get returns a copy of the credential publishing list id.
func (r *Registry) Get(id string) (*statuslist.Credential, error) {
	m, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credential.Clone(), nil
}

// Update applies a batch of entry updates to list id and re-materializes its
// credential. The batch is all or nothing: if any update is invalid the list
// is left unchanged.
func (r *Registry) Update(ctx context.Context, id string, updates []statuslist.StatusUpdate) (*statuslist.Credential, error) {
	m, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Updates go to a copy that replaces the list only once it is published.
	next := m.list.Clone()
	if err := statuslist.ApplyStatusUpdatesAtomic(next, updates); err != nil {
		code, _ := statuslist.CodeOf(err)
		r.metrics.UpdatesRejected.WithLabelValues(string(code)).Inc()
		r.logger.WarnContext(ctx, "status update rejected", "id", id, "updates", len(updates), "error", err)
		return nil, err
	}
	prev := m.list
	m.list = next
	if err := m.materialize(); err != nil {
		m.list = prev
		return nil, fmt.Errorf("failed to materialize status list %s: %w", id, err)
	}

	r.metrics.UpdatesApplied.Add(float64(len(updates)))
	r.metrics.MaterializeBytes.Observe(float64(len(m.credential.CredentialSubject.EncodedList)))
	r.logger.InfoContext(ctx, "status list updated", "id", id, "updates", len(updates))
	return m.credential.Clone(), nil
}

func (r *Registry) snapshot(id string) (listSnapshot, error) {
	m, err := r.lookup(id)
	if err != nil {
		return listSnapshot{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return listSnapshot{
		subject:        m.credential.Clone().CredentialSubject,
		minimumEntries: m.minimumEntries,
		entryCount:     m.list.EntryCount(),
	}, nil
}

// Evaluate reads one entry from the published encodedList of list id, with the
// same bounds as the live list. The index is an integer or a decimal numeral
// string.
func (r *Registry) Evaluate(ctx context.Context, id string, index interface{}) (*statuslist.StatusEvaluation, error) {
	snap, err := r.snapshot(id)
	if err != nil {
		return nil, err
	}

	subject := snap.subject
	evaluation, err := statuslist.EvaluateStatus(statuslist.EvaluateOptions{
		EncodedList:     subject.EncodedList,
		StatusListIndex: index,
		StatusPurpose:   subject.StatusPurpose,
		StatusSize:      subject.EffectiveStatusSize(),
		StatusMessages:  subject.StatusMessages,
		MinimumEntries:  snap.minimumEntries,
		EntryCount:      snap.entryCount,
	})
	if err != nil {
		return nil, err
	}

	r.observeEvaluation(evaluation)
	r.logger.DebugContext(ctx, "status evaluated", "id", id, "status", evaluation.Status)
	return evaluation, nil
}

// EvaluateMany evaluates several indices against one decoding of the
// published encodedList of list id. Results are in the order of indices.
func (r *Registry) EvaluateMany(ctx context.Context, id string, indices []int) ([]*statuslist.StatusEvaluation, error) {
	snap, err := r.snapshot(id)
	if err != nil {
		return nil, err
	}

	subject := snap.subject
	list, err := statuslist.FromEncoded(subject.EncodedList,
		statuslist.WithStatusSize(subject.EffectiveStatusSize()),
		statuslist.WithMinimumEntries(snap.minimumEntries),
		statuslist.WithEntryCount(snap.entryCount))
	if err != nil {
		return nil, err
	}

	const chunkSize = 1024
	results := make([]*statuslist.StatusEvaluation, len(indices))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for start := 0; start < len(indices); start += chunkSize {
		start, end := start, min(start+chunkSize, len(indices))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				evaluation, err := statuslist.Evaluate(list, indices[i], subject.StatusPurpose, subject.StatusMessages)
				if err != nil {
					return fmt.Errorf("index %d: %w", indices[i], err)
				}
				results[i] = evaluation
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, evaluation := range results {
		r.observeEvaluation(evaluation)
	}
	return results, nil
}

func (r *Registry) observeEvaluation(e *statuslist.StatusEvaluation) {
	r.metrics.Evaluations.WithLabelValues(string(e.Purpose), strconv.FormatBool(e.Valid)).Inc()
}

// Range returns up to count entries of list id starting at start.
func (r *Registry) Range(id string, start, count int) ([]int, error) {
	m, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.Entries(start, count)
}

// Summary describes list id.
func (r *Registry) Summary(id string) (*Summary, error) {
	m, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	flagged, samples := m.list.Flagged(r.opts.flaggedSamples)
	doc, err := m.credential.ToJSONMap()
	if err != nil {
		return nil, err
	}
	digest, err := doc.Digest()
	if err != nil {
		return nil, err
	}

	subject := m.credential.CredentialSubject
	return &Summary{
		ID:                m.credential.ID,
		StatusPurpose:     subject.StatusPurpose,
		EntryCount:        m.list.EntryCount(),
		StatusSize:        m.list.StatusSize(),
		EncodedListLength: len(subject.EncodedList),
		FlaggedCount:      flagged,
		FlaggedSamples:    samples,
		StatusMessages:    append([]statuslist.StatusMessage(nil), subject.StatusMessages...),
		Digest:            digest,
	}, nil
}

// Delete removes list id.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, ok := r.lists[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.lists, id)
	r.metrics.ListsActive.Set(float64(len(r.lists)))
	r.logger.InfoContext(ctx, "status list deleted", "id", id)
	return nil
}

// IDs returns the IDs of all lists in ascending order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.lists))
	for id := range r.lists {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reset removes every list. The registry stays usable.
func (r *Registry) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	n := len(r.lists)
	r.lists = make(map[string]*managedList)
	r.metrics.ListsActive.Set(0)
	r.logger.InfoContext(ctx, "registry reset", "removed", n)
	return nil
}

// Close releases every list. Later calls return ErrClosed.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.closed = true
	r.lists = nil
	r.metrics.ListsActive.Set(0)
	return nil
}
