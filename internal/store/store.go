package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/AngelCh415/agency-ops/internal/models"
)

// Kind names a collection of documents.
type Kind string

const (
	KindClients     Kind = "clients"
	KindEngagements Kind = "engagements"
	KindAssignments Kind = "assignments"
	KindColleagues  Kind = "colleagues"
	KindTransitions Kind = "transitions"
	KindLeadEntries Kind = "lead_entries"
)

// Document is one JSON-encoded record of a Kind, identified by ID.
type Document struct {
	ID   string
	Data []byte
}

// WriteMode controls how PutDocuments treats an existing ID.
type WriteMode int

const (
	// Upsert replaces the stored document.
	Upsert WriteMode = iota
	// AppendOnly keeps the stored document and skips the new one.
	AppendOnly
)

// Backend is the persistence medium behind a Repository.
type Backend interface {
	// PutDocuments writes docs and returns how many were inserted or replaced.
	PutDocuments(ctx context.Context, kind Kind, docs []Document, mode WriteMode) (int, error)
	// Documents returns every document of kind in first-insertion order.
	Documents(ctx context.Context, kind Kind) ([][]byte, error)

	// GetList returns the blob stored under key, or nil when absent.
	GetList(ctx context.Context, key string) ([]byte, error)
	PutList(ctx context.Context, key string, data []byte) error

	Migrate(ctx context.Context) error
	Close() error
}

const plannedKey = "planned_engagements"

// Repository gives typed access to the collections the reports read.
type Repository struct {
	b       Backend
	planned *KeyedList[models.PlannedEngagement]
}

func NewRepository(b Backend) *Repository {
	return &Repository{b: b, planned: NewKeyedList[models.PlannedEngagement](b, plannedKey)}
}

func (r *Repository) Backend() Backend { return r.b }

func (r *Repository) Migrate(ctx context.Context) error { return r.b.Migrate(ctx) }
func (r *Repository) Close() error                      { return r.b.Close() }

func (r *Repository) SaveClients(ctx context.Context, items []models.Client) (int, error) {
	return put(ctx, r.b, KindClients, items, func(c models.Client) string { return c.ID }, Upsert)
}

func (r *Repository) SaveEngagements(ctx context.Context, items []models.Engagement) (int, error) {
	return put(ctx, r.b, KindEngagements, items, func(e models.Engagement) string { return e.ID }, Upsert)
}

func (r *Repository) SaveAssignments(ctx context.Context, items []models.Assignment) (int, error) {
	return put(ctx, r.b, KindAssignments, items, func(a models.Assignment) string { return a.ID }, Upsert)
}

func (r *Repository) SaveColleagues(ctx context.Context, items []models.Colleague) (int, error) {
	return put(ctx, r.b, KindColleagues, items, func(c models.Colleague) string { return c.ID }, Upsert)
}

func (r *Repository) SaveLeadEntries(ctx context.Context, items []models.NewLeadEntry) (int, error) {
	return put(ctx, r.b, KindLeadEntries, items, func(e models.NewLeadEntry) string { return e.LeadID }, Upsert)
}

// AppendTransitions adds transitions to the log. Entries already logged are
// skipped, never rewritten; the return value counts new entries.
func (r *Repository) AppendTransitions(ctx context.Context, items []models.StageTransition) (int, error) {
	return put(ctx, r.b, KindTransitions, items, TransitionKey, AppendOnly)
}

func (r *Repository) SavePlanned(ctx context.Context, items []models.PlannedEngagement) error {
	return r.planned.Save(ctx, items)
}

func (r *Repository) Planned(ctx context.Context) ([]models.PlannedEngagement, error) {
	return r.planned.Get(ctx)
}

// Snapshot reads every collection. Documents that no longer decode are skipped.
func (r *Repository) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	var (
		snap models.Snapshot
		err  error
	)
	if snap.Clients, err = load[models.Client](ctx, r.b, KindClients); err != nil {
		return nil, err
	}
	if snap.Engagements, err = load[models.Engagement](ctx, r.b, KindEngagements); err != nil {
		return nil, err
	}
	if snap.Assignments, err = load[models.Assignment](ctx, r.b, KindAssignments); err != nil {
		return nil, err
	}
	if snap.Colleagues, err = load[models.Colleague](ctx, r.b, KindColleagues); err != nil {
		return nil, err
	}
	if snap.Transitions, err = load[models.StageTransition](ctx, r.b, KindTransitions); err != nil {
		return nil, err
	}
	if snap.LeadEntries, err = load[models.NewLeadEntry](ctx, r.b, KindLeadEntries); err != nil {
		return nil, err
	}
	if snap.Planned, err = r.planned.Get(ctx); err != nil {
		return nil, err
	}
	return &snap, nil
}

// TransitionKey identifies a transition log entry. Undated entries are keyed
// by their SourceRef instead of the zero timestamp.
func TransitionKey(t models.StageTransition) string {
	base := t.LeadID + "|" + string(t.FromStage) + "|" + string(t.ToStage) + "|"
	if t.ConfirmedAt.IsZero() {
		return base + "ref:" + t.SourceRef
	}
	return base + t.ConfirmedAt.UTC().Format(time.RFC3339Nano)
}

func put[T any](ctx context.Context, b Backend, kind Kind, items []T, id func(T) string, mode WriteMode) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	docs := make([]Document, 0, len(items))
	for _, it := range items {
		key := id(it)
		if key == "" {
			continue
		}
		data, err := json.Marshal(it)
		if err != nil {
			return 0, eris.Wrapf(err, "store: marshal %s %s", kind, key)
		}
		docs = append(docs, Document{ID: key, Data: data})
	}
	n, err := b.PutDocuments(ctx, kind, docs, mode)
	if err != nil {
		return 0, eris.Wrapf(err, "store: save %s", kind)
	}
	return n, nil
}

func load[T any](ctx context.Context, b Backend, kind Kind) ([]T, error) {
	raw, err := b.Documents(ctx, kind)
	if err != nil {
		return nil, eris.Wrapf(err, "store: load %s", kind)
	}
	out := make([]T, 0, len(raw))
	for _, data := range raw {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
