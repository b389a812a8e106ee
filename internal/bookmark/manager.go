// Package bookmark manages the bookmark collection of a user.
package bookmark

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
	"github.com/MrSnakeDoc/bookmarkpack/internal/enrich"
	"github.com/MrSnakeDoc/bookmarkpack/internal/logger"
	"github.com/MrSnakeDoc/bookmarkpack/internal/metrics"
)

const (
	// DefaultConcurrency is the number of entries of a batch enriched at once.
	DefaultConcurrency = 8

	// DefaultSearchLimit and MaxSearchLimit bound the number of search hits.
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100

	// saveAttempts bounds the re-apply loop on concurrent writes.
	saveAttempts = 3
)

// Enricher extracts page metadata. Implemented by *enrich.Client.
type Enricher interface {
	Extract(ctx context.Context, rawURL string, f enrich.Flags) enrich.Result
}

type Options struct {
	Concurrency int
	GitHub      *GitHubClient // nil disables the GitHub import
}

// Manager runs bookmark operations against the owner's document.
type Manager struct {
	store       domain.UserStore
	enricher    Enricher
	github      *GitHubClient
	concurrency int
	log         logger.Logger
	now         func() time.Time
}

func NewManager(store domain.UserStore, enricher Enricher, log logger.Logger, opts Options) *Manager {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Manager{
		store:       store,
		enricher:    enricher,
		github:      opts.GitHub,
		concurrency: opts.Concurrency,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List returns the whole collection in stored order.
func (m *Manager) List(ctx context.Context, userID primitive.ObjectID) ([]domain.Bookmark, error) {
	u, err := m.store.FindByID(ctx, userID, domain.Projection{Bookmarks: true})
	if err != nil {
		return nil, err
	}
	if u.Bookmarks == nil {
		return []domain.Bookmark{}, nil
	}
	return u.Bookmarks, nil
}

// Search ranks the collection against query and returns at most limit hits.
// A limit out of range falls back to DefaultSearchLimit or MaxSearchLimit.
func (m *Manager) Search(ctx context.Context, userID primitive.ObjectID, query string, limit int) ([]domain.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.Invalid(domain.FieldError{Field: "q", Message: "The q field is required."})
	}
	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	list, err := m.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	hits := domain.RankBookmarks(query, list)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	metrics.Bookmarks.WithLabelValues("search").Inc()
	return hits, nil
}

// Add validates the whole batch, enriches it and appends it in one write.
// Any invalid entry rejects the batch.
func (m *Manager) Add(ctx context.Context, userID primitive.ObjectID, inputs []domain.BookmarkInput, f enrich.Flags) ([]domain.Bookmark, error) {
	if errs := validate(inputs, true, false); len(errs) > 0 {
		return nil, domain.Invalid(errs...)
	}
	if len(inputs) == 0 {
		return []domain.Bookmark{}, nil
	}

	merged := m.enrichBatch(ctx, inputs, f)

	now := m.now()
	created := make([]domain.Bookmark, len(merged))
	for i, in := range merged {
		created[i] = domain.NewBookmark(in, now)
	}

	pctx, cancel := persistContext(ctx)
	defer cancel()
	err := m.update(pctx, userID, func(u *domain.User) error {
		u.AppendBookmarks(created...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Bookmarks.WithLabelValues("add").Add(float64(len(created)))
	m.log.Debug("bookmarks added",
		logger.String("user_id", userID.Hex()),
		logger.Int("count", len(created)))
	return created, nil
}

// Edit patches existing bookmarks. Fields absent from an entry are left
// untouched; enrichment runs again for entries carrying a URL. Every id must
// resolve or nothing is written.
func (m *Manager) Edit(ctx context.Context, userID primitive.ObjectID, inputs []domain.BookmarkInput, f enrich.Flags) ([]domain.Bookmark, error) {
	if errs := validate(inputs, false, true); len(errs) > 0 {
		return nil, domain.Invalid(errs...)
	}
	if len(inputs) == 0 {
		return []domain.Bookmark{}, nil
	}

	// Fail on unknown ids before spending time on enrichment.
	u, err := m.store.FindByID(ctx, userID, domain.Projection{Bookmarks: true})
	if err != nil {
		return nil, err
	}
	if err := resolveAll(u, inputs); err != nil {
		return nil, err
	}

	merged := m.enrichBatch(ctx, inputs, f)

	pctx, cancel := persistContext(ctx)
	defer cancel()
	updated := make([]domain.Bookmark, len(merged))
	err = m.update(pctx, userID, func(u *domain.User) error {
		if err := resolveAll(u, merged); err != nil {
			return err
		}
		now := m.now()
		for i, in := range merged {
			id, _ := domain.ParseObjectID(*in.ID)
			b := u.Bookmark(id)
			b.Apply(in, now)
			updated[i] = *b
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Bookmarks.WithLabelValues("edit").Add(float64(len(updated)))
	return updated, nil
}

// enrichBatch runs the extraction stage within its share of the request deadline.
func (m *Manager) enrichBatch(ctx context.Context, inputs []domain.BookmarkInput, f enrich.Flags) []domain.BookmarkInput {
	ectx, cancel := enrichBudget(ctx)
	defer cancel()
	return mergeAll(inputs, enrichAll(ectx, m.enricher, inputs, f, m.concurrency))
}

// resolveAll reports every id of inputs missing from u's collection.
func resolveAll(u *domain.User, inputs []domain.BookmarkInput) error {
	var errs []domain.FieldError
	for i, in := range inputs {
		id, _ := domain.ParseObjectID(*in.ID)
		if u.Bookmark(id) == nil {
			errs = append(errs, domain.FieldError{
				Field:   "id",
				Value:   *in.ID,
				Message: domain.MsgBookmarkNotFound,
				Index:   domain.At(i),
			})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &domain.Error{
		Kind:    domain.KindNotFound,
		Message: domain.MsgBookmarkNotFound,
		Errors:  errs,
	}
}

// Delete removes every resolvable id in one write and reports the others.
// It returns the removed ids; when some entries failed the error lists them
// and carries the removed ids under the "deleted" detail.
func (m *Manager) Delete(ctx context.Context, userID primitive.ObjectID, ids []string) ([]string, error) {
	var (
		errs       []domain.FieldError
		candidates []int
		parsed     = make([]primitive.ObjectID, len(ids))
		notFound   int
	)
	for i, raw := range ids {
		id, ok := domain.ParseObjectID(raw)
		if !ok {
			errs = append(errs, domain.FieldError{Field: "id", Value: raw, Message: domain.MsgInvalidID, Index: domain.At(i)})
			continue
		}
		parsed[i] = id
		candidates = append(candidates, i)
	}

	deleted := []string{}
	if len(candidates) > 0 {
		var missing []domain.FieldError
		err := m.update(ctx, userID, func(u *domain.User) error {
			deleted, missing = deleted[:0], missing[:0]
			for _, i := range candidates {
				if u.RemoveBookmark(parsed[i]) {
					deleted = append(deleted, ids[i])
					continue
				}
				missing = append(missing, domain.FieldError{Field: "id", Value: ids[i], Message: domain.MsgBookmarkNotFound, Index: domain.At(i)})
			}
			if len(deleted) == 0 {
				return errNoChange
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		notFound = len(missing)
		errs = append(errs, missing...)
		metrics.Bookmarks.WithLabelValues("delete").Add(float64(len(deleted)))
	}

	if len(errs) == 0 {
		return deleted, nil
	}

	sortByIndex(errs)
	derr := domain.Invalid(errs...)
	// Not found only when nothing changed; a repeated id in one request
	// still reports what was removed with a 422.
	if notFound == len(errs) && len(deleted) == 0 {
		derr.Kind = domain.KindNotFound
		derr.Message = domain.MsgBookmarkNotFound
	}
	derr.Details = map[string]any{"deleted": deleted}
	return deleted, derr
}

// errNoChange tells update there is nothing to write.
var errNoChange = errors.New("no change")

// update loads the owner with its bookmarks, applies mutate and saves. When
// another request saved the document in between, mutate is applied again on
// the fresh copy.
func (m *Manager) update(ctx context.Context, userID primitive.ObjectID, mutate func(*domain.User) error) error {
	var err error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		var u *domain.User
		u, err = m.store.FindByID(ctx, userID, domain.Projection{Bookmarks: true})
		if err != nil {
			return err
		}

		if err = mutate(u); err != nil {
			if errors.Is(err, errNoChange) {
				return nil
			}
			return err
		}

		err = m.store.Save(ctx, u)
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
		m.log.Debug("concurrent write on user document, retrying",
			logger.String("user_id", userID.Hex()),
			logger.Int("attempt", attempt))
	}
	return fmt.Errorf("save bookmarks after %d attempts: %w", saveAttempts, err)
}

func sortByIndex(errs []domain.FieldError) {
	for i := 1; i < len(errs); i++ {
		for j := i; j > 0 && *errs[j].Index < *errs[j-1].Index; j-- {
			errs[j], errs[j-1] = errs[j-1], errs[j]
		}
	}
}
