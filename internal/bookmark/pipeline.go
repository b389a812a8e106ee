package bookmark

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/bookmarkpack/internal/domain"
	"github.com/MrSnakeDoc/bookmarkpack/internal/enrich"
)

// A batch goes through validate, enrich, merge and persist. Each stage is a
// plain function over the whole batch so the order of entries never changes.

// validate checks every entry and returns all failures, not just the first.
func validate(inputs []domain.BookmarkInput, requireURL, requireID bool) []domain.FieldError {
	var errs []domain.FieldError
	for i, in := range inputs {
		errs = append(errs, domain.ValidateBookmark(in, i, requireURL, requireID)...)
	}
	return errs
}

// wanted narrows the requested flags to the fields the client left empty.
// Entries without a URL are not enriched.
func wanted(in domain.BookmarkInput, f enrich.Flags) enrich.Flags {
	if in.URL == nil {
		return enrich.Flags{}
	}
	return enrich.Flags{
		Title:   f.Title && isBlank(in.Name),
		Favicon: f.Favicon && isBlank(in.Favicon),
	}
}

const (
	// persistReserve is kept out of the enrichment budget for the final write.
	persistReserve = 2 * time.Second

	// persistTimeout bounds the final write, which outlives the request context.
	persistTimeout = 10 * time.Second
)

// enrichBudget ends enrichment persistReserve before the request deadline.
func enrichBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := ctx.Deadline(); ok {
		return context.WithDeadline(ctx, dl.Add(-persistReserve))
	}
	return context.WithCancel(ctx)
}

// persistContext detaches the write from the request deadline: entries whose
// enrichment ran out of time are still saved.
func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

// enrichAll extracts metadata for every entry, at most limit entries at a
// time. results[i] belongs to inputs[i].
func enrichAll(ctx context.Context, e Enricher, inputs []domain.BookmarkInput, f enrich.Flags, limit int) []enrich.Result {
	results := make([]enrich.Result, len(inputs))
	if !f.Any() {
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, in := range inputs {
		i, in := i, in
		flags := wanted(in, f)
		if !flags.Any() {
			continue
		}
		g.Go(func() error {
			results[i] = e.Extract(gctx, *in.URL, flags)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// merge fills the gaps of in with extracted values. Client values win.
func merge(in domain.BookmarkInput, res enrich.Result) domain.BookmarkInput {
	if res.Title != "" && isBlank(in.Name) {
		title := res.Title
		in.Name = &title
	}
	if res.Favicon != "" && isBlank(in.Favicon) {
		favicon := res.Favicon
		in.Favicon = &favicon
	}
	return in
}

func mergeAll(inputs []domain.BookmarkInput, results []enrich.Result) []domain.BookmarkInput {
	merged := make([]domain.BookmarkInput, len(inputs))
	for i := range inputs {
		merged[i] = merge(inputs[i], results[i])
	}
	return merged
}

func isBlank(s *string) bool { return s == nil || *s == "" }
