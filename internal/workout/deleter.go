package workout

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Deleter removes a logical workout given the id of either of its records.
type Deleter struct {
	structured StructuredStore
	legacy     LegacyStore
	log        *slog.Logger
}

func NewDeleter(structured StructuredStore, legacy LegacyStore, log *slog.Logger) *Deleter {
	if log == nil {
		log = slog.Default()
	}
	return &Deleter{structured: structured, legacy: legacy, log: log}
}

// Delete tries id against both stores at once, then removes the mirror of
// whatever matched. It returns ErrNotFound when neither store had id.
func (d *Deleter) Delete(ctx context.Context, ownerID, id string) error {
	var (
		structuredXref, legacyXref string
		structuredHit, legacyHit   bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		xref, err := d.structured.DeleteByID(gctx, ownerID, id)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		structuredXref, structuredHit = xref, err == nil
		return err
	})
	g.Go(func() error {
		xref, err := d.legacy.DeleteByID(gctx, ownerID, id)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		legacyXref, legacyHit = xref, err == nil
		return err
	})
	if err := g.Wait(); err != nil {
		if structuredHit || legacyHit {
			d.partial(ownerID, id, structuredHit, structuredXref+legacyXref, err)
		}
		return err
	}

	if !structuredHit && !legacyHit {
		return ErrNotFound
	}

	if structuredHit && structuredXref != "" {
		if _, err := d.legacy.DeleteByXref(ctx, ownerID, structuredXref); err != nil {
			d.partial(ownerID, id, true, structuredXref, err)
			return err
		}
	}
	if legacyHit && legacyXref != "" {
		if _, err := d.structured.DeleteByXref(ctx, ownerID, legacyXref); err != nil {
			d.partial(ownerID, id, false, legacyXref, err)
			return err
		}
	}
	return nil
}

// partial reports a workout with one record deleted and its mirror still stored.
func (d *Deleter) partial(ownerID, id string, structuredDeleted bool, xref string, err error) {
	deleted := "legacy"
	if structuredDeleted {
		deleted = "structured"
	}
	d.log.Error("partial workout delete left mirror behind",
		"operator_attention", true,
		"owner_id", ownerID,
		"id", id,
		"deleted", deleted,
		"xref_id", xref,
		"error", err,
	)
}
