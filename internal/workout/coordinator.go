package workout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const compensationTimeout = 10 * time.Second

// Coordinator writes one logical workout as a structured record plus its
// legacy mirror. The structured record is written first with a pending sync
// status and flipped to synced once the mirror exists; any failure after the
// first write deletes what was written.
type Coordinator struct {
	structured StructuredStore
	legacy     LegacyStore
	log        *slog.Logger
}

func NewCoordinator(structured StructuredStore, legacy LegacyStore, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{structured: structured, legacy: legacy, log: log.With("component", "dual-write")}
}

// Create persists both records for d. On failure the error is a
// *DualWriteError.
func (c *Coordinator) Create(ctx context.Context, ownerID string, d Draft) (Pair, Workout, LegacyWorkout, error) {
	xref := uuid.NewString()

	sw, err := c.structured.Insert(ctx, d.structured(ownerID, xref))
	if err != nil {
		return Pair{}, Workout{}, LegacyWorkout{}, &DualWriteError{Kind: NoWrite, XrefID: xref, Cause: err}
	}

	lw, err := c.legacy.Insert(ctx, d.legacy(ownerID, xref))
	if err != nil {
		return Pair{}, Workout{}, LegacyWorkout{}, c.compensate(ctx, ownerID, sw.ID, "", xref, err, false)
	}

	if err := c.structured.MarkSynced(ctx, sw.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrConcurrentDelete
		}
		return Pair{}, Workout{}, LegacyWorkout{}, c.compensate(ctx, ownerID, sw.ID, lw.ID, xref, err, true)
	}
	sw.SyncStatus = SyncSynced

	return Pair{StructuredID: sw.ID, LegacyID: lw.ID, XrefID: xref}, sw, lw, nil
}

// Rollback removes both records of an already created pair.
func (c *Coordinator) Rollback(ctx context.Context, ownerID string, p Pair) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	_, lerr := c.legacy.DeleteByXref(cctx, ownerID, p.XrefID)
	_, serr := c.structured.DeleteByXref(cctx, ownerID, p.XrefID)
	return errors.Join(lerr, serr)
}

func (c *Coordinator) compensate(ctx context.Context, ownerID, structuredID, legacyID, xref string, cause error, legacyWritten bool) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	var errs []error
	if legacyWritten {
		if _, err := c.legacy.DeleteByXref(cctx, ownerID, xref); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := c.structured.DeleteByXref(cctx, ownerID, xref); err != nil {
		errs = append(errs, err)
	}

	dwErr := &DualWriteError{
		Kind:         Compensated,
		StructuredID: structuredID,
		LegacyID:     legacyID,
		XrefID:       xref,
		Cause:        cause,
	}
	if len(errs) > 0 {
		dwErr.Kind = Uncompensated
		dwErr.CompensationErr = errors.Join(errs...)
		c.log.Error("partial workout write left behind",
			"operator_attention", true,
			"owner_id", ownerID,
			"xref_id", xref,
			"structured_id", structuredID,
			"legacy_id", legacyID,
			"cause", cause,
			"error", dwErr.CompensationErr,
		)
		return dwErr
	}

	c.log.Warn("partial workout write compensated",
		"owner_id", ownerID,
		"xref_id", xref,
		"cause", cause,
	)
	return dwErr
}
