package importcost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Service recomputes landed costs whenever container costs or batch
// composition change.
type Service struct {
	store Store
	basis AllocationBasis
	log   *slog.Logger
}

func NewService(store Store, basis AllocationBasis, log *slog.Logger) *Service {
	if !basis.Valid() {
		basis = BasisValue
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, basis: basis, log: log}
}

// UpdateCosts persists new cost figures for a container and reallocates.
func (s *Service) UpdateCosts(ctx context.Context, c Container) error {
	if err := s.store.UpdateContainerCosts(ctx, c); err != nil {
		return err
	}
	return s.Reallocate(ctx, c.ID)
}

// Reallocate recomputes every batch's landed cost for one container. A
// container without batches is left untouched.
func (s *Service) Reallocate(ctx context.Context, containerID int64) error {
	c, err := s.store.GetContainer(ctx, containerID)
	if err != nil {
		return err
	}
	batches, err := s.store.ListBatchShares(ctx, containerID)
	if err != nil {
		return fmt.Errorf("list batches: %w", err)
	}
	allocs, err := Allocate(c, batches, s.basis)
	if err != nil {
		if errors.Is(err, ErrNoBatches) {
			return nil
		}
		return fmt.Errorf("allocate container %s: %w", c.ContainerNumber, err)
	}
	if err := s.store.ApplyAllocations(ctx, containerID, allocs); err != nil {
		return fmt.Errorf("apply allocations: %w", err)
	}
	s.log.Info("landed cost reallocated",
		"container_id", containerID,
		"container_number", c.ContainerNumber,
		"batches", len(allocs),
		"basis", string(s.basis))
	return nil
}

// RelinkBatch moves a batch to another container, or detaches it when
// containerID is nil, then reallocates every container the move touched.
// The old container loses a share and the new one gains a share, so both
// splits are stale until recomputed.
func (s *Service) RelinkBatch(ctx context.Context, batchID int64, containerID *int64) error {
	if containerID != nil {
		if _, err := s.store.GetContainer(ctx, *containerID); err != nil {
			return err
		}
	}
	old, err := s.store.GetBatchContainer(ctx, batchID)
	if err != nil {
		return err
	}
	if err := s.store.SetBatchContainer(ctx, batchID, containerID); err != nil {
		return err
	}
	if old != nil && (containerID == nil || *old != *containerID) {
		if err := s.Reallocate(ctx, *old); err != nil {
			return fmt.Errorf("previous container %d: %w", *old, err)
		}
	}
	if containerID != nil {
		if err := s.Reallocate(ctx, *containerID); err != nil {
			return fmt.Errorf("container %d: %w", *containerID, err)
		}
	}
	s.log.Info("batch relinked",
		"batch_id", batchID,
		"container_id", containerID)
	return nil
}

// ReallocateAll recomputes every container, a few at a time. Used by the
// maintenance job after bulk backfills.
func (s *Service) ReallocateAll(ctx context.Context) error {
	ids, err := s.store.ListContainerIDs(ctx)
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := s.Reallocate(ctx, id); err != nil {
				return fmt.Errorf("container %d: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}
