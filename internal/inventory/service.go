package inventory

import (
	"context"
	"fmt"
	"log/slog"
)

// Reserver is the transactional surface the service needs. *Repository
// satisfies it; tests plug an in-memory implementation.
type Reserver interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// Service implements the reservation and delivery workflows.
type Service struct {
	repo Reserver
	log  *slog.Logger
}

func NewService(repo Reserver, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log}
}

// ReserveForOrder replaces an order's active reservations with a fresh run
// over the given requirements. Re-running is safe: prior reservations are
// dropped first, so the run is a pure function of current stock and demand.
// Batches are consumed earliest-expiry first; requirements that cannot be
// met are returned as shortages rather than an error.
func (s *Service) ReserveForOrder(ctx context.Context, orderID int64, reqs []ItemRequirement) (ReservationOutcome, error) {
	for _, req := range reqs {
		if req.OrderedQty <= 0 {
			return ReservationOutcome{}, fmt.Errorf("item %d: %w", req.SalesOrderItemID, ErrInvalidQuantity)
		}
	}
	var outcome ReservationOutcome
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		touched := map[int64]struct{}{}
		cleared, err := tx.DeleteActiveReservationsForOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("clear reservations: %w", err)
		}
		for _, id := range cleared {
			touched[id] = struct{}{}
		}
		// Recount before reading free stock so the just-cleared
		// quantities are available to this run.
		for id := range touched {
			if _, err := tx.RecountBatchReservations(ctx, id); err != nil {
				return fmt.Errorf("recount batch %d: %w", id, err)
			}
		}

		batchesByProduct := map[int64][]Batch{}
		for _, req := range reqs {
			need := req.OrderedQty - req.DeliveredQty
			if need <= 0 {
				continue
			}
			batches, ok := batchesByProduct[req.ProductID]
			if !ok {
				batches, err = tx.ListEligibleBatchesForUpdate(ctx, req.ProductID)
				if err != nil {
					return fmt.Errorf("list batches for product %d: %w", req.ProductID, err)
				}
				batchesByProduct[req.ProductID] = batches
			}
			for i := range batches {
				if need <= 0 {
					break
				}
				free := batches[i].FreeStock()
				if free <= 0 {
					continue
				}
				take := free
				if need < take {
					take = need
				}
				res := StockReservation{
					SalesOrderID:     orderID,
					SalesOrderItemID: req.SalesOrderItemID,
					ProductID:        req.ProductID,
					BatchID:          batches[i].ID,
					ReservedQuantity: take,
					Status:           ReservationActive,
				}
				id, err := tx.InsertReservation(ctx, res)
				if err != nil {
					return fmt.Errorf("insert reservation: %w", err)
				}
				res.ID = id
				outcome.Reservations = append(outcome.Reservations, res)
				batches[i].ReservedStock += take
				need -= take
				touched[batches[i].ID] = struct{}{}
			}
			if need > 0 {
				outcome.Shortages = append(outcome.Shortages, Shortage{
					SalesOrderItemID: req.SalesOrderItemID,
					ProductID:        req.ProductID,
					Quantity:         need,
				})
			}
		}
		for id := range touched {
			if _, err := tx.RecountBatchReservations(ctx, id); err != nil {
				return fmt.Errorf("recount batch %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return ReservationOutcome{}, err
	}
	if !outcome.FullyReserved() {
		s.log.Warn("reservation shortage", "sales_order_id", orderID, "shortages", len(outcome.Shortages))
	}
	return outcome, nil
}

// ReleaseForOrder drops an order's active reservations, typically on
// cancellation, and recounts the affected batches.
func (s *Service) ReleaseForOrder(ctx context.Context, orderID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		batchIDs, err := tx.DeleteActiveReservationsForOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("clear reservations: %w", err)
		}
		seen := map[int64]struct{}{}
		for _, id := range batchIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			if _, err := tx.RecountBatchReservations(ctx, id); err != nil {
				return fmt.Errorf("recount batch %d: %w", id, err)
			}
		}
		return nil
	})
}

// ApplyDelivery consumes reservations and deducts batch stock for approved
// delivery lines. Each line releases the order's oldest reservations on that
// batch first, shrinking the last one touched when it is only partly
// consumed, then deducts the delivered quantity from the batch exactly once.
// A deduction that would eat into stock reserved for other orders aborts the
// whole delivery with ErrInsufficientStock.
func (s *Service) ApplyDelivery(ctx context.Context, lines []DeliveryLine) error {
	for _, line := range lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("item %d: %w", line.SalesOrderItemID, ErrInvalidQuantity)
		}
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		touchedBatches := map[int64]struct{}{}
		touchedProducts := map[int64]struct{}{}
		for _, line := range lines {
			batch, err := tx.GetBatchForUpdate(ctx, line.BatchID)
			if err != nil {
				return err
			}
			reservations, err := tx.ListActiveReservations(ctx, line.SalesOrderID, line.ProductID, line.BatchID)
			if err != nil {
				return fmt.Errorf("list reservations: %w", err)
			}
			orderReserved := 0.0
			for _, res := range reservations {
				orderReserved += res.ReservedQuantity
			}
			// Stock reserved for other orders is off limits. A delivery may
			// exceed its own reservation only as long as the surplus comes
			// out of free stock.
			reservedForOthers := batch.ReservedStock - orderReserved
			if reservedForOthers < 0 {
				reservedForOthers = 0
			}
			if batch.CurrentStock-reservedForOthers < line.Quantity {
				return fmt.Errorf("batch %s: have %.2f free %.2f need %.2f: %w",
					batch.BatchNumber, batch.CurrentStock, batch.CurrentStock-reservedForOthers,
					line.Quantity, ErrInsufficientStock)
			}
			remaining := line.Quantity
			for _, res := range reservations {
				if remaining <= 0 {
					break
				}
				if res.ReservedQuantity > remaining {
					if err := tx.ShrinkReservation(ctx, res.ID, res.ReservedQuantity-remaining); err != nil {
						return fmt.Errorf("shrink reservation %d: %w", res.ID, err)
					}
					remaining = 0
				} else {
					if err := tx.ReleaseReservation(ctx, res.ID); err != nil {
						return fmt.Errorf("release reservation %d: %w", res.ID, err)
					}
					remaining -= res.ReservedQuantity
				}
			}
			// Unreserved remainder is allowed: the free-stock guard above
			// already proved it does not touch other orders' reservations.
			if _, err := tx.AdjustBatchStock(ctx, line.BatchID, -line.Quantity); err != nil {
				return err
			}
			touchedBatches[line.BatchID] = struct{}{}
			touchedProducts[line.ProductID] = struct{}{}
		}
		for id := range touchedBatches {
			if _, err := tx.RecountBatchReservations(ctx, id); err != nil {
				return fmt.Errorf("recount batch %d: %w", id, err)
			}
		}
		for id := range touchedProducts {
			if _, err := tx.RecomputeProductStock(ctx, id); err != nil {
				return fmt.Errorf("recompute product %d: %w", id, err)
			}
		}
		return nil
	})
}

// RecountBatch re-derives one batch's reserved counter. Used by the
// consistency job and by corrections.
func (s *Service) RecountBatch(ctx context.Context, batchID int64) (float64, error) {
	var reserved float64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		reserved, err = tx.RecountBatchReservations(ctx, batchID)
		return err
	})
	return reserved, err
}

// RecountProduct re-derives a product's stock from its active batches.
func (s *Service) RecountProduct(ctx context.Context, productID int64) (float64, error) {
	var total float64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		total, err = tx.RecomputeProductStock(ctx, productID)
		return err
	})
	return total, err
}
