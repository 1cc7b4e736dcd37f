// Package inventory tracks finished-goods batches and their reservations.
//
// The reservation table is the single source of truth: Batch.ReservedStock is
// derived by recounting active reservations and Product stock is derived by
// summing active batches. No code path increments or decrements either
// counter directly; scattered writers are how the historical drift and
// double-deduction defects happened.
package inventory

import (
	"errors"
	"time"
)

// ReservationStatus enumerates reservation lifecycle values.
type ReservationStatus string

const (
	ReservationActive   ReservationStatus = "active"
	ReservationReleased ReservationStatus = "released"
)

// Batch is a receipt lot of a product. Import* fields carry the landed-cost
// allocation results written by the import cost allocator.
type Batch struct {
	ID                  int64
	ProductID           int64
	BatchNumber         string
	ImportContainerID   *int64
	ImportPrice         float64
	ImportQuantity      float64
	CurrentStock        float64
	ReservedStock       float64
	ImportCostAllocated float64
	FinalLandedCost     float64
	LandedCostPerUnit   float64
	ExpiryDate          *time.Time
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// FreeStock is the quantity still available to reserve.
func (b Batch) FreeStock() float64 {
	return b.CurrentStock - b.ReservedStock
}

// Expired reports whether the batch is past expiry at the given time.
func (b Batch) Expired(asOf time.Time) bool {
	return b.ExpiryDate != nil && !b.ExpiryDate.After(asOf)
}

// StockReservation links one sales-order item to one batch.
type StockReservation struct {
	ID               int64
	SalesOrderID     int64
	SalesOrderItemID int64
	ProductID        int64
	BatchID          int64
	ReservedQuantity float64
	Status           ReservationStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ItemRequirement is one sales-order line presented for reservation.
// DeliveredQty covers challans approved before the order was formally
// reserved; only the undelivered remainder is reserved.
type ItemRequirement struct {
	SalesOrderItemID int64
	ProductID        int64
	OrderedQty       float64
	DeliveredQty     float64
}

// Shortage records unsatisfied demand after a reservation run.
type Shortage struct {
	SalesOrderItemID int64
	ProductID        int64
	Quantity         float64
}

// ReservationOutcome summarises a reservation run for one order.
type ReservationOutcome struct {
	Reservations []StockReservation
	Shortages    []Shortage
}

// FullyReserved reports whether every requirement was satisfied.
func (o ReservationOutcome) FullyReserved() bool {
	return len(o.Shortages) == 0
}

// DeliveryLine is one approved delivery-challan line to apply against stock.
type DeliveryLine struct {
	SalesOrderID     int64
	SalesOrderItemID int64
	ProductID        int64
	BatchID          int64
	Quantity         float64
}

var (
	// ErrInsufficientStock is raised when a delivery would drive a batch
	// negative. Proceeding would oversell inventory, so it propagates.
	ErrInsufficientStock = errors.New("inventory: insufficient batch stock")
	// ErrBatchNotFound indicates a missing batch row.
	ErrBatchNotFound = errors.New("inventory: batch not found")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
)
