// Package importcost allocates shared import container costs to the batches
// received from that container and maintains each batch's landed cost.
package importcost

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// AllocationBasis selects how the shared cost pool is split across batches.
type AllocationBasis string

const (
	// BasisValue splits the pool in proportion to each batch's import
	// value (price times quantity).
	BasisValue AllocationBasis = "value"
	// BasisQuantity splits the pool in proportion to quantity received.
	BasisQuantity AllocationBasis = "quantity"
)

// Valid reports whether b is a recognised basis.
func (b AllocationBasis) Valid() bool {
	return b == BasisValue || b == BasisQuantity
}

// Container is one import shipment. Cost fields are recorded in functional
// currency. PPNImport and PPhImport are recoverable taxes and never enter
// the allocation pool.
type Container struct {
	ID              int64
	ContainerNumber string
	SupplierID      int64
	ArrivalDate     time.Time
	Status          string

	DutyBM             float64
	PPNImport          float64
	PPhImport          float64
	FreightCharges     float64
	ClearingForwarding float64
	PortCharges        float64
	ContainerHandling  float64
	Transportation     float64
	LoadingImport      float64
	BPOMSKIFees        float64
	OtherImportCosts   float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllocatablePool sums the costs shared across the container's batches.
func (c Container) AllocatablePool() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range []float64{
		c.DutyBM,
		c.FreightCharges,
		c.ClearingForwarding,
		c.PortCharges,
		c.ContainerHandling,
		c.Transportation,
		c.LoadingImport,
		c.BPOMSKIFees,
		c.OtherImportCosts,
	} {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum
}

// BatchShare is a batch as seen by the allocator. ImportPrice is the batch's
// total landed-invoice value, not a per-unit price.
type BatchShare struct {
	BatchID        int64
	ImportPrice    float64
	ImportQuantity float64
}

// Allocation is the computed result for one batch.
type Allocation struct {
	BatchID             int64
	ImportCostAllocated decimal.Decimal
	FinalLandedCost     decimal.Decimal
	LandedCostPerUnit   decimal.Decimal
}

var (
	// ErrNoBatches means the container has nothing to allocate to.
	ErrNoBatches = errors.New("importcost: container has no batches")
	// ErrZeroWeight means every batch has a zero allocation weight, so
	// proportions are undefined.
	ErrZeroWeight = errors.New("importcost: allocation weights sum to zero")
	// ErrContainerNotFound indicates a missing container row.
	ErrContainerNotFound = errors.New("importcost: container not found")
	// ErrBatchNotFound indicates a missing batch row.
	ErrBatchNotFound = errors.New("importcost: batch not found")
)
