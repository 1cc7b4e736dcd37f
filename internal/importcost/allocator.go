package importcost

import (
	"github.com/shopspring/decimal"
)

// moneyPlaces is the rounding precision for allocated amounts.
const moneyPlaces = 2

// unitPlaces keeps more precision on per-unit landed cost so small unit
// prices survive repeated recomputation.
const unitPlaces = 4

// Allocate splits the container's allocatable pool across batches in
// proportion to the chosen basis. Results are computed from scratch: callers
// overwrite whatever was allocated before, so editing costs or batches and
// re-running always converges to the same answer. Rounding remainders land
// on the last batch so the allocated amounts sum exactly to the pool.
func Allocate(c Container, batches []BatchShare, basis AllocationBasis) ([]Allocation, error) {
	if len(batches) == 0 {
		return nil, ErrNoBatches
	}
	if !basis.Valid() {
		basis = BasisValue
	}

	pool := c.AllocatablePool()
	weights := make([]decimal.Decimal, len(batches))
	total := decimal.Zero
	for i, b := range batches {
		w := weight(b, basis)
		weights[i] = w
		total = total.Add(w)
	}
	if total.IsZero() && !pool.IsZero() {
		return nil, ErrZeroWeight
	}

	out := make([]Allocation, len(batches))
	distributed := decimal.Zero
	for i, b := range batches {
		var share decimal.Decimal
		switch {
		case pool.IsZero():
			share = decimal.Zero
		case i == len(batches)-1:
			share = pool.Sub(distributed)
		default:
			share = pool.Mul(weights[i]).Div(total).Round(moneyPlaces)
			distributed = distributed.Add(share)
		}

		// ImportPrice is the batch's total invoice value, not per-unit.
		final := decimal.NewFromFloat(b.ImportPrice).Add(share)
		qty := decimal.NewFromFloat(b.ImportQuantity)
		perUnit := decimal.Zero
		if !qty.IsZero() {
			perUnit = final.Div(qty).Round(unitPlaces)
		}
		out[i] = Allocation{
			BatchID:             b.BatchID,
			ImportCostAllocated: share,
			FinalLandedCost:     final.Round(moneyPlaces),
			LandedCostPerUnit:   perUnit,
		}
	}
	return out, nil
}

func weight(b BatchShare, basis AllocationBasis) decimal.Decimal {
	if basis == BasisQuantity {
		return decimal.NewFromFloat(b.ImportQuantity)
	}
	return decimal.NewFromFloat(b.ImportPrice)
}
