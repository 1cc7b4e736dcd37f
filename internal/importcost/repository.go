package importcost

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists containers and writes allocation results back to
// batches.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Store is the persistence surface the service needs.
type Store interface {
	GetContainer(ctx context.Context, id int64) (Container, error)
	UpdateContainerCosts(ctx context.Context, c Container) error
	ListBatchShares(ctx context.Context, containerID int64) ([]BatchShare, error)
	ApplyAllocations(ctx context.Context, containerID int64, allocs []Allocation) error
	ListContainerIDs(ctx context.Context) ([]int64, error)
	GetBatchContainer(ctx context.Context, batchID int64) (*int64, error)
	SetBatchContainer(ctx context.Context, batchID int64, containerID *int64) error
}

const containerColumns = `id, container_number, supplier_id, arrival_date, status,
duty_bm, ppn_import, pph_import, freight_charges, clearing_forwarding, port_charges,
container_handling, transportation, loading_import, bpom_ski_fees, other_import_costs,
created_at, updated_at`

func scanContainer(row pgx.Row) (Container, error) {
	var c Container
	err := row.Scan(&c.ID, &c.ContainerNumber, &c.SupplierID, &c.ArrivalDate, &c.Status,
		&c.DutyBM, &c.PPNImport, &c.PPhImport, &c.FreightCharges, &c.ClearingForwarding, &c.PortCharges,
		&c.ContainerHandling, &c.Transportation, &c.LoadingImport, &c.BPOMSKIFees, &c.OtherImportCosts,
		&c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *Repository) GetContainer(ctx context.Context, id int64) (Container, error) {
	c, err := scanContainer(r.pool.QueryRow(ctx, `SELECT `+containerColumns+` FROM import_containers WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Container{}, ErrContainerNotFound
		}
		return Container{}, err
	}
	return c, nil
}

func (r *Repository) UpdateContainerCosts(ctx context.Context, c Container) error {
	ct, err := r.pool.Exec(ctx, `UPDATE import_containers SET
 duty_bm=$2, ppn_import=$3, pph_import=$4, freight_charges=$5, clearing_forwarding=$6,
 port_charges=$7, container_handling=$8, transportation=$9, loading_import=$10,
 bpom_ski_fees=$11, other_import_costs=$12, updated_at=NOW()
WHERE id=$1`,
		c.ID, c.DutyBM, c.PPNImport, c.PPhImport, c.FreightCharges, c.ClearingForwarding,
		c.PortCharges, c.ContainerHandling, c.Transportation, c.LoadingImport,
		c.BPOMSKIFees, c.OtherImportCosts)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrContainerNotFound
	}
	return nil
}

func (r *Repository) ListBatchShares(ctx context.Context, containerID int64) ([]BatchShare, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, import_price, import_quantity
FROM batches WHERE import_container_id=$1 ORDER BY id ASC`, containerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BatchShare
	for rows.Next() {
		var b BatchShare
		if err := rows.Scan(&b.BatchID, &b.ImportPrice, &b.ImportQuantity); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ApplyAllocations writes all allocation results in one transaction so a
// container's batches never carry a half-applied split.
func (r *Repository) ApplyAllocations(ctx context.Context, containerID int64, allocs []Allocation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	for _, a := range allocs {
		_, err := tx.Exec(ctx, `UPDATE batches SET
 import_cost_allocated=$2, final_landed_cost=$3, landed_cost_per_unit=$4, updated_at=NOW()
WHERE id=$1 AND import_container_id=$5`,
			a.BatchID, a.ImportCostAllocated, a.FinalLandedCost, a.LandedCostPerUnit, containerID)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) GetBatchContainer(ctx context.Context, batchID int64) (*int64, error) {
	var containerID *int64
	err := r.pool.QueryRow(ctx, `SELECT import_container_id FROM batches WHERE id=$1`, batchID).Scan(&containerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBatchNotFound
	}
	return containerID, err
}

// SetBatchContainer moves a batch between containers. Detaching resets the
// allocation columns so the batch carries its invoice cost alone.
func (r *Repository) SetBatchContainer(ctx context.Context, batchID int64, containerID *int64) error {
	ct, err := r.pool.Exec(ctx, `UPDATE batches SET
 import_container_id=$2,
 import_cost_allocated=CASE WHEN $2 IS NULL THEN 0 ELSE import_cost_allocated END,
 final_landed_cost=CASE WHEN $2 IS NULL THEN import_price ELSE final_landed_cost END,
 landed_cost_per_unit=CASE
   WHEN $2 IS NOT NULL THEN landed_cost_per_unit
   WHEN import_quantity > 0 THEN round(import_price / import_quantity, 4)
   ELSE 0 END,
 updated_at=NOW()
WHERE id=$1`, batchID, containerID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrBatchNotFound
	}
	return nil
}

func (r *Repository) ListContainerIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM import_containers ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ Store = (*Repository)(nil)
