package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/evmsync-backend/pkg/safe"
)

// MissingBlockHeights returns up to limit heights missing strictly inside the
// chain's stored [min, max] range, ascending. The single-statement window
// scan gives a stable snapshot under concurrent inserts and can never emit a
// height outside the range already observed.
func (r *Repository) MissingBlockHeights(ctx context.Context, chainID int32, limit uint64) ([]uint64, error) {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("missing_block_heights", err, start)
	}()

	if limit == 0 {
		return nil, nil
	}

	lim, err := safe.Int64(limit)
	if err != nil {
		err = fmt.Errorf("limit: %w", err)
		return nil, err
	}

	const query = `
WITH ordered AS (
	SELECT number, LEAD(number) OVER (ORDER BY number) AS next
	FROM evm_block_headers
	WHERE chain_id = $1
)
SELECT gs.n
FROM ordered
CROSS JOIN LATERAL generate_series(ordered.number + 1, ordered.next - 1) AS gs(n)
WHERE ordered.next > ordered.number + 1
ORDER BY gs.n
LIMIT $2`

	rows, err := r.db.Query(ctx, query, chainID, lim)
	if err != nil {
		err = fmt.Errorf("query missing block heights: %w", err)
		return nil, err
	}
	defer rows.Close()

	var heights []uint64
	for rows.Next() {
		var n int64
		if err = rows.Scan(&n); err != nil {
			err = fmt.Errorf("scan missing block height: %w", err)
			return nil, err
		}
		height, convErr := safe.Uint64(n)
		if convErr != nil {
			err = fmt.Errorf("missing block height: %w", convErr)
			return nil, err
		}
		heights = append(heights, height)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterate missing block heights: %w", err)
		return nil, err
	}

	return heights, nil
}
