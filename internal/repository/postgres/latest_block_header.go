package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/evmsync-backend/internal/model"
)

// LatestBlockHeader returns the header with the highest number for a chain,
// or nil when the chain has no stored blocks.
func (r *Repository) LatestBlockHeader(ctx context.Context, chainID int32) (*model.BlockHeader, error) {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("latest_block_header", err, start)
	}()

	const query = `
SELECT id, chain_id, number, hash, parent_hash, timestamp
FROM evm_block_headers
WHERE chain_id = $1
ORDER BY number DESC
LIMIT 1`

	rows, err := r.db.Query(ctx, query, chainID)
	if err != nil {
		err = fmt.Errorf("query latest block header: %w", err)
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			err = fmt.Errorf("iterate latest block header: %w", err)
			return nil, err
		}
		return nil, nil
	}

	var header model.BlockHeader
	if err = scanBlockHeader(rows, &header); err != nil {
		err = fmt.Errorf("scan latest block header: %w", err)
		return nil, err
	}

	return &header, nil
}
