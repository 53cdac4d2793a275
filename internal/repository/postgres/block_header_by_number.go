package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/evmsync-backend/internal/model"
	"github.com/goodnatureofminers/evmsync-backend/pkg/safe"
)

// BlockHeaderByNumber returns the header at a height for a chain, or nil
// when no such row exists.
func (r *Repository) BlockHeaderByNumber(ctx context.Context, chainID int32, number uint64) (*model.BlockHeader, error) {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("block_header_by_number", err, start)
	}()

	num, err := safe.Int64(number)
	if err != nil {
		err = fmt.Errorf("block number: %w", err)
		return nil, err
	}

	const query = `
SELECT id, chain_id, number, hash, parent_hash, timestamp
FROM evm_block_headers
WHERE chain_id = $1 AND number = $2
LIMIT 1`

	rows, err := r.db.Query(ctx, query, chainID, num)
	if err != nil {
		err = fmt.Errorf("query block header by number: %w", err)
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			err = fmt.Errorf("iterate block header by number: %w", err)
			return nil, err
		}
		return nil, nil
	}

	var header model.BlockHeader
	if err = scanBlockHeader(rows, &header); err != nil {
		err = fmt.Errorf("scan block header by number: %w", err)
		return nil, err
	}

	return &header, nil
}
