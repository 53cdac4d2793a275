package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goodnatureofminers/evmsync-backend/internal/model"
	"github.com/goodnatureofminers/evmsync-backend/pkg/safe"
)

// InsertBlockHeaders stores header rows in one statement, silently skipping
// rows that collide with either uniqueness constraint. Returns the number of
// rows actually inserted. A single multi-row INSERT keeps the batch atomic.
func (r *Repository) InsertBlockHeaders(ctx context.Context, headers []model.InsertBlockHeader) (int64, error) {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_block_headers", err, start)
	}()

	if len(headers) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO evm_block_headers (chain_id, number, hash, parent_hash, timestamp) VALUES ")

	args := make([]any, 0, len(headers)*5)
	for i, header := range headers {
		number, convErr := safe.Int64(header.Number)
		if convErr != nil {
			err = fmt.Errorf("block number for chain %d: %w", header.ChainID, convErr)
			return 0, err
		}

		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 5
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5)
		args = append(args, header.ChainID, number, header.Hash, header.ParentHash, int64(header.Timestamp))
	}
	sb.WriteString(" ON CONFLICT DO NOTHING")

	tag, err := r.db.Exec(ctx, sb.String(), args...)
	if err != nil {
		err = fmt.Errorf("insert block headers: %w", err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}
