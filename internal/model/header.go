// Package model defines domain models for EVM header ingestion.
package model

import "strconv"

// BlockHeader is a block header row persisted to Postgres.
type BlockHeader struct {
	ID         int64
	ChainID    int32
	Number     uint64
	Hash       string
	ParentHash string
	Timestamp  uint32
}

// InsertBlockHeader is a header record ready for batch insertion. The
// surrogate ID is assigned by the store.
type InsertBlockHeader struct {
	ChainID    int32
	Number     uint64
	Hash       string
	ParentHash string
	Timestamp  uint32
}

// BlockHeaderDTO is the wire shape served by the read API. Heights and
// timestamps are decimal strings so consumers never go through a float.
type BlockHeaderDTO struct {
	Number     string `json:"number"`
	Hash       string `json:"hash"`
	ParentHash string `json:"parentHash"`
	Timestamp  string `json:"timestamp"`
}

// DTO converts a stored header to its API representation.
func (h BlockHeader) DTO() BlockHeaderDTO {
	return BlockHeaderDTO{
		Number:     strconv.FormatUint(h.Number, 10),
		Hash:       h.Hash,
		ParentHash: h.ParentHash,
		Timestamp:  strconv.FormatUint(uint64(h.Timestamp), 10),
	}
}
