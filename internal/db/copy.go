package db

import (
	"github.com/gyeh/claimscore/internal/model"
	"github.com/jackc/pgx/v5"
)

// ClaimSource implements pgx.CopyFromSource over an in-memory scored batch.
type ClaimSource struct {
	claims []model.ScoredClaim
	pos    int
}

// NewClaimSource creates a CopyFromSource backed by claims.
func NewClaimSource(claims []model.ScoredClaim) *ClaimSource {
	return &ClaimSource{claims: claims, pos: -1}
}

// Next advances to the next row. Returns false after the last claim.
func (s *ClaimSource) Next() bool {
	s.pos++
	return s.pos < len(s.claims)
}

// Values returns the current row's values in COPY column order.
func (s *ClaimSource) Values() ([]any, error) {
	return s.claims[s.pos].Values(), nil
}

// Err is always nil; the batch is already in memory.
func (s *ClaimSource) Err() error {
	return nil
}

// Compile-time check that ClaimSource satisfies the interface.
var _ pgx.CopyFromSource = (*ClaimSource)(nil)
