// Package catalog implements the two lookup sources that verify a draft
// identity against an external database: a movie catalog and a series
// catalog. Both share the Query contract and the token-overlap scorer.
package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/mediaporter/mediaporter/pkg/logger"
	"github.com/mediaporter/mediaporter/pkg/media"
)

// Query is the lookup source contract. Implementations return whatever
// exact and fuzzy matches the backing catalog yields for a draft; a failed
// network call degrades to zero results for that sub-step and is never
// fatal to the run.
type Query interface {
	Query(ctx context.Context, draft *media.Draft) media.MatchSet
}

func logFor(ctx context.Context, source string) *zap.SugaredLogger {
	return logger.FromCtx(ctx, "catalog", source)
}
