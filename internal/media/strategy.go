package media

import (
	"context"

	"github.com/parlascope/parlascope/internal/interfaces"
	"github.com/parlascope/parlascope/internal/models"
)

// Resolution strategies selectable per chamber.
const (
	StrategyCaptions = "captions"
	StrategyDownload = "download"
)

// StrategyResolver picks the caption or download path per chamber from
// static configuration. It never falls back between paths within one
// resolution attempt; that retry is an orchestrator policy.
type StrategyResolver struct {
	captions interfaces.MediaResolver
	download interfaces.MediaResolver
	strategy map[string]string
}

var _ interfaces.MediaResolver = (*StrategyResolver)(nil)

// NewStrategyResolver creates the per-chamber strategy dispatcher. strategy
// maps chamber tags to a strategy name; unmapped chambers use the caption
// path.
func NewStrategyResolver(captions, download interfaces.MediaResolver, strategy map[string]string) *StrategyResolver {
	return &StrategyResolver{
		captions: captions,
		download: download,
		strategy: strategy,
	}
}

// Resolve dispatches to the chamber's configured strategy.
func (r *StrategyResolver) Resolve(ctx context.Context, commission *models.Commission, session *models.Session) error {
	if r.strategy[string(commission.Chamber)] == StrategyDownload {
		return r.download.Resolve(ctx, commission, session)
	}
	return r.captions.Resolve(ctx, commission, session)
}

// DownloadPath exposes the download resolver for orchestrator-level fallback
// after a caption-path miss.
func (r *StrategyResolver) DownloadPath() interfaces.MediaResolver {
	return r.download
}
