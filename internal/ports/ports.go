package ports

import (
	"context"
	"time"

	"github.com/forPelevin/scenereel/internal/types"
)

// MediaProvider searches a stock-footage service and fetches clip bytes.
// Implementations make exactly one remote call per method invocation.
type MediaProvider interface {
	Search(ctx context.Context, query string) ([]types.ClipDescriptor, error)
	Download(ctx context.Context, url, dest string) (int64, error)
}

type VideoTool interface {
	Trim(ctx context.Context, inMP4, outMP4 string, limit time.Duration) (types.TrimmedClip, error)
	Concat(ctx context.Context, clips []types.TrimmedClip, outMP4 string) error
}
