package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchWidth is the worker-pool cap when the caller passes a
// non-positive width.
const DefaultBatchWidth = 10

// CreateBatch validates every request locally, then dispatches the valid
// ones across a bounded worker pool. Completion order is unspecified;
// callers correlate results through the logical keys they submitted, not
// through counts. One failing or panicking unit of work never aborts its
// siblings, so CreateBatch itself cannot fail; it only counts.
func (m *Manager) CreateBatch(ctx context.Context, reqs []CreateRequest, width int) (succeeded, failed int) {
	if width <= 0 {
		width = DefaultBatchWidth
	}

	var ok, bad atomic.Int64

	// Local validation happens before any network traffic; an invalid
	// request is a failure that never reaches the host.
	dispatch := make([]CreateRequest, 0, len(reqs))
	for _, req := range reqs {
		if err := req.Validate(); err != nil {
			m.logger.Warn("manager: rejecting invalid create request",
				slog.String("guid", req.GUID),
				slog.String("logical_key", req.LogicalKey),
				slog.String("error", err.Error()))
			bad.Add(1)
			continue
		}
		dispatch = append(dispatch, req)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(width)

	for _, req := range dispatch {
		req := req
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("manager: create worker panic",
						slog.String("guid", req.GUID),
						slog.String("panic", fmt.Sprint(r)))
					bad.Add(1)
				}
			}()

			if _, err := m.Create(gctx, req); err != nil {
				bad.Add(1)
				return nil
			}
			ok.Add(1)
			return nil
		})
	}

	// Workers always return nil; Wait only synchronizes.
	_ = g.Wait()

	m.logger.Info("manager: batch complete",
		slog.Int("requested", len(reqs)),
		slog.Int64("succeeded", ok.Load()),
		slog.Int64("failed", bad.Load()))
	return int(ok.Load()), int(bad.Load())
}
