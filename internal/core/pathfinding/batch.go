package pathfinding

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/director/internal/core/systems/physics"
)

// Request is one start/goal pair for FindPaths.
type Request struct {
	Start, Goal physics.Vec2
}

// Result is the outcome of one Request.
type Result struct {
	Path  []physics.Vec2
	Found bool
}

// FindPaths plans every request concurrently over the shared grid. Results
// are in request order. Cancelling ctx stops requests that have not started;
// searches already running finish.
func (p *Planner) FindPaths(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, req := range reqs {
		i, req := i, req
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path, found := p.FindPath(req.Start, req.Goal)
			results[i] = Result{Path: path, Found: found}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
