package loom

import (
	"context"
	"fmt"
)

// TransformResult is the rewritten code returned to the host. A nil result
// means "unchanged": the host keeps serving the original code.
type TransformResult struct {
	Code string
	Map  string
}

// Transform runs the per-file pipeline: optional user transform, engine
// registration, usage parsing, bookkeeping, optional source optimization.
//
// Files with no styling usage short-circuit with a nil result and no side
// effects; this is the expected path for most files and is never an error.
func (p *Plugin) Transform(ctx context.Context, code, id string) (*TransformResult, error) {
	c, err := p.manager.Get(ctx)
	if err != nil {
		return nil, err
	}

	transformed := code
	var userMap string
	if p.opts.Transform != nil {
		out, err := p.opts.Transform(ctx, TransformArgs{FilePath: id, Content: code})
		if err != nil {
			return nil, fmt.Errorf("user transform for %s: %w", id, err)
		}
		// A result with an empty Code keeps the previous code.
		if out != nil && out.Code != "" {
			transformed = out.Code
			userMap = out.Map
		}
	}

	// The engine sees the transformed code so later passes (sheet
	// computation, optimization) work on consistent input.
	c.Engine.Project.AddSourceFile(id, transformed)

	pr := c.Engine.Project.ParseSourceFile(id)
	if pr.IsEmpty() {
		return nil, nil
	}

	// Invalidation bookkeeping records what the author wrote, not the
	// transformed intermediate text.
	c.TrackFile(id, code)

	if p.opts.Optimize == nil || !p.opts.Optimize.Enabled() {
		if transformed != code {
			return &TransformResult{Code: transformed, Map: userMap}, nil
		}
		return nil, nil
	}

	opt := *p.opts.Optimize
	if opt.HelpersImport == "" {
		opt.HelpersImport = HelpersModuleID
	}
	res := c.Engine.Optimize(pr, transformed, opt)
	if !res.Changed {
		if transformed != code {
			return &TransformResult{Code: transformed, Map: userMap}, nil
		}
		return nil, nil
	}
	return &TransformResult{Code: res.Code, Map: userMap}, nil
}
