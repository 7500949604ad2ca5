package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/user/reach-plots-go/internal/config"
	"github.com/user/reach-plots-go/internal/logging"
	"github.com/user/reach-plots-go/internal/models"
	"github.com/user/reach-plots-go/internal/report"
	"github.com/user/reach-plots-go/pkg/gitutil"
)

// Renderer produces the artifact for a single request.
type Renderer interface {
	Render(ctx context.Context, req models.ChartRequest) (models.Artifact, error)
}

// Runner renders a request list one after another.
type Runner struct {
	Renderer Renderer
	Config   *config.Config
}

// Run renders every request from Requests. The first failure stops the run.
// When reporting is enabled the manifest and index are written afterwards.
func (r *Runner) Run(ctx context.Context) (*models.RunManifest, error) {
	manifest, err := r.RunRequests(ctx, Requests(r.Config))
	if err != nil {
		return nil, err
	}

	manifest.Revision, err = gitutil.DescribePath(r.Config.Paths.ResultsRoot)
	if err != nil {
		// Provenance is informational only.
		logging.Warn().With(logging.ErrorField(err)).Msg("could not read results revision")
	}

	if r.Config.Report.Enabled {
		written, err := report.WriteAll(manifest, r.Config.Paths.ImagesRoot)
		if err != nil {
			return manifest, fmt.Errorf("failed to write run report: %w", err)
		}
		for _, p := range written {
			logging.Info().With(logging.Path("output", p)).Msg("report written")
		}
	}
	return manifest, nil
}

// RunRequests renders reqs in order and collects their artifacts.
func (r *Runner) RunRequests(ctx context.Context, reqs []models.ChartRequest) (*models.RunManifest, error) {
	manifest := &models.RunManifest{
		GeneratedAt: time.Now(),
		ResultsRoot: r.Config.Paths.ResultsRoot,
		ImagesRoot:  r.Config.Paths.ImagesRoot,
	}

	total := len(reqs)
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logging.Debug().With(
			logging.Request(req.Describe()),
			logging.Count("index", i+1),
			logging.Count("total", total),
		).Msg("rendering")

		art, err := r.Renderer.Render(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", req.Describe(), err)
		}
		manifest.Artifacts = append(manifest.Artifacts, art)
	}

	logging.Info().With(logging.Count("charts", len(manifest.Artifacts))).Msg("batch complete")
	return manifest, nil
}
