package chart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/reach-plots-go/internal/dataset"
	"github.com/user/reach-plots-go/internal/logging"
	"github.com/user/reach-plots-go/internal/models"
)

// Renderer loads the source of a request, builds its figure and either saves
// a JPEG under ImagesRoot or hands the figure to Viewer.
type Renderer struct {
	ResultsRoot string
	ImagesRoot  string

	// Width and Height are default pixel sizes before Scale is applied.
	Width  int
	Height int
	Scale  float64

	Viewer Viewer
}

// OutputPath returns where the image for req is written, or "" for
// interactive requests. The name depends only on kind, filename and columns.
func OutputPath(imagesRoot string, req models.ChartRequest) string {
	if req.Interactive() {
		return ""
	}
	y := req.Y
	if y == "" {
		y = "count"
	}

	var name string
	switch req.Kind {
	case models.KindHistogram:
		name = fmt.Sprintf("%s_%s.jpeg", req.Filename, y)
	case models.KindBar:
		name = fmt.Sprintf("bar_%s_%s.jpg", req.Filename, y)
	case models.KindBox:
		name = fmt.Sprintf("boxplot_%s_%s.jpeg", req.Filename, y)
	case models.KindScatter:
		name = fmt.Sprintf("scatter_%s_%s-%s.jpeg", req.Filename, y, req.X)
	default:
		name = fmt.Sprintf("%s_%s_%s.jpeg", req.Kind, req.Filename, y)
	}
	return filepath.Join(imagesRoot, name)
}

// Render produces the artifact for one request.
func (r *Renderer) Render(ctx context.Context, req models.ChartRequest) (models.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return models.Artifact{}, err
	}

	ds, err := dataset.Load(r.ResultsRoot, req.Source)
	if err != nil {
		return models.Artifact{}, err
	}
	fig, err := Build(ds, req)
	if err != nil {
		return models.Artifact{}, err
	}

	art := models.Artifact{
		Kind:       req.Kind,
		Title:      fig.Title,
		SourcePath: ds.Path,
	}

	if req.Interactive() {
		if r.Viewer == nil {
			return models.Artifact{}, fmt.Errorf("%s: no viewer configured for interactive display", req.Describe())
		}
		if err := r.Viewer.Show(fig); err != nil {
			return models.Artifact{}, err
		}
		art.Interactive = true
		logging.Info().With(logging.Request(req.Describe()), logging.Kind(string(req.Kind))).Msg("chart shown")
		return art, nil
	}

	height := r.Height
	if fig.Height > 0 {
		height = fig.Height
	}
	img, err := RasterJPEG(fig, r.Width, height, r.Scale)
	if err != nil {
		return models.Artifact{}, fmt.Errorf("%s: %w", req.Describe(), err)
	}

	out := OutputPath(r.ImagesRoot, req)
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return models.Artifact{}, fmt.Errorf("failed to create image directory for %s: %w", out, err)
	}
	if err := os.WriteFile(out, img, 0644); err != nil {
		return models.Artifact{}, fmt.Errorf("failed to write %s: %w", out, err)
	}
	art.OutputPath = out

	logging.Info().With(
		logging.Request(req.Describe()),
		logging.Path("output", out),
		logging.Count("rows", len(ds.Rows)),
	).Msg("chart written")
	return art, nil
}
