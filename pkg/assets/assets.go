// Package assets stores generated images under the per-run folder layout
// documents reference them by:
//
//	flyer_images/<run-id>/flyer_img_<index>.png
//
// Paths are relative to the output root so a document and its images can
// be moved together.
package assets

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/matzehuels/flyersmith/pkg/errors"
	"github.com/matzehuels/flyersmith/pkg/plan"
)

// Dir is the folder all runs store images under.
const Dir = "flyer_images"

// Run is one flyer generation's image folder.
type Run struct {
	ID   string
	Root string // output root the relative paths resolve against
}

// NewRun creates a run with a fresh identifier.
func NewRun(root string) *Run {
	return &Run{ID: uuid.NewString(), Root: root}
}

// OpenRun returns the run with an existing identifier.
func OpenRun(root, id string) (*Run, error) {
	if err := errors.ValidateFlyerID(id); err != nil {
		return nil, err
	}
	return &Run{ID: id, Root: root}, nil
}

// Path is the document-relative path of image i.
func (r *Run) Path(i int) string {
	return path.Join(Dir, r.ID, fmt.Sprintf("flyer_img_%d.png", i))
}

// FilePath is the filesystem path of image i.
func (r *Run) FilePath(i int) string {
	return filepath.Join(r.Root, filepath.FromSlash(r.Path(i)))
}

// Save writes the bytes of image i for request req and returns its record.
func (r *Run) Save(i int, req plan.ImageRequest, data []byte) (plan.GeneratedImage, error) {
	p := r.FilePath(i)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return plan.GeneratedImage{}, errors.Wrap(errors.ErrCodeInternal, err, "create image folder")
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return plan.GeneratedImage{}, errors.Wrap(errors.ErrCodeInternal, err, "write image %d", i)
	}
	return req.Generated(i, r.Path(i)), nil
}

// Remove deletes the run's image folder.
func (r *Run) Remove() error {
	return os.RemoveAll(filepath.Join(r.Root, Dir, r.ID))
}
