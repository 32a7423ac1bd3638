package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/flyersmith/pkg/errors"
	"github.com/matzehuels/flyersmith/pkg/placement"
	"github.com/matzehuels/flyersmith/pkg/plan"
)

func TestRunPath(t *testing.T) {
	r, err := OpenRun("out", "8f14e45f-ceea-467f-a0e6-3b2f0c8c1a2b")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := r.Path(3), "flyer_images/8f14e45f-ceea-467f-a0e6-3b2f0c8c1a2b/flyer_img_3.png"; got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
	if err := errors.ValidatePath(r.Path(0)); err != nil {
		t.Errorf("Path is not a safe relative path: %v", err)
	}
}

func TestOpenRunRejectsBadID(t *testing.T) {
	if _, err := OpenRun("out", "../escape"); !errors.Is(err, errors.ErrCodeInvalidID) {
		t.Errorf("err = %v, want INVALID_ID", err)
	}
}

func TestNewRunUnique(t *testing.T) {
	a, b := NewRun(""), NewRun("")
	if a.ID == b.ID {
		t.Error("runs share an identifier")
	}
	if errors.ValidateFlyerID(a.ID) != nil {
		t.Errorf("ID %q is not canonical", a.ID)
	}
}

func TestSave(t *testing.T) {
	root := t.TempDir()
	r := NewRun(root)
	req := plan.ImageRequest{Description: "teapot", Position: "background", Size: "100%"}

	img, err := r.Save(1, req, []byte("png"))
	if err != nil {
		t.Fatal(err)
	}
	if img.Index != 1 || img.Path != r.Path(1) || img.Layer != placement.LayerBackground {
		t.Errorf("record = %+v", img)
	}
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(img.Path)))
	if err != nil || string(data) != "png" {
		t.Errorf("file = %q, %v", data, err)
	}

	if err := r.Remove(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(r.FilePath(1)); !os.IsNotExist(err) {
		t.Error("image survived Remove")
	}
}
