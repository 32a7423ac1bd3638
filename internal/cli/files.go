package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/flyersmith/pkg/document"
	"github.com/matzehuels/flyersmith/pkg/pipeline"
	"github.com/matzehuels/flyersmith/pkg/plan"
	"github.com/matzehuels/flyersmith/pkg/store"
)

// readDocument parses the HTML document at path.
func readDocument(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := document.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// readAssets loads generated image records from path. Both a bare JSON
// list and a record.json written by generate are accepted.
func readAssets(path string) ([]plan.GeneratedImage, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []plan.GeneratedImage
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return list, nil
	}
	var rec store.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec.Assets, nil
}

// writeOutput writes data to path, or to stdout when path is empty or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// saveRun writes the documents of res into dir and archives the record in
// st when st is not nil. An archive failure is logged, not returned.
func (c *CLI) saveRun(ctx context.Context, st store.Store, res *pipeline.Result, prompt, dir string) (store.Outputs, error) {
	rec := res.Record(prompt)
	out, err := store.WriteOutputs(dir, rec, res.PreviewHTML())
	if err != nil {
		return out, err
	}
	if st != nil {
		if err := st.Save(ctx, rec); err != nil {
			c.Logger.Warn("cannot archive flyer", "id", rec.ID, "error", err)
		}
	}
	return out, nil
}
