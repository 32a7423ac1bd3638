package store

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Output file names inside a run's output directory.
const (
	FinalFile   = "flyer_final.html"
	RefinedFile = "flyer_refined.html"
	PreviewFile = "flyer_preview.html"
	PlanFile    = "plan.json"
	RecordFile  = "record.json"
)

// Outputs lists the files WriteOutputs wrote. Empty fields were skipped.
type Outputs struct {
	Final   string
	Refined string
	Preview string
	Plan    string
	Record  string
}

// WriteOutputs writes the documents of rec into dir, plus preview when it
// is not empty. Image paths in the documents are relative to dir.
func WriteOutputs(dir string, rec *Record, preview string) (Outputs, error) {
	var out Outputs
	if err := os.MkdirAll(dir, 0755); err != nil {
		return out, err
	}

	write := func(name string, data []byte) (string, error) {
		p := filepath.Join(dir, name)
		return p, os.WriteFile(p, data, 0644)
	}

	var err error
	if out.Final, err = write(FinalFile, []byte(rec.FinalHTML)); err != nil {
		return out, err
	}
	if rec.RefinedHTML != "" {
		if out.Refined, err = write(RefinedFile, []byte(rec.RefinedHTML)); err != nil {
			return out, err
		}
	}
	if preview != "" {
		if out.Preview, err = write(PreviewFile, []byte(preview)); err != nil {
			return out, err
		}
	}
	if rec.Plan != nil {
		data, err := json.MarshalIndent(rec.Plan, "", "  ")
		if err != nil {
			return out, err
		}
		if out.Plan, err = write(PlanFile, data); err != nil {
			return out, err
		}
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return out, err
	}
	out.Record, err = write(RecordFile, data)
	return out, err
}
