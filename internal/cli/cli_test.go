package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flyersmith/internal/config"
	"github.com/matzehuels/flyersmith/pkg/cache"
	"github.com/matzehuels/flyersmith/pkg/document"
	"github.com/matzehuels/flyersmith/pkg/plan"
	"github.com/matzehuels/flyersmith/pkg/store"
)

const planJSON = `{
  "theme": {"tone": "calm", "theme_colors": ["#F4EBD0"]},
  "texts": [
    {"content": "Tea Festival", "position": "top center", "font_size": "56px"},
    {"content": "Refresh Your Soul", "position": "bottom center"}
  ],
  "layout": {"background": {"color": "#F4EBD0"}, "layout_shapes": [{"shape": "circle", "position": "center"}]},
  "images": [
    {"description": "teapot", "position": "top right", "size": "25%"},
    {"description": "tea leaves", "position": "bottom left", "size": "20%"}
  ]
}`

// testConfig returns the default configuration with every file under dir.
func testConfig(dir string) config.Config {
	cfg := config.Default()
	cfg.Cache.Backend = config.BackendFile
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	cfg.Store.Dir = filepath.Join(dir, "store")
	cfg.Pipeline.OutputDir = filepath.Join(dir, "outputs")
	cfg.OpenAI.ImageInterval = 0
	return cfg
}

// testCLI returns a CLI configured by testConfig.
func testCLI(t *testing.T, dir string) (*CLI, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	c := New(&logs, LogInfo)
	cfg := testConfig(dir)
	c.Config = &cfg
	captureStdout(t)
	return c, &logs
}

func run(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestCompileInjectPreview(t *testing.T) {
	dir := t.TempDir()
	c, _ := testCLI(t, dir)

	planPath := writeFile(t, filepath.Join(dir, "plan.json"), planJSON)
	compiled := filepath.Join(dir, "compiled.html")
	if err := run(t, c, "compile", planPath, "-o", compiled); err != nil {
		t.Fatalf("compile: %v", err)
	}
	doc, err := readDocument(compiled)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(doc.Placeholders()); got != 2 {
		t.Fatalf("placeholders = %d, want 2", got)
	}

	p, err := plan.Decode([]byte(planJSON))
	if err != nil {
		t.Fatal(err)
	}
	var assets []plan.GeneratedImage
	for i, req := range p.Images {
		rel := "flyer_images/run/flyer_img_" + string(rune('0'+i)) + ".png"
		writeFile(t, filepath.Join(dir, filepath.FromSlash(rel)), "png")
		assets = append(assets, req.Generated(i, rel))
	}
	data, _ := json.Marshal(assets)
	assetsPath := writeFile(t, filepath.Join(dir, "assets.json"), string(data))

	injected := filepath.Join(dir, "injected.html")
	if err := run(t, c, "inject", compiled, "--assets", assetsPath, "-o", injected); err != nil {
		t.Fatalf("inject: %v", err)
	}
	doc, err = readDocument(injected)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(doc.OfKind(document.KindImage)); got != 2 {
		t.Errorf("images = %d, want 2", got)
	}

	if err := run(t, c, "preview", injected); err != nil {
		t.Fatalf("preview: %v", err)
	}
	html := readFile(t, filepath.Join(dir, store.PreviewFile))
	if strings.Count(html, "data:image/png;base64,") != 2 {
		t.Errorf("preview did not inline both images")
	}
}

func TestCompileRejectsIncompletePlan(t *testing.T) {
	dir := t.TempDir()
	c, _ := testCLI(t, dir)
	path := writeFile(t, filepath.Join(dir, "plan.json"), `{"theme": {}}`)

	if err := run(t, c, "compile", path, "-o", filepath.Join(dir, "out.html")); err == nil {
		t.Error("compile accepted a plan without texts, layout and images")
	}
}

func TestReadAssets(t *testing.T) {
	dir := t.TempDir()

	list := writeFile(t, filepath.Join(dir, "list.json"), `[{"path": "a.png", "position": "center"}]`)
	got, err := readAssets(list)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Index != -1 || got[0].Path != "a.png" {
		t.Errorf("list assets = %+v", got)
	}

	rec := writeFile(t, filepath.Join(dir, "record.json"), `{"id": "x", "assets": [{"index": 1, "path": "b.png"}]}`)
	got, err = readAssets(rec)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Index != 1 {
		t.Errorf("record assets = %+v", got)
	}

	if got, err := readAssets(""); err != nil || got != nil {
		t.Errorf("empty path = %v, %v", got, err)
	}
}

func TestCompletion(t *testing.T) {
	c, _ := testCLI(t, t.TempDir())
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "flyersmith") {
		t.Error("completion script does not mention the command")
	}
}

// fakeOpenAI answers planning, critique and image requests.
func fakeOpenAI(t *testing.T) *httptest.Server {
	t.Helper()
	reply := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "flyersmith/") {
			t.Errorf("User-Agent = %q", ua)
		}
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		content := planJSON
		for _, m := range req.Messages {
			if strings.Contains(m.Content, "reviewing an HTML flyer") {
				content = `{"judgment": "clean layout", "score": 8, "feedback": []}`
			}
		}
		reply(w, map[string]any{
			"choices": []map[string]any{{
				"index":   0,
				"message": map[string]any{"role": "assistant", "content": content},
			}},
		})
	})
	mux.HandleFunc("/images/generations", func(w http.ResponseWriter, r *http.Request) {
		reply(w, map[string]any{
			"data": []map[string]any{{"b64_json": base64.StdEncoding.EncodeToString([]byte("png"))}},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	c, _ := testCLI(t, dir)
	srv := fakeOpenAI(t)
	c.Config.OpenAI.APIKey = "test"
	c.Config.OpenAI.BaseURL = srv.URL

	out := filepath.Join(dir, "out")
	if err := run(t, c, "generate", "-o", out, "Tea", "festival"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, name := range []string{store.FinalFile, store.RefinedFile, store.PreviewFile, store.PlanFile, store.RecordFile} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	if !strings.Contains(readFile(t, filepath.Join(out, store.PreviewFile)), "data:image/png;base64,") {
		t.Error("preview images not inlined")
	}

	var rec store.Record
	if err := json.Unmarshal([]byte(readFile(t, filepath.Join(out, store.RecordFile))), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Prompt != "Tea festival" || len(rec.Assets) != 2 || len(rec.Verdicts) != 1 {
		t.Errorf("record = %+v", rec)
	}

	archived, err := os.ReadDir(c.Config.Store.Dir)
	if err != nil || len(archived) != 1 {
		t.Errorf("archive entries = %d, %v", len(archived), err)
	}

	// Plan, images and critique went through the cache.
	if n, _ := mustFileCache(t, c.Config.Cache.Dir).Len(); n == 0 {
		t.Error("nothing was cached")
	}
}

func mustFileCache(t *testing.T, dir string) *cache.FileCache {
	t.Helper()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	return fc
}

func TestGenerateWithoutKey(t *testing.T) {
	c, _ := testCLI(t, t.TempDir())
	c.Config.OpenAI.APIKey = ""
	if err := run(t, c, "generate", "Tea festival"); err == nil {
		t.Error("generate without an API key should fail")
	}
}

func TestCompleteFlyerIDs(t *testing.T) {
	dir := t.TempDir()
	c, _ := testCLI(t, dir)

	st, err := store.NewFileStore(c.Config.Store.Dir)
	if err != nil {
		t.Fatal(err)
	}
	rec := &store.Record{ID: "8f14e45f-ceea-467f-a0e6-3b2f0c8c1a2b", Prompt: "Jazz night at the harbour"}
	if err := st.Save(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	root := c.RootCommand()
	show, _, err := root.Find([]string{"show"})
	if err != nil {
		t.Fatal(err)
	}
	got, directive := c.completeFlyerIDs(show, nil, "")
	if len(got) != 1 || !strings.HasPrefix(got[0], rec.ID+"\tJazz night") {
		t.Errorf("completions = %q", got)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v", directive)
	}
}
