// Package preview turns a flyer document that references generated images
// by relative path into a self-contained one.
//
// Local references under the asset directory are replaced by base64 data
// URIs. Each unique path is read at most once per call. Remote and already
// inlined references are left alone, and a reference whose file cannot be
// read is kept as it is.
package preview

import (
	"encoding/base64"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flyersmith/pkg/document"
)

// DefaultAssetDir is the directory generated images are stored under.
const DefaultAssetDir = "flyer_images"

const defaultMIME = "image/png"

// Option configures Materialize.
type Option func(*materializer)

// WithFS reads assets from fsys instead of the working directory.
func WithFS(fsys fs.FS) Option { return func(m *materializer) { m.fsys = fsys } }

// WithAssetDir changes the directory prefix a reference must have to be inlined.
func WithAssetDir(dir string) Option {
	return func(m *materializer) { m.dir = strings.Trim(path.Clean(dir), "/") }
}

// WithLogger logs unreadable assets at debug level.
func WithLogger(l *log.Logger) Option { return func(m *materializer) { m.logger = l } }

type materializer struct {
	fsys   fs.FS
	dir    string
	logger *log.Logger
	seen   map[string]string
	reads  int
}

// Stats reports what a materialization did.
type Stats struct {
	Inlined int // references replaced
	Reads   int // files read
	Missing []string
}

// Materialize returns a copy of doc with local asset references inlined.
// doc itself is not modified.
func Materialize(doc *document.Document, opts ...Option) *document.Document {
	out, _ := MaterializeStats(doc, opts...)
	return out
}

// MaterializeStats is Materialize plus a summary of the work done.
func MaterializeStats(doc *document.Document, opts ...Option) (*document.Document, Stats) {
	m := &materializer{
		fsys: os.DirFS("."),
		dir:  DefaultAssetDir,
		seen: make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	var st Stats
	if doc == nil {
		return nil, st
	}
	out := doc.Clone()
	out.Walk(func(n *document.Node) bool {
		if n.Type != document.ElementNode {
			return true
		}
		for i, a := range n.Attrs {
			if a.Key != "src" && a.Key != "href" {
				continue
			}
			if uri, ok := m.inline(a.Val); ok {
				n.Attrs[i].Val = uri
				st.Inlined++
			}
		}
		for i, d := range n.Style {
			if !strings.Contains(d.Value, "url(") {
				continue
			}
			n.Style[i].Value = urlPattern.ReplaceAllStringFunc(d.Value, func(match string) string {
				ref := urlPattern.FindStringSubmatch(match)[1]
				if uri, ok := m.inline(ref); ok {
					st.Inlined++
					return "url('" + uri + "')"
				}
				return match
			})
		}
		return true
	})

	st.Reads = m.reads
	for p, uri := range m.seen {
		if uri == "" {
			st.Missing = append(st.Missing, p)
		}
	}
	sort.Strings(st.Missing)
	return out, st
}

// MaterializeString parses s, inlines its assets and renders it again.
func MaterializeString(s string, opts ...Option) (string, error) {
	doc, err := document.Parse(s)
	if err != nil {
		return "", err
	}
	return document.Render(Materialize(doc, opts...)), nil
}

var urlPattern = regexp.MustCompile(`url\(\s*['"]?([^'")]+?)['"]?\s*\)`)

// inline returns the data URI for ref, or false if ref is not a readable
// local asset.
func (m *materializer) inline(ref string) (string, bool) {
	p, ok := m.localPath(ref)
	if !ok {
		return "", false
	}
	if uri, done := m.seen[p]; done {
		return uri, uri != ""
	}

	m.reads++
	data, err := fs.ReadFile(m.fsys, p)
	if err != nil {
		m.logger.Debug("asset not inlined", "path", p, "error", err)
		m.seen[p] = ""
		return "", false
	}
	uri := DataURI(p, data)
	m.seen[p] = uri
	return uri, true
}

// localPath normalizes ref to an fs.FS path under the asset directory.
func (m *materializer) localPath(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	lower := strings.ToLower(ref)
	if ref == "" || strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") || strings.HasPrefix(ref, "//") {
		return "", false
	}
	ref = strings.TrimPrefix(ref, "./")
	if !strings.HasPrefix(ref, m.dir+"/") {
		return "", false
	}
	p := path.Clean(ref)
	if !fs.ValidPath(p) || !strings.HasPrefix(p, m.dir+"/") {
		return "", false
	}
	return p, true
}

// DataURI encodes data as a base64 data URI, taking the media type from
// the file extension of name.
func DataURI(name string, data []byte) string {
	typ := mime.TypeByExtension(path.Ext(name))
	if typ == "" {
		typ = defaultMIME
	}
	if i := strings.IndexByte(typ, ';'); i >= 0 {
		typ = typ[:i]
	}
	return "data:" + typ + ";base64," + base64.StdEncoding.EncodeToString(data)
}
