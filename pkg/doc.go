// Package pkg provides the core libraries for Flyersmith flyer generation.
//
// # Overview
//
// Flyersmith turns a short prompt into a finished promotional flyer. A
// language model plans the design as JSON, the plan is compiled into an
// absolutely positioned HTML document, an image model paints the requested
// pictures, the pictures are placed into the document, and a critique model
// proposes edits that are merged back only when they keep the document
// intact. The pkg directory is organized into three areas:
//
//  1. Document model - [plan], [placement], [document]
//  2. Pipeline stages - [compile], [inject], [refine], [preview], [summary]
//  3. Infrastructure - [llm], [prompt], [cache], [store], [assets], [observability], [errors]
//
// # Architecture
//
// The data flow through [pipeline]:
//
//	Prompt
//	   ↓
//	[prompt] + [llm] (plan the design, decode with [plan])
//	   ↓
//	[compile] (plan → document with image placeholders)
//	   ↓
//	[llm] image generation, files laid out by [assets]
//	   ↓
//	[inject] (placeholders → images)
//	   ↓
//	[refine] (critique rounds, structural merge)
//	   ↓
//	[preview] (images inlined as data URIs)
//
// # Quick Start
//
//	client, _ := llm.NewOpenAI(llm.Config{APIKey: key})
//	runner := pipeline.NewRunner(client, client, client, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Prompt:    "Summer tea festival, slogan: Refresh Your Soul",
//	    OutputDir: "outputs",
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Summary)
//
// The stages can also be used on their own:
//
//	p, _ := plan.Decode(reply)
//	doc := compile.Compile(p).Document
//	report := inject.Inject(doc, images)
//	html := document.Render(preview.Materialize(doc, preview.WithFS(os.DirFS("outputs"))))
//
// # Testing
//
//	go test ./pkg/...
//
// The model clients are interfaces, so every stage is tested against
// in-process fakes; no test talks to a real model.
//
// [plan]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/plan
// [placement]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/placement
// [document]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/document
// [compile]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/compile
// [inject]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/inject
// [refine]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/refine
// [preview]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/preview
// [summary]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/summary
// [llm]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/llm
// [prompt]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/prompt
// [cache]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/store
// [assets]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/assets
// [observability]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/errors
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flyersmith/pkg/pipeline
package pkg
