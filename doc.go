// Package outline parses, edits and stores Logseq-style outline documents.
//
// A document is a sequence of bullet blocks ("- ") nested by indentation,
// optionally preceded by page properties. Blocks carry `key:: value`
// properties, a workflow keyword (TODO, DOING, NOW, LATER, DONE) and a
// stable identifier. Every mutation keeps the underlying text and the parsed
// view consistent, and a page can be checked to re-render its source exactly.
//
// Parsing a single document:
//
//	page, err := outline.ParseFile("journals/2024_01_01.md", outline.WithStrict(true))
//	for _, b := range page.Blocks {
//		if b.WorkflowState() == outline.StateTodo {
//			_ = b.SetWorkflowState(outline.StateDone)
//		}
//	}
//
// Working on a graph (a directory of pages, optionally versioned with git):
//
//	svc, err := outline.New("./graph", outline.WithAutoInit(true))
//	moved, err := svc.MoveDone(ctx, "pages/todo", "pages/done")
package outline
