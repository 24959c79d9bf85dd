// Package collector drives cursor pagination over Graph connections.
//
// A collection for one origin id starts with a single governed call for the
// first page, then follows next links until one of these holds, checked in
// order after every page:
//   - the record count reached Request.Limit (output is truncated to it)
//   - in window mode, the last record is not newer than Window.Since
//   - the page has no next link
//
// A next page that fails or comes back empty also ends the walk; records
// gathered so far are kept. Every call goes through the retry governor, so
// throttled pages are retried under its budget.
//
// Usage:
//
//	c := collector.New(client, governor, log)
//	w := collector.NewWindow(since, until)
//	out := c.Connection(ctx, collector.Request{
//	    ID:     "20531316728",
//	    Edge:   graph.EdgePosts,
//	    Fields: fields,
//	    Params: graph.WindowParams(since, until, 25),
//	    Limit:  1000,
//	    Window: &w,
//	})
//	if out.Failed() {
//	    // out.Records still holds the partial result
//	}
package collector
