// Package graph provides a minimal client for the Facebook Graph API.
//
// This package includes:
//   - A Client authenticating through an oauth2 token transport
//   - Record, a decoded Graph object with typed path accessors
//   - Connection, one page of a paginated edge with its paging links
//   - Helpers for building edge URLs and first-page window params
//
// Object and first-page calls report Graph error objects as *errors.Error.
// Next-page calls keep the error object on the returned Connection so the
// retry governor can inspect it in-band.
//
// Example usage:
//
//	client := graph.NewClient(cfg.Graph, graph.StaticToken(token))
//
//	page, err := client.FetchObject(ctx, "20531316728", "id,name,fan_count")
//	if err != nil {
//	    return err
//	}
//
//	conn, err := client.FetchConnection(ctx, "20531316728", graph.EdgePosts, "id,message",
//	    graph.WindowParams(since, until, 25))
//	for conn.HasNext() {
//	    conn, err = client.FetchNextPage(ctx, conn)
//	    // ...
//	}
package graph
