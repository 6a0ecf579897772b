// Package client is a REST client for the labor-rights assistant service.
//
// # Basic Usage
//
//	c := client.New("http://localhost:8000", client.WithRateLimit(20))
//	sessions, err := c.ListSessions(ctx)
//
// Send a chat turn. An empty SessionID asks the server to start a new
// conversation; the assigned id comes back in the response:
//
//	resp, err := c.Chat(ctx, client.ChatRequest{
//	    Message:  "What is the minimum wage?",
//	    Category: "general",
//	})
//
// Submit a contract for risk analysis:
//
//	f, _ := os.Open("contract.pdf")
//	analysis, err := c.Analyze(ctx, resp.SessionID, "contract.pdf", f)
//
// # Errors
//
// Non-2xx responses are returned as *StatusError. The Detail field holds the
// message extracted from the server's JSON error envelope when there is one.
//
// # Timeouts
//
// Chat and Analyze carry no client-side timeout; cancel the context to abort
// them. ListSessions and SessionHistory are bounded by WithListTimeout.
//
// The Client is safe for concurrent use.
package client
