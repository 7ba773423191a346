/*
Package http serves the convergence engine over HTTP with a chi router.

# Routes

  - GET /healthz and GET /info: liveness and version.
  - GET /columns: the definitions the engine can load.
  - GET /columns/{name}/topology: the column as a Mermaid flowchart.
  - POST /solve: solve a named column or an inline JSON definition.
  - POST /compare: solve copies of a column with several strategies.
  - GET, DELETE /runs/{id}: stored results; /report, /chart and /profile render them.
  - GET /events: Server-Sent Events of solve progress, filtered by column and type.
  - GET /metrics: Prometheus metrics when WithGatherer is set.

Solve progress reaches /events only when the StreamManager's Hooks are installed on
the engine that the handler serves:

	streams := http.NewStreamManager()
	eng, _ := tower.New(dir, tower.WithLifecycleHooks(streams.Hooks()))
	handler := http.NewHandler(eng, http.WithStreams(streams))
*/
package http
