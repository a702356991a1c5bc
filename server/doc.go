// Package server exposes an enhancer pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz      liveness and the pipeline order
//	GET  /metrics      Prometheus exposition
//	POST /v1/enrich    run the pipeline over a legacy response
//	POST /v1/validate  check a response against a schema
//
// When a TokenService or a non-empty KeySet is configured, the /v1 routes
// require either an X-API-Key header or a bearer token carrying the
// route's scope.
package server
