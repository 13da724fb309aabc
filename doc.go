// Package plangen is the asynchronous outing-plan generation service for
// the baby app. A client submits an origin, a date range, and interest
// tags; the service creates a durable Job, invokes the external
// text-generation service in the background, and serves status polling
// until the plan is ready.
//
// # Architecture
//
// Each subsystem lives in its own package: job defines the record and the
// store contract, store/* provide document-store backends, genai wraps the
// external generation call with classification and bounded retry, worker
// performs the single processing pass per job, event carries the
// job-created trigger, and api exposes the submission/status endpoint.
//
// The processing model is one logical attempt per job: the dispatch
// trigger fires once per creation, the worker claims the job with a
// conditional pending→running update, and writes exactly one terminal
// state. Retries happen only inside one external call, never at the job
// level.
package plangen
