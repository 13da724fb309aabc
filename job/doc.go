// Package job defines the job entity, its state machine, and the store
// interface.
//
// # Job Entity
//
// A [Job] is one durable record for a single plan-generation request.
// It embeds [plangen.Entity] for timestamps, carries a typed
// [PlanInput], and progresses through a forward-only state machine:
//
//	pending → running → done
//	pending → running → error
//
// There is no retry at the job level: one creation event yields at most
// one worker pass (enforced by [Store.ClaimJob]), and the terminal
// state is written exactly once. Retries happen only inside one
// external call, in the genai package.
//
// Exactly one of Output/Error is populated, and only when Status is
// terminal. Stage (0 created, 1 external call started, 2 success) is an
// observability marker, never a branching input.
package job
