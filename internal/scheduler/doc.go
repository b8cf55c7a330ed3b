// Package scheduler implements the token-budgeted wave scheduler.
//
// Large article sets are partitioned into fixed-size sub-batches, grouped
// into sequential waves sized to stay under the service's enqueued-token
// quota, and submitted wave by wave. A wave's jobs are monitored until every
// one reaches a terminal state (or the wave's wait ceiling elapses) before
// the next wave is allowed to submit, so at most one wave's budget is
// outstanding with the service.
//
// Identity survives the round trip via per-sub-batch request keys: each
// request carries a positional key mapped back to the original article ID at
// reconciliation time. Every submission is appended to a durable tracking
// log before it is acted upon, so a restarted run can re-attach to in-flight
// jobs instead of resubmitting them.
package scheduler
