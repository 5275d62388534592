// Package tasks implements the named task registry and the sequencer that
// runs ordered plans of tasks.
//
// A Task has optional Deps, an optional Plan and an optional Action. Running
// a task first runs all of its Deps as one concurrent group, then each Plan
// step in order, then its Action. Within one top-level Sequencer.Run every
// task executes at most once; later requests for the same task wait on the
// first execution and observe its result.
//
// Before any action starts, the closure of the requested steps is expanded
// over the edges Deps ∪ Plan names. Unknown names and cycles are reported at
// that point, so a misconfigured plan never leaves a half-built output tree.
//
// Failure policy: the first failing action halts the run. Tasks that have
// not started their action yet are skipped; tasks already running are left
// to finish, and the first failure is returned once the enclosing group has
// settled. Nothing is retried.
package tasks
