// Package pipeline runs an autodork batch as a sequence of steps.
//
// A run loads its inputs, fetches proxy candidates, validates them, prepares
// the results directory and finally dispatches every dork. Each stage is a
// Step that receives the shared *model.Run and fills in its part.
//
// The dispatch stage fans out across dorks through an Orchestrator, which
// bounds concurrency with errgroup and reports each dork as it settles.
package pipeline
