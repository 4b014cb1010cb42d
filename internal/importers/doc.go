// Package importers runs archive imports.
//
// # Architecture
//
// An import run walks a fixed sequence of phases:
//
//	Input → Extractor → profile → friends → posts → media → messages → finish
//
// The Orchestrator owns no per-run state. Each call to Run creates a run
// context holding the counters, the error log and the stop flag for that
// job, and writes every status change through the JobStore. Several runs
// may execute concurrently; they share only the storage collaborators.
//
// # Failure handling
//
//   - A record that fails to transform is logged on the job and the phase
//     continues with the next record. Panics are recovered per record.
//   - The posts phase stops early once its error count exceeds 10% of the
//     posts in the archive; the run still completes.
//   - Missing data, a failing profile step or anything escaping the run
//     marks the job failed.
//
// # Cancellation
//
// Stop raises the job's stop flag. The friends and posts loops check it
// between records; a stopped run skips its remaining phases and leaves the
// job status to whoever stopped it.
//
// # Example Usage
//
//	orch := importers.NewOrchestrator(jobsRepo, usersRepo, resourcesRepo, classifier.Default(), "facebook-archive")
//	orch.SetProgressObserver(mirror)
//	summary, err := orch.Run(ctx, jobID, importers.Input{Document: payload.Document, Media: payload})
package importers
