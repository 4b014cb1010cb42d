// Package interfaces documents the core abstractions used throughout the application.
//
// Collaborators are declared where they are consumed, so each package only
// depends on the methods it calls. This package lists them in one place and
// holds the compile-time checks that wire concrete types to them.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - JobStore: job reads and partial updates for a run (internal/importers/orchestrator.go)
//   - ImportJobStore: job creation, listing and cancel for the API (internal/http/stores.go)
//   - Store: resource inserts and scoped updates (internal/transform/transformer.go)
//   - ResourceReader: record browsing (internal/http/stores.go)
//   - AccountReader, TokenLookup: accounts (internal/importers, internal/auth)
//
// ## Background Work Interfaces
//
//   - ImportQueue: schedules a job run (internal/http/stores.go)
//   - JobRunner: executes a queued job (internal/tasks/run_import.go)
//   - StaleJobSweeper, Sweeper, SweepTrigger: abandoned job cleanup
//     (internal/tasks, internal/scheduler)
//
// ## Progress Tracking Interfaces
//
//   - ProgressObserver: receives a snapshot after every progress write (internal/importers/orchestrator.go)
//   - ProgressStore: live progress reads for the API (internal/http/stores.go)
//
// # Adding a New Resource Mapper
//
// To map a new archive category into records:
//
//  1. Add the category's keys to the extractor in internal/extractor/
//
//  2. Add a Transformer method in internal/transform/
//
//     func (t *Transformer) CheckIn(ctx context.Context, scope Scope, raw any) (*entities.Communication, error)
//
//  3. Add a phase to the run in internal/importers/run.go with its milestone
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Register the models in database.NewDatabase
//
//  4. Add compile-time check:
//
//     var _ SomeStore = (*Repository)(nil)
//
// # Compile-Time Interface Checks
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
