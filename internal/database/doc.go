// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── jobs/            # Import job tracking and stale sweeps
//	├── resources/       # Imported records (profile, notes, media, ...)
//	└── users/           # User management and token lookup
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./health-records.db")
//
//	jobsRepo := jobs.NewRepository(db.DB)
//	resourcesRepo := resources.NewRepository(db.DB, "facebook-archive")
//	usersRepo := users.NewRepository(db.DB)
//
// # Interface Implementations
//
//   - jobs.Repository: implements importers.JobStore
//   - resources.Repository: implements transform.Store
//   - users.Repository: implements importers.AccountReader and auth.TokenLookup
package database
