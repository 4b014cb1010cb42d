package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/awatson1978/personal-health-record-sub000/internal/archive"
	"github.com/awatson1978/personal-health-record-sub000/internal/classifier"
	"github.com/awatson1978/personal-health-record-sub000/internal/config"
	"github.com/awatson1978/personal-health-record-sub000/internal/database"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/jobs"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/resources"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/users"
	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
	"github.com/awatson1978/personal-health-record-sub000/internal/importers"
)

// ImportCommand imports an export archive synchronously, without the server.
type ImportCommand struct {
	ArchivePath      string
	DatabasePath     string
	UserID           uint
	ClassifierConfig string
	SourceLabel      string
	BudgetMB         int64
	Timeout          time.Duration
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.ArchivePath, "file", "", "Path to the export archive (.zip) or an extracted directory (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.UintVar(&cmd.UserID, "user-id", 0, "Account to import into (default: the local account)")
	fs.StringVar(&cmd.ClassifierConfig, "classifier", "", "YAML file overriding the built-in health vocabulary")
	fs.StringVar(&cmd.SourceLabel, "source", config.DefaultSourceLabel, "Source label written into imported records")
	fs.Int64Var(&cmd.BudgetMB, "budget-mb", 100, "Size budget for the recommended subset, in MB")
	fs.DurationVar(&cmd.Timeout, "timeout", 2*time.Hour, "Abort the import after this long")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <archive> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a social-media export archive into health records.\n\n")
		fmt.Fprintf(os.Stderr, "The import runs in the foreground and prints a summary of the\n")
		fmt.Fprintf(os.Stderr, "records created. Progress is tracked as an import job, visible\n")
		fmt.Fprintf(os.Stderr, "through the API once the server is started.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Import into the local account:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file facebook-jamie.zip\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Import an extracted archive into account 3:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file ./facebook-jamie -user-id 3\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ArchivePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}

	return nil
}

func (cmd *ImportCommand) Run() error {
	fmt.Println("Archive Import")
	fmt.Println("==============")

	if _, err := os.Stat(cmd.ArchivePath); os.IsNotExist(err) {
		return fmt.Errorf("archive not found: %s", cmd.ArchivePath)
	}
	absArchive, err := filepath.Abs(cmd.ArchivePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for archive: %w", err)
	}
	fmt.Printf("Archive: %s\n", absArchive)

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	cmd.DatabasePath = absDBPath
	fmt.Printf("Database: %s\n", cmd.DatabasePath)

	c, err := classifier.FromFile(cmd.ClassifierConfig)
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	userRepo := users.NewRepository(db.DB)

	userID := cmd.UserID
	if userID == 0 {
		user, err := userRepo.EnsureUser(ctx, "local", "local@localhost")
		if err != nil {
			return fmt.Errorf("failed to prepare local account: %w", err)
		}
		userID = user.ID
	}

	jobRepo := jobs.NewRepository(db.DB)
	job, err := jobRepo.Create(ctx, userID, filepath.Base(absArchive), absArchive)
	if err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	fmt.Printf("Job: %s\n", job.ID)

	orch := importers.NewOrchestrator(jobRepo, userRepo, resources.NewRepository(db.DB, cmd.SourceLabel), c, cmd.SourceLabel)
	loader := archive.NewLoader(archive.NewScanner(cmd.BudgetMB * 1024 * 1024))
	runner := importers.NewRunner(orch, loader, cmd.Timeout)

	fmt.Println("\nImporting...")
	summary, err := runner.RunJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	stored, err := jobRepo.FindJob(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to reload import job: %w", err)
	}
	printSummary(summary, stored)
	return nil
}

func printSummary(summary *entities.ResultSummary, job *entities.ImportJob) {
	fmt.Println("\n=== Import Summary ===")
	fmt.Printf("Records processed:    %d of %d\n", job.ProcessedRecords, job.TotalRecords)
	fmt.Printf("Profiles:             %d\n", summary.Profiles)
	fmt.Printf("Clinical impressions: %d\n", summary.ClinicalImpressions)
	fmt.Printf("Communications:       %d\n", summary.Communications)
	fmt.Printf("Persons:              %d\n", summary.Persons)
	fmt.Printf("Care teams:           %d\n", summary.CareTeams)
	fmt.Printf("Media:                %d\n", summary.Media)
	fmt.Printf("Skipped:              %d\n", summary.Skipped)
	if summary.Fallback {
		fmt.Println("\nNo recognized records were found; sample records were created instead.")
	}

	if job.ErrorCount > 0 {
		fmt.Printf("\nErrors: %d\n", job.ErrorCount)
		for i, e := range job.Errors {
			if i >= 10 {
				fmt.Printf("  ... and %d more\n", len(job.Errors)-i)
				break
			}
			fmt.Printf("  [%s] %s\n", e.Phase, e.Message)
		}
	}
}
