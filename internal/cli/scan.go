package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/awatson1978/personal-health-record-sub000/internal/archive"
)

// ScanCommand inventories an export archive without importing it.
type ScanCommand struct {
	ArchivePath string
	BudgetMB    int64
	Verbose     bool
}

func NewScanCommand() *ScanCommand {
	return &ScanCommand{}
}

func (cmd *ScanCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)

	fs.StringVar(&cmd.ArchivePath, "path", "", "Path to the export archive (.zip) or an extracted directory (required)")
	fs.Int64Var(&cmd.BudgetMB, "budget-mb", 100, "Size budget for the recommended subset, in MB")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "List every file, not only the recommended subset")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s scan -path <archive> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Inventory an export archive by content category and recommend\n")
		fmt.Fprintf(os.Stderr, "the subset of files worth importing within a size budget.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s scan -path facebook-jamie.zip\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s scan -path ./facebook-jamie -budget-mb 20 -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.ArchivePath == "" {
		return fmt.Errorf("required flag -path not provided")
	}
	if cmd.BudgetMB <= 0 {
		return fmt.Errorf("-budget-mb must be positive")
	}

	return nil
}

func (cmd *ScanCommand) Run() error {
	fmt.Println("Archive Scan")
	fmt.Println("============")

	scanner := archive.NewScanner(cmd.BudgetMB * 1024 * 1024)
	inv, err := scanner.Scan(cmd.ArchivePath)
	if err != nil {
		return err
	}

	kind := "directory"
	if inv.IsZip {
		kind = "zip"
	}
	fmt.Printf("Archive: %s (%s)\n", inv.Root, kind)
	fmt.Printf("Files: %d (%s), excluded: %d\n", len(inv.Files), formatSize(inv.TotalSize), len(inv.Excluded))

	fmt.Println("\n=== Categories ===")
	for _, category := range append(archive.Priority, archive.CategoryOther) {
		files := inv.ByCategory[category]
		if len(files) == 0 {
			continue
		}
		var size int64
		for _, f := range files {
			size += f.Size
		}
		fmt.Printf("%-10s %5d files  %10s\n", category, len(files), formatSize(size))
		if cmd.Verbose {
			for _, f := range files {
				fmt.Printf("    %s (%s)\n", f.Path, formatSize(f.Size))
			}
		}
	}

	if cmd.Verbose && len(inv.Excluded) > 0 {
		fmt.Println("\n=== Excluded ===")
		for _, f := range inv.Excluded {
			fmt.Printf("    %s: %s\n", f.Path, f.Reason)
		}
	}

	rec := scanner.Recommend(inv)
	fmt.Printf("\n=== Recommended (%s of %s budget) ===\n", formatSize(rec.TotalSize), formatSize(rec.Budget))
	if len(rec.Files) == 0 {
		fmt.Println("No files fit the budget")
		return nil
	}
	for _, f := range rec.Files {
		fmt.Printf("[%s] %s (%s)\n", f.Category, f.Path, formatSize(f.Size))
	}
	return nil
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
