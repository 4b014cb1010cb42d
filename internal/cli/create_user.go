package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/awatson1978/personal-health-record-sub000/internal/config"
	"github.com/awatson1978/personal-health-record-sub000/internal/database"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/users"
)

// CreateUserCommand creates an account and prints its API token.
type CreateUserCommand struct {
	Username     string
	Email        string
	DatabasePath string
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Account username (required)")
	fs.StringVar(&cmd.Email, "email", "", "Account email (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username <name> -email <email> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an account for token authentication (AUTH_MODE=token).\n")
		fmt.Fprintf(os.Stderr, "The API token is printed once and cannot be recovered later.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -username jamie -email jamie@example.com\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	if cmd.Email == "" {
		return fmt.Errorf("required flag -email not provided")
	}

	return nil
}

func (cmd *CreateUserCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(absDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	user, token, err := users.NewRepository(db.DB).CreateUser(context.Background(), cmd.Username, cmd.Email)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", cmd.Username, err)
	}

	fmt.Printf("Created user %s (id %d)\n", user.Username, user.ID)
	fmt.Printf("API token: %s\n", token)
	fmt.Println("\nStore this token now; it is not shown again.")
	fmt.Println("Send it as: Authorization: Bearer <token>")
	return nil
}
