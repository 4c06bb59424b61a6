package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/kikaiya/kikaiya-web/internal/auth"
	"github.com/kikaiya/kikaiya-web/internal/platform/httpx"
	"github.com/kikaiya/kikaiya-web/internal/users"
)

// UserCreator stores a new account. *users.Service satisfies it.
type UserCreator interface {
	CreateUser(ctx context.Context, actorID string, in users.CreateInput) (users.User, error)
}

// CreateAdminOptions defines available flags for the create-admin command.
type CreateAdminOptions struct {
	Email      string
	Name       string
	Password   string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// ParseCreateAdmin reads create-admin flags. The password falls back to
// KIKAIYA_ADMIN_PASSWORD so it can stay out of shell history.
func ParseCreateAdmin(args []string, stdout, stderr io.Writer) (CreateAdminOptions, error) {
	opts := CreateAdminOptions{Stdout: stdout, Stderr: stderr}
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.Email, "email", "", "admin email address")
	fs.StringVar(&opts.Name, "name", "Administrator", "display name")
	fs.StringVar(&opts.Password, "password", "", "initial password (or KIKAIYA_ADMIN_PASSWORD)")
	fs.BoolVar(&opts.JSONOutput, "json", false, "print the created user as JSON")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.Password == "" {
		opts.Password = os.Getenv("KIKAIYA_ADMIN_PASSWORD")
	}
	return opts, nil
}

// CreateAdminCommand creates an active admin account and returns the process exit code.
func CreateAdminCommand(ctx context.Context, creator UserCreator, opts CreateAdminOptions) int {
	in := users.CreateInput{Email: opts.Email, Name: opts.Name, Password: opts.Password, Role: auth.RoleAdmin}
	if err := validator.New().Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fmt.Fprintf(opts.Stderr, "invalid %s: %s\n", fe.Field(), fe.Tag())
			}
		} else {
			fmt.Fprintf(opts.Stderr, "invalid input: %v\n", err)
		}
		return 2
	}

	user, err := creator.CreateUser(ctx, "", in)
	if err != nil {
		if errors.Is(err, httpx.ErrDuplicate) {
			fmt.Fprintf(opts.Stderr, "a user with email %s already exists\n", in.Email)
			return 1
		}
		fmt.Fprintf(opts.Stderr, "create admin: %v\n", err)
		return 1
	}

	if opts.JSONOutput {
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(user); err != nil {
			fmt.Fprintf(opts.Stderr, "encode output: %v\n", err)
			return 1
		}
		return 0
	}
	fmt.Fprintf(opts.Stdout, "created admin %s (%s)\n", user.Email, user.ID)
	return 0
}
