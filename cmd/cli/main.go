// Command cli manages back-office accounts.  There is no HTTP endpoint for
// creating admins; this is the only way in.
//
//	cli add-admin -username kari -password '...' -name 'Kari N'
//	cli set-admin-active -username kari -active=false
//	cli set-password -username kari -password '...'
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/iliyamo/storefront-api/internal/config"
	"github.com/iliyamo/storefront-api/internal/database"
	"github.com/iliyamo/storefront-api/internal/logging"
	"github.com/iliyamo/storefront-api/internal/model"
	"github.com/iliyamo/storefront-api/internal/repository"
	"github.com/iliyamo/storefront-api/internal/utils"
)

const usage = "expected one of: add-admin, set-admin-active, set-password"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	_ = godotenv.Load()

	var err error
	switch os.Args[1] {
	case "add-admin":
		err = addAdmin(os.Args[2:])
	case "set-admin-active":
		err = setActive(os.Args[2:])
	case "set-password":
		err = setPassword(os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openAdmins() (*repository.AdminRepo, func(), error) {
	logger, err := logging.New(logging.Options{Level: "warn"})
	if err != nil {
		return nil, nil, err
	}
	dc := config.LoadDB()
	db, err := database.Open(logger, dc.User, dc.Pass, dc.Host, dc.Port, dc.Name)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewAdminRepo(db), func() { _ = db.Close() }, nil
}

func addAdmin(args []string) error {
	fs := flag.NewFlagSet("add-admin", flag.ExitOnError)
	username := fs.String("username", "", "login name (case-sensitive)")
	password := fs.String("password", "", "initial password")
	name := fs.String("name", "", "display name, defaults to username")
	_ = fs.Parse(args)

	if *username == "" || *password == "" {
		fs.PrintDefaults()
		return errors.New("username and password are required")
	}
	hash, err := utils.HashPassword(*password, config.BcryptCost())
	if err != nil {
		return err
	}
	display := strings.TrimSpace(*name)
	if display == "" {
		display = *username
	}

	admins, done, err := openAdmins()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = admins.Create(ctx, &model.Admin{
		ID:           uuid.NewString(),
		Username:     *username,
		PasswordHash: hash,
		Name:         display,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("admin %q already exists", *username)
	}
	if err != nil {
		return err
	}
	fmt.Printf("admin %q created\n", *username)
	return nil
}

func setActive(args []string) error {
	fs := flag.NewFlagSet("set-admin-active", flag.ExitOnError)
	username := fs.String("username", "", "login name")
	active := fs.Bool("active", true, "false disables login and every live session")
	_ = fs.Parse(args)
	if *username == "" {
		fs.PrintDefaults()
		return errors.New("username is required")
	}

	admins, done, err := openAdmins()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := admins.SetActive(ctx, *username, *active); err != nil {
		return notFound(err, *username)
	}
	fmt.Printf("admin %q active=%t\n", *username, *active)
	return nil
}

func setPassword(args []string) error {
	fs := flag.NewFlagSet("set-password", flag.ExitOnError)
	username := fs.String("username", "", "login name")
	password := fs.String("password", "", "new password")
	_ = fs.Parse(args)
	if *username == "" || *password == "" {
		fs.PrintDefaults()
		return errors.New("username and password are required")
	}
	hash, err := utils.HashPassword(*password, config.BcryptCost())
	if err != nil {
		return err
	}

	admins, done, err := openAdmins()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	revoked, err := admins.SetPassword(ctx, *username, hash)
	if err != nil {
		return notFound(err, *username)
	}
	fmt.Printf("password for %q updated, %d session(s) revoked\n", *username, revoked)
	return nil
}

func notFound(err error, username string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("no admin named %q", username)
	}
	return err
}
