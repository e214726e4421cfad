// Command createadmin seeds an administrator account. The password is read
// from the terminal twice without echo.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/gestcard/internal/common"
	"github.com/dmitrijs2005/gestcard/internal/flagx"
	"github.com/dmitrijs2005/gestcard/internal/logging"
	"github.com/dmitrijs2005/gestcard/internal/prompt"
	"github.com/dmitrijs2005/gestcard/internal/server/auth"
	"github.com/dmitrijs2005/gestcard/internal/server/config"
	"github.com/dmitrijs2005/gestcard/internal/server/models"
	"github.com/dmitrijs2005/gestcard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gestcard/internal/server/services"
	"github.com/dmitrijs2005/gestcard/internal/timex"
)

const defaultAdminEmail = "admin@gestcard.com"

type options struct {
	email string
	name  string
}

func parseOptions(args []string) (options, error) {
	opts := options{}
	fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	fs.StringVar(&opts.email, "email", defaultAdminEmail, "administrator email")
	fs.StringVar(&opts.name, "name", "Administrator", "administrator display name")
	err := fs.Parse(flagx.FilterArgs(args, []string{"-email", "-name"}))
	return opts, err
}

type registrar interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
}

// seed registers the administrator. An existing account is reported and is
// not a failure.
func seed(ctx context.Context, r registrar, opts options, password []byte, out io.Writer) error {
	res, err := r.Register(ctx, services.RegisterInput{
		Email:    opts.email,
		Password: string(password),
		Name:     opts.name,
		Role:     models.RoleAdmin,
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			fmt.Fprintf(out, "Account %s already exists, nothing to do\n", opts.email)
			return nil
		}
		return err
	}
	fmt.Fprintf(out, "Administrator %s created (id %s)\n", res.User.Email, res.User.ID)
	return nil
}

func run(ctx context.Context, cfg *config.Config, opts options, out io.Writer) error {
	logger, err := logging.New(logging.Options{Backend: cfg.LogBackend, Level: "warn"})
	if err != nil {
		return err
	}
	if z, ok := logger.(*logging.ZapLogger); ok {
		defer func() { _ = z.Sync() }()
	}

	password, err := prompt.NewPassword(out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return err
	}

	hasher, err := auth.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  []byte(cfg.SecretKey),
		RefreshSecret: []byte(cfg.RefreshSecretKey),
		AccessTTL:     cfg.AccessTokenValidityDuration,
		RefreshTTL:    cfg.RefreshTokenValidityDuration,
	}, timex.SystemClock{})
	if err != nil {
		return err
	}

	svc := services.NewAuthService(db, m, hasher, issuer, nil, timex.SystemClock{}, cfg.ResetTokenValidityDuration, logger)

	return seed(ctx, svc, opts, password, out)
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg := config.LoadConfig()

	if err := run(context.Background(), cfg, opts, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}
