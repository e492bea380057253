// Command seed creates a demo pharmacy and its admin account.
// Usage: go run ./cmd/seed -org "Demo Pharmacy" -email admin@pharmacyos.local -password changeme1
package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"pharmacyos/internal/config"
	"pharmacyos/internal/infra"
	"pharmacyos/internal/model"
	"pharmacyos/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	orgName := flag.String("org", "Demo Pharmacy", "organization name")
	email := flag.String("email", "admin@pharmacyos.local", "admin email")
	password := flag.String("password", "changeme1", "admin password")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL, true)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx := context.Background()
	orgs := repository.NewOrganizationRepository(db)
	users := repository.NewUserRepository(db)

	slug := slugify(*orgName)
	org, err := orgs.FindBySlug(ctx, slug)
	switch {
	case repository.IsNotFound(err):
		org = &model.Organization{Name: *orgName, Slug: slug, OwnerEmail: *email, IsActive: true}
		if err := orgs.Create(ctx, org); err != nil {
			log.Fatal().Err(err).Msg("create organization")
		}
		log.Info().Str("org_id", org.ID.String()).Str("slug", slug).Msg("organization created")
	case err != nil:
		log.Fatal().Err(err).Msg("lookup organization")
	}

	addr := strings.ToLower(*email)
	_, err = users.FindByEmail(ctx, addr)
	switch {
	case err == nil:
		log.Info().Str("email", addr).Msg("admin already exists, nothing to do")
		return
	case !repository.IsNotFound(err):
		log.Fatal().Err(err).Msg("lookup user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt")
	}
	admin := &model.User{
		OrganizationID: org.ID,
		Username:       strings.SplitN(addr, "@", 2)[0],
		Email:          addr,
		PasswordHash:   string(hash),
		FullName:       "Administrator",
		Role:           model.RoleAdmin,
		IsActive:       true,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatal().Err(err).Msg("create admin")
	}
	log.Info().Str("email", addr).Str("org_id", org.ID.String()).Msg("admin created")
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
