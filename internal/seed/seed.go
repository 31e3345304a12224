// Package seed inserts the default categories and the optional admin account.
package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/ecosphere/internal/app/models"
	appRepos "github.com/yigit/ecosphere/internal/app/repositories"
	"github.com/yigit/ecosphere/internal/config"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/auth"
	"github.com/yigit/ecosphere/internal/pkg/slug"
)

// DefaultCategory describes one seeded marketplace category
type DefaultCategory struct {
	Name        string
	Description string
	Icon        string
}

// DefaultCategories are created on first start
var DefaultCategories = []DefaultCategory{
	{Name: "Plastics", Description: "PET bottles, HDPE containers, plastic film and offcuts", Icon: "fa-bottle-water"},
	{Name: "Metals", Description: "Scrap iron, aluminium cans, copper wire", Icon: "fa-gears"},
	{Name: "Paper & Cardboard", Description: "Office paper, newspapers, cartons", Icon: "fa-box"},
	{Name: "Glass", Description: "Bottles, jars and cullet", Icon: "fa-wine-bottle"},
	{Name: "E-waste", Description: "Phones, computers, batteries and cables", Icon: "fa-microchip"},
	{Name: "Organic", Description: "Food waste, compost and agricultural residue", Icon: "fa-leaf"},
	{Name: "Textiles", Description: "Used clothing, fabric scraps and fibres", Icon: "fa-shirt"},
}

// CreateDefaultData creates the default categories and, when configured, the
// admin user. Existing rows are left alone so it can run on every start.
func CreateDefaultData(ctx context.Context, repos *appRepos.Repositories, cfg *config.Config, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (categories/admin)...")
	var finalErr error // collect errors without stopping the process

	for _, dc := range DefaultCategories {
		description, icon := dc.Description, dc.Icon
		category := &appModels.Category{
			Name:        dc.Name,
			Slug:        slug.Make(dc.Name),
			Description: &description,
			Icon:        &icon,
			IsActive:    true,
		}
		inserted, err := repos.CategoryRepository.Ensure(ctx, category)
		if err != nil {
			lgr.Error().Err(err).Str("category", dc.Name).Msg("Error creating category")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		if inserted {
			lgr.Info().Str("category", dc.Name).Str("slug", category.Slug).Msg("Category created")
		}
	}

	if err := createAdmin(ctx, repos.UserRepository, cfg, lgr); err != nil {
		finalErr = errors.Join(finalErr, err)
	}

	return finalErr
}

func createAdmin(ctx context.Context, userRepo *appRepos.UserRepository, cfg *config.Config, lgr zerolog.Logger) error {
	if cfg.Seed.AdminEmail == "" || cfg.Seed.AdminPassword == "" {
		lgr.Debug().Msg("No admin credentials configured, skipping admin user")
		return nil
	}

	exists, err := userRepo.EmailExists(ctx, cfg.Seed.AdminEmail)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return err
	}
	if exists {
		return nil
	}

	username := cfg.Seed.AdminUsername
	if username == "" {
		username = "admin"
	}

	hashedPassword, err := auth.HashPassword(cfg.Seed.AdminPassword)
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing admin password")
		return err
	}

	admin := &appModels.User{
		Username:   username,
		Email:      cfg.Seed.AdminEmail,
		Password:   hashedPassword,
		Role:       appModels.RoleAdmin,
		IsVerified: true,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, apperrors.ErrUsernameAlreadyExists) || errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			lgr.Warn().Str("username", username).Msg("Admin username already taken, skipping admin user")
			return nil
		}
		lgr.Error().Err(err).Msg("Error creating admin user")
		return err
	}

	lgr.Info().Int64("userID", admin.ID).Str("username", username).Msg("Default admin user created")
	return nil
}
