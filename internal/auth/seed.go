package auth

import (
	"context"
	"strings"

	"timestudy/internal"
	"timestudy/internal/errors"
	"timestudy/models"
	"timestudy/ports"
)

// SeedResult summarizes a SeedAdmins run
type SeedResult struct {
	DeletedCompanies int64    `json:"deleted_companies"`
	Admins           []string `json:"admins"`
}

// SeedAdmins deletes every company, with everything it owns, and then creates one
// company and one admin per badge. The admin's name is the badge itself.
func SeedAdmins(ctx context.Context, companies ports.CompanyRepository, users ports.UserRepository, badges []string) (*SeedResult, error) {
	logger := internal.DefaultLogger.Named("SeedAdmins")

	var unique []string
	seen := make(map[string]struct{}, len(badges))
	for _, badge := range badges {
		badge = strings.TrimSpace(badge)
		if badge == "" {
			continue
		}
		if _, dup := seen[badge]; dup {
			continue
		}
		seen[badge] = struct{}{}
		unique = append(unique, badge)
	}
	if len(unique) == 0 {
		return nil, errors.ValidationError("at least one badge id is required")
	}

	deleted, err := companies.DeleteAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to delete companies")
	}
	logger.Info("Deleted %d companies", deleted)

	result := &SeedResult{DeletedCompanies: deleted}
	for _, badge := range unique {
		company := &models.Company{Name: badge + " Company"}
		if err := companies.Create(ctx, company); err != nil {
			return result, errors.Wrapf(err, "failed to create company for %s", badge)
		}

		admin := &models.User{
			BadgeID:   badge,
			Name:      badge,
			Role:      models.RoleAdmin,
			CompanyID: company.ID,
		}
		if err := users.Create(ctx, admin, nil); err != nil {
			return result, errors.Wrapf(err, "failed to create admin %s", badge)
		}
		result.Admins = append(result.Admins, badge)
		logger.Info("Created company %q and admin %q", company.Name, badge)
	}
	return result, nil
}
