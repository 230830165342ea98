package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/storefront/internal/auth"
	authPostgres "github.com/frahmantamala/storefront/internal/auth/postgres"
	itemDatamodel "github.com/frahmantamala/storefront/internal/core/datamodel/item"
	"github.com/frahmantamala/storefront/internal/core/permission"
	itemPostgres "github.com/frahmantamala/storefront/internal/item/postgres"
	"github.com/frahmantamala/storefront/internal/user"
	userPostgres "github.com/frahmantamala/storefront/internal/user/postgres"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	seedPassword string
	seedItems    bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed an administrator holding every permission, a plain shopper and a few catalog items.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		lg := setupLogger(cfg)

		db, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer db.Close()
		gormDB, err := initGorm(db)
		if err != nil {
			return fmt.Errorf("failed to init gorm: %w", err)
		}

		ctx := context.Background()
		users := authPostgres.NewRepository(gormDB)
		grants := userPostgres.NewPostgresRepo(db)
		hasher := auth.NewBcryptHasher(cfg.Security.BCryptCost)

		admin, err := ensureUser(ctx, users, grants, hasher, "admin@storefront.local", "Store Admin", permission.All())
		if err != nil {
			return err
		}
		lg.Info("seeded admin user", "email", admin.Email, "permissions", permission.Strings(admin.Permissions))

		shopper, err := ensureUser(ctx, users, grants, hasher, "shopper@storefront.local", "Shopper", []permission.Permission{permission.User})
		if err != nil {
			return err
		}
		lg.Info("seeded shopper user", "email", shopper.Email)

		if !seedItems {
			return nil
		}

		items := itemPostgres.NewItemRepository(gormDB)
		catalog := []itemDatamodel.Item{
			{Title: "Fleece Hoodie", Description: "Heavyweight fleece with a kangaroo pocket", Price: 6500},
			{Title: "Canvas Tote", Description: "Sturdy tote for the daily haul", Price: 1800},
			{Title: "Enamel Mug", Description: "Camp mug that survives the dishwasher", Price: 1200},
		}
		for i := range catalog {
			it := catalog[i]
			it.ID = uuid.NewString()
			it.UserID = admin.ID
			if err := items.Create(ctx, &it); err != nil {
				return fmt.Errorf("failed to seed item %q: %w", it.Title, err)
			}
			lg.Info("seeded item", "id", it.ID, "title", it.Title)
		}
		return nil
	},
}

// ensureUser creates the account when missing and otherwise resets its grants to perms.
func ensureUser(ctx context.Context, users auth.UserRepository, grants user.Repository, hasher auth.PasswordHasher, email, name string, perms []permission.Permission) (*auth.User, error) {
	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := grants.ReplacePermissions(ctx, existing.ID, perms); err != nil {
			return nil, fmt.Errorf("failed to grant permissions to %s: %w", email, err)
		}
		existing.Permissions = perms
		return existing, nil
	case !errors.Is(err, auth.ErrNotFound):
		return nil, fmt.Errorf("failed to look up %s: %w", email, err)
	}

	hash, err := hasher.Hash(seedPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}
	u := &auth.User{Email: email, Name: name, PasswordHash: hash, Permissions: perms}
	if err := users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", email, err)
	}
	return u, nil
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "password123", "Password given to seeded accounts")
	seedCmd.Flags().BoolVar(&seedItems, "items", true, "Also seed catalog items")
}
