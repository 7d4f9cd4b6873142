package main

import (
	"context"
	"errors"
	"time"

	"cropadvisor/models"
	"cropadvisor/store"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var seedFlags struct {
	email, password, name string
	admin                 bool
}

var seedCmd = &cobra.Command{
	Use:   "seed-demo",
	Short: "Create the demo account if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		st, err := store.Open(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return err
		}
		defer st.Close(context.Background())
		if err := st.EnsureIndexes(ctx); err != nil {
			return err
		}

		u, err := demoUser(seedFlags.name, seedFlags.email, seedFlags.password, seedFlags.admin, time.Now().UTC())
		if err != nil {
			return err
		}
		switch err := st.Users.Create(ctx, u); {
		case errors.Is(err, store.ErrDuplicate):
			zap.L().Info("demo account already exists", zap.String("email", u.Email))
		case err != nil:
			return err
		default:
			zap.L().Info("demo account created", zap.String("email", u.Email), zap.String("role", string(u.Role)))
		}
		return nil
	},
}

func demoUser(name, email, password string, admin bool, now time.Time) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, eris.Wrap(err, "seed: hash password")
	}
	role := models.RoleFarmer
	if admin {
		role = models.RoleAdmin
	}
	return &models.User{
		Name:          name,
		Email:         email,
		PasswordHash:  string(hash),
		EmailVerified: true,
		Location:      models.DefaultLocation,
		Role:          role,
		IsActive:      true,
		LastLogin:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func init() {
	f := seedCmd.Flags()
	f.StringVar(&seedFlags.email, "email", "demo@farmer.com", "account email")
	f.StringVar(&seedFlags.password, "password", "demo123", "account password")
	f.StringVar(&seedFlags.name, "name", "Demo Farmer", "display name")
	f.BoolVar(&seedFlags.admin, "admin", false, "create the account with the admin role")
	rootCmd.AddCommand(seedCmd)
}
