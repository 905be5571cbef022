/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/netvoya/backend/config"
	"github.com/netvoya/backend/internal/db"
	"github.com/netvoya/backend/internal/services"
	"github.com/netvoya/backend/internal/store"
	"github.com/spf13/cobra"
)

const (
	adminUsername  = "admin"
	adminEmail     = "admin@netvoya.com"
	adminPassword  = "admin123"
	adminFirstName = "System"
	adminLastName  = "Admin"

	resetPasswordLength  = 20
	resetPasswordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"
)

// createAdminCmd seeds the administrative account.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the admin account if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer dbConn.Close()

		users := services.NewUserService(store.NewUserRepository(dbConn), nil)
		admin, created, err := users.SeedAdmin(cmd.Context(), adminUsername, adminEmail, adminPassword, adminFirstName, adminLastName)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}

		if !created {
			fmt.Printf("Admin user already exists.\n  Email: %s\n  (Password is unchanged)\n", admin.Email)
			return nil
		}
		fmt.Printf("Admin user created successfully.\n  Email:    %s\n  Password: %s\n", adminEmail, adminPassword)
		return nil
	},
}

// resetAdminPasswordCmd sets a fresh random password on the admin account
// and prints it once.
var resetAdminPasswordCmd = &cobra.Command{
	Use:   "reset-admin-password",
	Short: "Reset the admin password to a random value",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer dbConn.Close()

		newPassword, err := randomPassword(resetPasswordLength)
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}

		users := services.NewUserService(store.NewUserRepository(dbConn), nil)
		if err := users.ResetPassword(cmd.Context(), adminEmail, newPassword); err != nil {
			return fmt.Errorf("reset password: %w", err)
		}

		fmt.Printf("Admin password reset successfully.\n  Email:    %s\n  Password: %s\n", adminEmail, newPassword)
		fmt.Println("Save this password now. It will not be shown again.")
		return nil
	},
}

func randomPassword(length int) (string, error) {
	charsetLen := big.NewInt(int64(len(resetPasswordCharset)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		buf[i] = resetPasswordCharset[n.Int64()]
	}
	return string(buf), nil
}

func init() {
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(resetAdminPasswordCmd)
}
