package main

import (
	"fmt"

	"github.com/jrsteele09/go-control-plane/auth"
	"github.com/jrsteele09/go-control-plane/users"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	adminEmail        string
	adminPassword     string
	adminFirstName    string
	adminLastName     string
	adminRole         string
	adminOrganization string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a privileged user account",
	RunE:  runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "account email (required)")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "account password (required)")
	createAdminCmd.Flags().StringVar(&adminFirstName, "first-name", "", "first name")
	createAdminCmd.Flags().StringVar(&adminLastName, "last-name", "", "last name")
	createAdminCmd.Flags().StringVar(&adminRole, "role", string(users.RoleOwner), "role (CLIENT, SUPPORT, ADMIN, OWNER)")
	createAdminCmd.Flags().StringVar(&adminOrganization, "organization", "", "organization id")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createAdminCmd)
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	role, err := users.ParseRole(adminRole)
	if err != nil {
		return err
	}
	if err := users.ValidatePasswordStrength(adminPassword); err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.db == nil {
		log.Warn().Msg("in-memory repositories: the account will not outlive this command")
	}

	authService, err := a.authService(ctx)
	if err != nil {
		return err
	}
	user, err := authService.Register(ctx, auth.Registration{
		Email:          adminEmail,
		Password:       adminPassword,
		FirstName:      adminFirstName,
		LastName:       adminLastName,
		OrganizationID: adminOrganization,
		Role:           role,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}
