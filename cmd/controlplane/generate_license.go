package main

import (
	"fmt"

	"github.com/jrsteele09/go-control-plane/internal/config"
	"github.com/jrsteele09/go-control-plane/licensing"
	"github.com/spf13/cobra"
)

var (
	licenseTier         string
	licenseOrganization string
	licenseDays         int
)

var generateLicenseCmd = &cobra.Command{
	Use:   "generate-license",
	Short: "Issue a signed license key",
	RunE:  runGenerateLicense,
}

func init() {
	generateLicenseCmd.Flags().StringVar(&licenseTier, "tier", string(licensing.TierCommunity), "license tier (COMMUNITY, PREMIUM, ENTERPRISE)")
	generateLicenseCmd.Flags().StringVar(&licenseOrganization, "organization", "", "organization id to bind the license to")
	generateLicenseCmd.Flags().IntVar(&licenseDays, "days", 0, "validity in days (defaults to the configured license duration)")
	rootCmd.AddCommand(generateLicenseCmd)
}

func runGenerateLicense(cmd *cobra.Command, args []string) error {
	tier, err := licensing.ParseTier(licenseTier)
	if err != nil {
		return err
	}
	days := licenseDays
	if !cmd.Flags().Changed("days") {
		days = cfg.GetDefaultLicenseDays()
	}
	if err := licensing.CheckValidityDays(days); err != nil {
		return fmt.Errorf("--days: %w", err)
	}

	secrets, err := config.NewSecretSource(cfg)
	if err != nil {
		return err
	}
	codec, err := loadCodec(cmd.Context(), cfg, secrets)
	if err != nil {
		return err
	}
	licenseKey, err := codec.Issue(tier, licenseOrganization, days)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), licenseKey)
	return nil
}
