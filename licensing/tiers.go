package licensing

import (
	"fmt"
	"strings"
)

// Tier is a commercial license level.
type Tier string

const (
	TierCommunity  Tier = "COMMUNITY"
	TierPremium    Tier = "PREMIUM"
	TierEnterprise Tier = "ENTERPRISE"
)

// Feature names granted by licenses.
const (
	FeatureSitesCreate        = "sites:create"
	FeatureSitesManage        = "sites:manage"
	FeatureDatabasesCreate    = "databases:create"
	FeatureDatabasesManage    = "databases:manage"
	FeatureSSLBasic           = "ssl:basic"
	FeatureSupportBasic       = "support:basic"
	FeatureBackupsAutomated   = "backups:automated"
	FeatureBackupsS3          = "backups:s3"
	FeatureMonitoringAdvanced = "monitoring:advanced"
	FeatureServersMultiple    = "servers:multiple"
	FeatureSSLWildcard        = "ssl:wildcard"
	FeatureSupportPriority    = "support:priority"
	FeatureWhiteLabel         = "white-label"
	FeatureCustomBranding     = "custom-branding"
	FeatureAPIUnlimited       = "api:unlimited"
	FeatureSupportDedicated   = "support:dedicated"
)

var communityFeatures = []string{
	FeatureSitesCreate,
	FeatureSitesManage,
	FeatureDatabasesCreate,
	FeatureDatabasesManage,
	FeatureSSLBasic,
	FeatureSupportBasic,
}

var premiumFeatures = append(append([]string{}, communityFeatures...),
	FeatureBackupsAutomated,
	FeatureBackupsS3,
	FeatureMonitoringAdvanced,
	FeatureServersMultiple,
	FeatureSSLWildcard,
	FeatureSupportPriority,
)

var enterpriseFeatures = append(append([]string{}, premiumFeatures...),
	FeatureWhiteLabel,
	FeatureCustomBranding,
	FeatureAPIUnlimited,
	FeatureSupportDedicated,
)

var tierFeatures = map[Tier][]string{
	TierCommunity:  communityFeatures,
	TierPremium:    premiumFeatures,
	TierEnterprise: enterpriseFeatures,
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierFeatures[t]
	return ok
}

// ParseTier converts a case-insensitive tier name into a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}

// FeaturesFor returns a copy of the feature list granted by tier, or nil for
// an unknown tier.
func FeaturesFor(tier Tier) []string {
	features, ok := tierFeatures[tier]
	if !ok {
		return nil
	}
	return append([]string(nil), features...)
}
