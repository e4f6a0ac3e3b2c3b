package config

type LicensingConfig interface {
	GetLicenseKeyID() string
	GetDefaultLicenseDays() int
}

type Licensing struct {
	file *fileConfig
}

var _ LicensingConfig = Licensing{}

func (l Licensing) GetLicenseKeyID() string {
	return GetEnv("LICENSE_KEY_ID", l.file.Licensing.KeyID)
}

// GetDefaultLicenseDays is the validity used when a request names none.
func (l Licensing) GetDefaultLicenseDays() int {
	days := l.file.Licensing.DefaultDays
	if days <= 0 {
		days = 365
	}
	return GetEnvInt("LICENSE_DEFAULT_DAYS", days)
}
