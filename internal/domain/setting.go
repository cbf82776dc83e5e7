package domain

// Setting is a named organization-level configuration value.
type Setting struct {
	ID    int64
	Name  string
	Value string
}

// Names of the settings seeded on first start.
const (
	SettingOrganizationName      = "OrganizationName"
	SettingOrganizationAddress   = "OrganizationAddress"
	SettingOrganizationEmail     = "OrganizationEmail"
	SettingOrganizationTelephone = "OrganizationTelephone"
)
