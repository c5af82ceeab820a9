package config

import "os"

// Profile returns the deployment profile, PROD or DEMO. DEMO is the
// default and relaxes the self-approval rules while suffixing role
// names with "_demo".
func Profile() string {
	if p := os.Getenv("PROFILE"); p != "" {
		return p
	}
	return "DEMO"
}

func IsProd() bool {
	return Profile() == "PROD"
}

// RoleName maps a canonical role name to the profile-specific one the
// identity provider issues.
func RoleName(role string) string {
	if IsProd() {
		return role
	}
	return role + "_demo"
}
