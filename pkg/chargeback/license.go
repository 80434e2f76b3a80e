package chargeback

import "strings"

// LicensedService reports whether serviceName begins with one of the
// configured licensed-service entries.
//
// Entries are matched exactly as parsed from the config file: a list
// member written as "- foo" is compared as "- foo", leading marker and
// all, and will therefore never prefix-match a service named "foo".
// Callers that want marker-free matching must strip the marker themselves.
func LicensedService(serviceName string, licensed []string) bool {
	for _, entry := range licensed {
		if strings.HasPrefix(serviceName, entry) {
			return true
		}
	}
	return false
}
