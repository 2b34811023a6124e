package authUtils

import (
	"strings"

	"civictrack-be/models"
)

// govDomains is the single list of government email domains. Accounts on one
// of these domains, or on a subdomain of one, are classified as authorities.
var govDomains = newDomainSet(
	"gov.in", "nic.in", "mcgm.gov.in", "bmc.gov.in", "mcd.gov.in",
	"dda.org.in", "ndmc.gov.in", "bbmp.gov.in", "ghmc.gov.in",
	"pune.gov.in", "pcmc.gov.in", "kolkatamycity.com", "kmcgov.in",
	"chennaicorporation.gov.in", "amc.gov.in", "smc.gov.in", "imc.gov.in",
)

type domainSet map[string]struct{}

func newDomainSet(domains ...string) domainSet {
	set := make(domainSet, len(domains))
	for _, d := range domains {
		set[d] = struct{}{}
	}
	return set
}

// matches walks the domain and each of its parent domains, so "x.gov.in"
// is checked as "x.gov.in", "gov.in" and "in".
func (s domainSet) matches(domain string) bool {
	for domain != "" {
		if _, ok := s[domain]; ok {
			return true
		}
		dot := strings.IndexByte(domain, '.')
		if dot < 0 {
			return false
		}
		domain = domain[dot+1:]
	}
	return false
}

// EmailDomain returns the lower-cased part of email after the first '@'.
func EmailDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(parts[1]))
}

// DetectRole classifies an account by its email domain.
func DetectRole(email string) models.UserRole {
	domain := EmailDomain(email)
	if domain == "" {
		return models.RoleCitizen
	}
	if govDomains.matches(domain) {
		return models.RoleAuthority
	}
	return models.RoleCitizen
}
