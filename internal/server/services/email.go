package services

import "strings"

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailPolicy is the registration/login domain allow-list. An empty list
// allows every domain.
type EmailPolicy struct {
	domains map[string]struct{}
}

func NewEmailPolicy(domains []string) EmailPolicy {
	p := EmailPolicy{}
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "@")
		if d == "" {
			continue
		}
		if p.domains == nil {
			p.domains = make(map[string]struct{})
		}
		p.domains[d] = struct{}{}
	}
	return p
}

func (p EmailPolicy) Allowed(email string) bool {
	if len(p.domains) == 0 {
		return true
	}
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	_, ok := p.domains[strings.ToLower(email[at+1:])]
	return ok
}
