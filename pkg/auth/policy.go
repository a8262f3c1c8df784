package auth

import (
	"strings"

	"github.com/sss135790/quick-clinic/internal/model"
)

const (
	LoginPath        = "/auth/login"
	UnauthorizedPath = "/unauthorized"
)

// Rule protects every path under Prefix for a single role.
type Rule struct {
	Prefix string
	Role   model.Role
}

// Policy is the guard table.
type Policy []Rule

var DefaultPolicy = Policy{
	{Prefix: "/admin", Role: model.RoleAdmin},
	{Prefix: "/doctor", Role: model.RoleDoctor},
	{Prefix: "/patient", Role: model.RolePatient},
}

// Decision is either Allow or a redirect target.
type Decision struct {
	Allow    bool
	Redirect string
}

var allow = Decision{Allow: true}

// Evaluate decides a request. claims is nil when the token is missing or invalid.
func (p Policy) Evaluate(path string, claims *Claims) Decision {
	rule, ok := p.match(path)
	if !ok {
		return allow
	}
	if claims == nil {
		return Decision{Redirect: LoginPath}
	}
	if !claims.HasRole(rule.Role) {
		return Decision{Redirect: UnauthorizedPath}
	}
	return allow
}

func (p Policy) match(path string) (Rule, bool) {
	for _, rule := range p {
		if path == rule.Prefix || strings.HasPrefix(path, rule.Prefix+"/") {
			return rule, true
		}
	}
	return Rule{}, false
}
