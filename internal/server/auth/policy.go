package auth

import (
	"fmt"
	"slices"

	"github.com/dmitrijs2005/gestcard/internal/server/models"
)

// RoutePolicy is the access rule attached to one route. A public route skips
// the guard entirely. An empty Roles list on a non-public route only requires
// an authenticated, active account.
type RoutePolicy struct {
	Public bool
	Roles  []models.Role
}

// Authenticated requires a valid token and an active account.
func Authenticated() RoutePolicy {
	return RoutePolicy{}
}

// Public lets every request through without identity.
func Public() RoutePolicy {
	return RoutePolicy{Public: true}
}

// RequireRoles requires an active account holding one of roles.
func RequireRoles(roles ...models.Role) RoutePolicy {
	return RoutePolicy{Roles: slices.Clone(roles)}
}

// Policies maps a route identifier to its policy. Transports resolve every
// route they register once, at startup.
type Policies map[string]RoutePolicy

// Resolve returns the policy for id. Unknown ids are an error rather than a
// silent default.
func (p Policies) Resolve(id string) (RoutePolicy, error) {
	policy, ok := p[id]
	if !ok {
		return RoutePolicy{}, fmt.Errorf("no access policy for route %q", id)
	}
	return policy, nil
}

// MustResolve is Resolve for router construction; it panics on unknown ids.
func (p Policies) MustResolve(id string) RoutePolicy {
	policy, err := p.Resolve(id)
	if err != nil {
		panic(err)
	}
	return policy
}
