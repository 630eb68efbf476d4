// ABOUTME: Role to section access table for the admin console.
// ABOUTME: Navigation is advisory; the API authorizes every call itself.

package resource

var access = map[string][]Kind{
	"Order Admin":       {Orders},
	"Product Admin":     {Products, Orders},
	"Application Admin": {Users, Products, Orders, FAQ, Unanswered},
	"System Admin":      {Roles, Users, Products, Orders, FAQ, Unanswered},
}

// SectionsFor returns the kinds a role may see, in display order. Unknown
// roles see nothing.
func SectionsFor(role string) []Kind {
	allowed := access[role]
	if len(allowed) == 0 {
		return nil
	}
	out := make([]Kind, 0, len(allowed))
	for _, k := range all {
		for _, a := range allowed {
			if a == k {
				out = append(out, k)
				break
			}
		}
	}
	return out
}

// Allowed reports whether role may see kind.
func Allowed(role string, kind Kind) bool {
	for _, k := range access[role] {
		if k == kind {
			return true
		}
	}
	return false
}
