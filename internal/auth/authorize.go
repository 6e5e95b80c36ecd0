package auth

type Verdict string

const (
	Authorized   Verdict = "authorized"
	Unauthorized Verdict = "unauthorized"
)

// Decision is the result of a capability check.
type Decision struct {
	Verdict Verdict
	Reason  string
}

func (d Decision) Allowed() bool {
	return d.Verdict == Authorized
}

// Authorize checks that s holds role. Every administrative operation calls it
// before touching storage.
func Authorize(s *Session, role string) Decision {
	if s == nil || s.UserID == "" {
		return Decision{Verdict: Unauthorized, Reason: "you must be signed in"}
	}
	if role == RoleAdmin && !s.IsAdmin() {
		return Decision{Verdict: Unauthorized, Reason: "you must be an admin"}
	}
	return Decision{Verdict: Authorized}
}
