package domain

// AuthState distinguishes a fresh guest from a member who has logged out.
type AuthState string

const (
	AuthUnauthenticated AuthState = "unauthenticated"
	AuthAuthenticated   AuthState = "authenticated"
	AuthLoggedOut       AuthState = "logged_out"
)

// Session is the identity of the current shopper.
//
// DiscountPercent > 0 only while State is AuthAuthenticated. AccessToken is
// empty whenever State is not AuthAuthenticated.
type Session struct {
	UserID          string    `json:"user_id,omitempty"`
	Username        string    `json:"username,omitempty"`
	AccessToken     string    `json:"-"`
	DiscountPercent int       `json:"discount_percent"`
	State           AuthState `json:"state"`
}

// IsGuest reports whether no member is logged in.
func (s *Session) IsGuest() bool {
	return s == nil || s.State != AuthAuthenticated
}

// Discount returns the effective discount, 0 for guests.
func (s *Session) Discount() int {
	if s.IsGuest() {
		return 0
	}
	return s.DiscountPercent
}
