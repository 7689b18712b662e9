package session

import "time"

// Kind names a coordinator operation.
type Kind string

const (
	KindRegister      Kind = "register"
	KindLogin         Kind = "login"
	KindLogout        Kind = "logout"
	KindDeleteAccount Kind = "delete_account"
)

// Kinds lists every operation in display order.
var Kinds = []Kind{KindRegister, KindLogin, KindLogout, KindDeleteAccount}

// State is the lifecycle of one operation kind.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// OperationStatus is what the view shows for an operation kind.
type OperationStatus struct {
	State     State     `json:"state"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Shopper-facing messages.
const (
	MsgFillAllFields      = "Please fill in all the fields."
	MsgRegistered         = "You are now registered!"
	MsgRegisterFailed     = "Registration failed. Please try again."
	MsgGenericFailure     = "An error occurred. Please try again later."
	MsgLoginFailed        = "Login failed. Please check your credentials and try again."
	MsgLoggedOut          = "User successfully logged out!"
	MsgLogoutFailed       = "Logout failed. Please try again."
	MsgAccountDeleted     = "Membership deleted successfully!"
	MsgDeleteFailed       = "Membership could not be deleted. Please try again."
	MsgLoginRequired      = "Please log in to manage your membership."
	welcomeMessagePattern = "Welcome to the member page, %s!"
)
