package shared

import "errors"

var (
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials indicates login failure. Unknown email and wrong
	// password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthenticated indicates no credential was presented.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidToken indicates a token that failed signature or expiry checks.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnknownAccount indicates a valid token referencing a deleted account.
	ErrUnknownAccount = errors.New("account no longer exists")
	// ErrSuspended indicates the account is suspended.
	ErrSuspended = errors.New("account suspended")
	// ErrForbidden indicates the caller lacks the required role or permission.
	ErrForbidden = errors.New("forbidden")
	// ErrSelfDemotion indicates an admin attempting to remove their own admin role.
	ErrSelfDemotion = errors.New("admins cannot change their own role")
	// ErrSelfDeletion indicates an account attempting to delete itself.
	ErrSelfDeletion = errors.New("cannot delete own account")
	// ErrInvalidRole indicates a role outside the known set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyPurchased indicates a repeated purchase of the same post.
	ErrAlreadyPurchased = errors.New("post already purchased")
	// ErrOwnPost indicates a purchase attempt on the caller's own post.
	ErrOwnPost = errors.New("cannot purchase own post")
)
