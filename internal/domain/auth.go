package domain

// TokenVerifier resolves a bearer token to the user it was issued for.
// Implementations must be safe for concurrent use.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}
