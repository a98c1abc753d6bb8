// Package common defines shared sentinel errors used across the service
// layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (

	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// service specific errors
	ErrorInternal = errors.New("internal error")

	// registration conflicts on the unique user identifiers
	ErrorEmailTaken    = errors.New("email already registered")
	ErrorUsernameTaken = errors.New("username already taken")

	// auth errors
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorAccountInactive    = errors.New("account is inactive")

	// token lifecycle errors; both reject the token, callers do not
	// branch beyond logging
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)
