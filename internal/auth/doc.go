// Package auth resolves the account a request acts for.
//
// It supports two modes:
//   - "none": every request runs as the default local account (default)
//   - "token": API clients send "Authorization: Bearer <token>"; the token is
//     looked up in the users table by its SHA-256 digest
//
// # Configuration
//
//	AUTH_MODE=none                    # Default, single local account
//	AUTH_MODE=token                   # Tokens issued by "create-user"
//	DEFAULT_USER_NAME=local           # Account used in "none" mode
//	DEFAULT_USER_EMAIL=local@localhost
//
// # Usage
//
//	mw := auth.NewMiddleware(usersRepo, cfg.Auth.Mode, defaultUser.ID)
//	router.Use(mw.Handler())
//
// Extract the account in handlers:
//
//	userID := auth.GetUserID(c)
package auth
