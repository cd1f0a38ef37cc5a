// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// AdminUserKey is the context key for the authenticated admin name.
	AdminUserKey contextKey = "admin_user"

	csrfTokenKey contextKey = "csrf_token"
)

// BasicAuth protects the admin surface with HTTP Basic credentials. The
// password is checked against a bcrypt hash; the user name is compared in
// constant time.
func BasicAuth(user, passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok || !checkCredentials(user, passwordHash, u, p) {
				if ok {
					slog.Warn("admin auth failed", "user", u, "remote", clientIP(r))
				}
				w.Header().Set("WWW-Authenticate", `Basic realm="admin", charset="UTF-8"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AdminUserKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func checkCredentials(wantUser, hash, user, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(wantUser), []byte(user)) == 1
	// Always run bcrypt so a wrong user name costs the same as a wrong password.
	passOK := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	return userOK && passOK
}

// AdminUserFromCtx returns the authenticated admin name, or "".
func AdminUserFromCtx(ctx context.Context) string {
	u, _ := ctx.Value(AdminUserKey).(string)
	return u
}

// ServiceToken guards internal endpoints with a shared bearer token.
func ServiceToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"message":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
