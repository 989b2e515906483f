package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
)

// AccountHeader is the request header carrying the caller's Dota 2 account ID.
const AccountHeader = "X-Account-ID"

type accountIDKey struct{}

// RequireAccount parses the X-Account-ID header into the request context.
// Requests without a valid positive account ID are rejected with 400 before
// reaching any handler.
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(AccountHeader)
		if raw == "" {
			writeAccountError(w, "missing "+AccountHeader+" header")
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeAccountError(w, AccountHeader+" must be a positive integer")
			return
		}
		ctx := context.WithValue(r.Context(), accountIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccountFromContext extracts the account ID placed by RequireAccount.
func AccountFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(accountIDKey{}).(int64)
	return id, ok
}

func writeAccountError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":    http.StatusBadRequest,
		"message": msg,
	})
}
