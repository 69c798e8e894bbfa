package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/tuanvumaihuynh/catalog-sync/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-sync/internal/http/apierr"
)

const basicAuthRealm = `Basic realm="catalog-sync admin", charset="UTF-8"`

// BasicAuth gates the wrapped routes behind a single operator account whose
// password is stored as a bcrypt hash.
func BasicAuth(username, passwordHash string) func(http.Handler) http.Handler {
	res := apierr.New(apperr.UnauthorizedErr)
	errorMsg, err := json.Marshal(res)
	if err != nil {
		panic(err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || !checkCredentials(username, passwordHash, user, pass) {
				w.Header().Set("WWW-Authenticate", basicAuthRealm)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(res.StatusCode)
				//nolint:errcheck
				w.Write(errorMsg)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func checkCredentials(wantUser, wantHash, user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser)) == 1
	// always run bcrypt so a wrong username costs the same as a wrong password
	passOK := bcrypt.CompareHashAndPassword([]byte(wantHash), []byte(pass)) == nil
	return userOK && passOK
}
