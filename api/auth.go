package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net"
	"net/http"
)

const authRealm = `Basic realm="bouncer"`

// AuthenticationMiddleware guards the status API. Requests from hosts
// outside the allow-list are refused outright. When credentials are
// configured the request must carry basic auth whose password hashes
// (sha256, hex) to the configured value.
func (g *Gateway) AuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.allowedHost(r.RemoteAddr) {
			log.Warningf("Refused status API request from %s", r.RemoteAddr)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if g.config.Username != "" && g.config.Password != "" && !g.validCredentials(r) {
			w.Header().Set("WWW-Authenticate", authRealm)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gateway) allowedHost(remoteAddr string) bool {
	if len(g.config.AllowedIPs) == 0 {
		return true
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return g.config.AllowedIPs[host]
}

func (g *Gateway) validCredentials(r *http.Request) bool {
	username, password, ok := r.BasicAuth()
	if !ok {
		return false
	}
	h := sha256.Sum256([]byte(password))
	hashed := hex.EncodeToString(h[:])

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.config.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(hashed), []byte(g.config.Password)) == 1
	return userOK && passOK
}

// CORSAllowAllOriginsMiddleware lets browser dashboards on any origin
// read the status API. Preflight requests are answered here.
func (g *Gateway) CORSAllowAllOriginsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
