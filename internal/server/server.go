package server

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Rabahbelksier/Offers365/internal/aliexpress"
)

// ProductRequest is the body of POST /api/product.
type ProductRequest struct {
	URL        string `json:"url"`
	AppKey     string `json:"appKey"`
	AppSecret  string `json:"appSecret"`
	TrackingID string `json:"trackingId"`
}

type errorBody struct {
	Message string `json:"message"`
}

var log = logrus.WithField("component", "server")

// Handler builds the API routes for the given pipeline.
func Handler(pipe *aliexpress.Pipeline) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("POST /api/product", func(w http.ResponseWriter, r *http.Request) {
		var req ProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		creds := aliexpress.Credentials{
			AppKey:     req.AppKey,
			AppSecret:  req.AppSecret,
			TrackingID: req.TrackingID,
		}
		resp, err := pipe.Run(r.Context(), req.URL, creds)
		if err != nil {
			if aliexpress.IsBadRequest(err) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			log.WithError(err).Error("pipeline failed")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	return recoverPanics(mux)
}

// recoverPanics is the orchestrator boundary for unexpected failures:
// anything unhandled becomes a 500 with a message instead of a dropped
// connection.
func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithField("panic", rec).Error("recovered from panic")
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("internal error: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Message: msg})
}

// Serve starts the REST API server with optional Bearer token auth.
func Serve(addr, apiKey string, pipe *aliexpress.Pipeline) error {
	var handler http.Handler = Handler(pipe)
	if apiKey != "" {
		handler = bearerAuth(apiKey, handler)
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.WithField("addr", addr).Info("Offers365 API server listening")
	return srv.ListenAndServe()
}

func bearerAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		if auth == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}
		token, found := strings.CutPrefix(auth, "Bearer ")
		if !found || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
