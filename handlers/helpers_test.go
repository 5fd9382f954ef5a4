package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/upb/readers-hub/config"
	"github.com/upb/readers-hub/middleware"
	"github.com/upb/readers-hub/services/authz"
	"github.com/upb/readers-hub/utils"
)

var testPagination = config.PaginationConfig{DefaultPageSize: 5, MaxPageSize: 100}

// newRouter mounts routes behind a stub that authenticates as actor, if set
func newRouter(actor *authz.Actor, mount func(r chi.Router)) http.Handler {
	r := chi.NewRouter()
	if actor != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithActor(req.Context(), *actor)))
			})
		})
	}
	mount(r)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	body := struct {
		Data interface{} `json:"data"`
	}{Data: dst}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var resp utils.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func actorPtr(a authz.Actor) *authz.Actor { return &a }
