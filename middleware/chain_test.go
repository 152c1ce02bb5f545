package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsroute/fsroute/middleware"
)

func tag(name string, log *[]string) middleware.Middleware {
	return func(next middleware.HandlerFunc) middleware.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			*log = append(*log, name)
			return next(w, r)
		}
	}
}

func TestChain_Order(t *testing.T) {
	var log []string

	chain := middleware.NewChain(tag("first", &log), tag("second", &log))
	chain = chain.Append(tag("third", &log))

	h := chain.Then(func(w http.ResponseWriter, r *http.Request) error {
		log = append(log, "handler")
		return nil
	})

	rec := httptest.NewRecorder()
	require.NoError(t, h(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, []string{"first", "second", "third", "handler"}, log)
}

func TestChain_AppendDoesNotMutateOriginal(t *testing.T) {
	var log []string

	base := middleware.NewChain(tag("base", &log))
	extended := base.Append(tag("extra", &log))

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, extended.Len())
}

func TestChain_NilHandler(t *testing.T) {
	chain := middleware.NewChain()
	h := chain.Then(nil)

	rec := httptest.NewRecorder()
	assert.NoError(t, h(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
}
