package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("X-Powered-By", "Express")
		_, _ = w.Write([]byte("<html><body><h1>Acme</h1></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Acme</h1>")
	assert.Equal(t, "Express", result.Headers.Get("X-Powered-By"))
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.NotNil(t, result) // Result is returned even on error
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
}

func TestHead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	status, err := Head(context.Background(), server.URL+"/login", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, err = Head(context.Background(), server.URL+"/nope", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHTMLToText(t *testing.T) {
	html := `<html><head><script>var x = 1;</script><style>.a{}</style></head>
	<body><h1>Acme   Corp</h1>
	<p>Identity   and security platform.</p></body></html>`

	text, err := HTMLToText(html)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp Identity and security platform.", text)
	assert.NotContains(t, text, "var x")
}
