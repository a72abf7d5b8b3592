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
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Test</h1>")
	assert.Equal(t, "text/html", result.ContentType)
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestURL_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.NotNil(t, result) // Result is returned even on error

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.True(t, fetchErr.NotFound())
}

func TestHead_StatusAndContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	status, contentType, err := Head(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, contentType, "text/html")
}

func TestHead_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // force connection refused

	_, _, err := Head(context.Background(), server.URL, nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
}

func TestRenderURL(t *testing.T) {
	rendered, err := RenderURL("http://splash:8050", "https://example.com/docs?page=1")
	require.NoError(t, err)
	assert.Contains(t, rendered, "http://splash:8050/render.html")
	assert.Contains(t, rendered, "url=https%3A%2F%2Fexample.com%2Fdocs%3Fpage%3D1")
	assert.Contains(t, rendered, "wait=0.5")
}

func TestExtractMainText_PrefersMainContent(t *testing.T) {
	html := `
	<html>
		<body>
			<nav>Navigation</nav>
			<main>
				<h1>Main Content</h1>
				<p>This is the important text.</p>
			</main>
			<footer>Footer</footer>
		</body>
	</html>`

	text, err := ExtractMainText(html)
	require.NoError(t, err)
	assert.Contains(t, text, "Main Content")
	assert.Contains(t, text, "important text")
	assert.NotContains(t, text, "Navigation")
	assert.NotContains(t, text, "Footer")
}

func TestExtractMainText_FallsBackToBody(t *testing.T) {
	html := `<html><body><p>Bare paragraph.</p></body></html>`

	text, err := ExtractMainText(html)
	require.NoError(t, err)
	assert.Equal(t, "Bare paragraph.", text)
}

func TestExtractMainText_EmptyPage(t *testing.T) {
	text, err := ExtractMainText(`<html><body><script>var x = 1;</script></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, text)
}
