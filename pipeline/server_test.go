package pipeline

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.miragespace.co/typebridge/compiler"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T, stub *stubTranspiler, files map[string]string) *Server {
	t.Helper()

	src := writeSourceTree(t, files)
	builder := newTestBuilder(t, stub, src, "", NewCache())
	return NewServer(zaptest.NewLogger(t), builder)
}

func TestServerCompilesOnDemand(t *testing.T) {
	as := require.New(t)

	stub := &stubTranspiler{result: compiler.Result{Code: "compiled"}}
	server := newTestServer(t, stub, map[string]string{"app.ts": "const x = 1;"})

	req := httptest.NewRequest(http.MethodGet, "http://test/app.js", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	as.Equal(http.StatusOK, w.Result().StatusCode)
	body, err := io.ReadAll(w.Result().Body)
	as.NoError(err)
	as.Equal("compiled\n", string(body))
	as.Contains(w.Result().Header.Get("Content-Type"), "javascript")
}

func TestServerServesSourceMap(t *testing.T) {
	as := require.New(t)

	stub := &stubTranspiler{result: compiler.Result{
		Code:      "compiled",
		SourceMap: `{"version":3,"sources":["x"],"mappings":"AAAA"}`,
	}}
	server := newTestServer(t, stub, map[string]string{"app.ts": "const x = 1;"})

	req := httptest.NewRequest(http.MethodGet, "http://test/app.js", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	as.Equal(http.StatusOK, w.Result().StatusCode)
	body, err := io.ReadAll(w.Result().Body)
	as.NoError(err)
	as.Contains(string(body), "//# sourceMappingURL=app.js.map")

	req = httptest.NewRequest(http.MethodGet, "http://test/app.js.map", nil)
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)

	as.Equal(http.StatusOK, w.Result().StatusCode)
	body, err = io.ReadAll(w.Result().Body)
	as.NoError(err)
	as.Contains(string(body), `"app.ts"`)
	as.Contains(w.Result().Header.Get("Content-Type"), "json")
}

func TestServerNotFound(t *testing.T) {
	as := require.New(t)

	stub := &stubTranspiler{result: compiler.Result{Code: "compiled"}}
	server := newTestServer(t, stub, map[string]string{
		"app.ts":      "const x = 1;",
		"vendor/v.ts": "const v = 2;",
	})

	for _, path := range []string{
		"/missing.js",
		"/vendor/v.js",
		"/app.ts",
		"/",
	} {
		req := httptest.NewRequest(http.MethodGet, "http://test"+path, nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		as.Equal(http.StatusNotFound, w.Result().StatusCode, "path %s", path)
	}
}

func TestServerCompileFailure(t *testing.T) {
	as := require.New(t)

	stub := &stubTranspiler{result: compiler.Result{
		Diagnostics: []compiler.Diagnostic{
			{Code: 7006, Message: "implicit any", Start: -1},
		},
	}}
	server := newTestServer(t, stub, map[string]string{"app.ts": "bad"})

	req := httptest.NewRequest(http.MethodGet, "http://test/app.js", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	as.Equal(http.StatusInternalServerError, w.Result().StatusCode)
	body, err := io.ReadAll(w.Result().Body)
	as.NoError(err)
	as.Contains(string(body), "Error 7006")
}
