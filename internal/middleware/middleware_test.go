package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/trace"
	"github.com/xxxsen/common/webapi"
)

func newEngine(t *testing.T, handlers ...gin.HandlerFunc) http.Handler {
	t.Helper()
	engine, err := webapi.NewEngine("/", "",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			group.GET("/ping", func(c *gin.Context) {
				id, _ := c.Get(ContextRequestIDKey)
				traceID, _ := trace.GetTraceId(c.Request.Context())
				c.String(http.StatusOK, "%v|%s", id, traceID)
			})
		}),
		webapi.WithExtraMiddlewares(handlers...),
	)
	require.NoError(t, err)
	return engine
}

func serve(engine http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestRequestIDMatchesTraceID(t *testing.T) {
	engine := newEngine(t, RequestID())

	resp := serve(engine, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := resp.Header().Get(HeaderRequestID)
	require.NotEmpty(t, generated)
	require.Equal(t, generated+"|"+generated, resp.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "edit-42.a_b")
	resp = serve(engine, req)
	require.Equal(t, "edit-42.a_b", resp.Header().Get(HeaderRequestID))
	require.Equal(t, "edit-42.a_b|edit-42.a_b", resp.Body.String())
}

func TestRequestIDReplacesMalformedID(t *testing.T) {
	engine := newEngine(t, RequestID())
	for _, bad := range []string{"has space", "<script>", strings.Repeat("a", maxRequestIDLength+1)} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(HeaderRequestID, bad)
		resp := serve(engine, req)
		got := resp.Header().Get(HeaderRequestID)
		require.NotEqual(t, bad, got)
		require.True(t, validRequestID(got), got)
		require.Equal(t, got+"|"+got, resp.Body.String())
	}
}

func TestCORSAllowAll(t *testing.T) {
	engine := newEngine(t, CORS(NewOriginPolicy(nil)))
	resp := serve(engine, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, HeaderRequestID, resp.Header().Get("Access-Control-Expose-Headers"))
	require.Empty(t, resp.Header().Get("Vary"))
}

func TestCORSAllowlist(t *testing.T) {
	engine := newEngine(t, CORS(NewOriginPolicy([]string{" http://localhost:3000/ ", ""})))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp := serve(engine, req)
	require.Equal(t, "http://localhost:3000", resp.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", resp.Header().Get("Vary"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp = serve(engine, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, resp.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORSPreflight(t *testing.T) {
	engine := newEngine(t, CORS(NewOriginPolicy([]string{"http://localhost:3000"})))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp := serve(engine, req)
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Equal(t, corsMethods, resp.Header().Get("Access-Control-Allow-Methods"))
	require.Equal(t, corsMaxAge, resp.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp = serve(engine, req)
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestCheckWebSocketOrigin(t *testing.T) {
	policy := NewOriginPolicy([]string{"http://localhost:3000"})
	newReq := func(origin string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "http://cms.local:5000/ws", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		return req
	}
	require.True(t, policy.CheckWebSocketOrigin(newReq("")))
	require.True(t, policy.CheckWebSocketOrigin(newReq("http://localhost:3000")))
	require.True(t, policy.CheckWebSocketOrigin(newReq("http://cms.local:5000")))
	require.False(t, policy.CheckWebSocketOrigin(newReq("http://evil.example")))

	require.True(t, NewOriginPolicy(nil).CheckWebSocketOrigin(newReq("http://evil.example")))
}
