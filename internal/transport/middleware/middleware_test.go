package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func TestMiddleware(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Transport Middleware Suite")
}

var _ = ginkgo.Describe("RequestLogging", func() {
	var buf *bytes.Buffer
	var handler http.Handler

	ginkgo.BeforeEach(func() {
		buf = &bytes.Buffer{}
		lg := slog.New(slog.NewJSONHandler(buf, nil))
		handler = RequestLogging(lg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.Copy(io.Discard, r.Body)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"ok":true}`))
		}))
	})

	ginkgo.It("masks credential fields in the request body", func() {
		body := strings.NewReader(`{"user_name":"alice","password":"hunter22"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		logged := buf.String()
		gomega.Expect(logged).To(gomega.ContainSubstring("alice"))
		gomega.Expect(logged).To(gomega.ContainSubstring("[REDACTED]"))
		gomega.Expect(logged).NotTo(gomega.ContainSubstring("hunter22"))
	})

	ginkgo.It("leaves the body readable for the handler", func() {
		var seen string
		inner := RequestLogging(slog.New(slog.NewJSONHandler(buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			seen = string(b)
		}))

		req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"first_name":"Alice"}`))
		inner.ServeHTTP(httptest.NewRecorder(), req)

		gomega.Expect(seen).To(gomega.Equal(`{"first_name":"Alice"}`))
	})

	ginkgo.It("passes a body larger than the logging cap through intact", func() {
		payload := bytes.Repeat([]byte("a"), 2*maxLoggedBody)
		var seen int
		inner := RequestLogging(slog.New(slog.NewJSONHandler(buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			seen = len(b)
		}))

		req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(payload))
		inner.ServeHTTP(httptest.NewRecorder(), req)

		gomega.Expect(seen).To(gomega.Equal(len(payload)))
		gomega.Expect(buf.String()).To(gomega.ContainSubstring("[TRUNCATED]"))
	})

	ginkgo.It("logs the response status and size", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		var lines []map[string]any
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			var entry map[string]any
			gomega.Expect(json.Unmarshal([]byte(line), &entry)).To(gomega.Succeed())
			lines = append(lines, entry)
		}
		gomega.Expect(lines).To(gomega.HaveLen(2))
		gomega.Expect(lines[1]["status_code"]).To(gomega.BeEquivalentTo(http.StatusCreated))
		gomega.Expect(lines[1]["response_size"]).To(gomega.BeNumerically(">", 0))
	})
})

var _ = ginkgo.Describe("TraceID", func() {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ginkgo.It("echoes an incoming trace id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Trace-ID", "trace-123")
		rec := httptest.NewRecorder()

		TraceID(okHandler).ServeHTTP(rec, req)

		gomega.Expect(rec.Header().Get("X-Trace-ID")).To(gomega.Equal("trace-123"))
	})

	ginkgo.It("mints a trace id when none is given", func() {
		rec := httptest.NewRecorder()
		TraceID(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		gomega.Expect(rec.Header().Get("X-Trace-ID")).NotTo(gomega.BeEmpty())
	})
})

var _ = ginkgo.Describe("CORS", func() {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ginkgo.It("allows a listed origin", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://admin.example.com")
		rec := httptest.NewRecorder()

		CORS("https://admin.example.com")(okHandler).ServeHTTP(rec, req)

		gomega.Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(gomega.Equal("https://admin.example.com"))
	})

	ginkgo.It("ignores an unlisted origin", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()

		CORS("https://admin.example.com")(okHandler).ServeHTTP(rec, req)

		gomega.Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(gomega.BeEmpty())
	})

	ginkgo.It("short-circuits preflight requests", func() {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://admin.example.com")
		rec := httptest.NewRecorder()

		CORS("*")(okHandler).ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
	})
})

var _ = ginkgo.Describe("RecoveryMiddleware", func() {
	ginkgo.It("turns a panic into a 500 without leaking the panic value", func() {
		buf := &bytes.Buffer{}
		lg := slog.New(slog.NewJSONHandler(buf, nil))
		panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom: secret detail")
		})
		rec := httptest.NewRecorder()

		RecoveryMiddleware(lg)(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusInternalServerError))
		gomega.Expect(rec.Body.String()).NotTo(gomega.ContainSubstring("secret detail"))
		gomega.Expect(buf.String()).To(gomega.ContainSubstring("panic recovered"))
	})
})
