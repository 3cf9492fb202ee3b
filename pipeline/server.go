package pipeline

import (
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.miragespace.co/typebridge"

	"github.com/go-chi/chi/v5"
	pool "github.com/libp2p/go-buffer-pool"
	"go.uber.org/zap"
)

const sourceMappingPrefix = "//# sourceMappingURL="

// Server compiles and serves JavaScript on demand for development. A
// request for x.js finds x.ts or x.tsx under the source root, compiles it
// through the builder's cache, and serves the output with the source map
// comment appended; x.js.map serves the map itself.
type Server struct {
	logger  *zap.Logger
	builder *Builder
	router  chi.Router
}

func NewServer(logger *zap.Logger, builder *Builder) *Server {
	s := &Server{
		logger:  logger,
		builder: builder,
	}

	r := chi.NewRouter()
	r.Get("/*", s.serveScript)
	s.router = r

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) serveScript(w http.ResponseWriter, r *http.Request) {
	reqPath := strings.TrimPrefix(path.Clean(r.URL.Path), "/")

	wantMap := strings.HasSuffix(reqPath, ".js.map")
	jsPath := strings.TrimSuffix(reqPath, ".map")
	if !strings.HasSuffix(jsPath, ".js") {
		http.NotFound(w, r)
		return
	}

	rel, ok := s.builder.ResolveSource(jsPath)
	if !ok {
		http.NotFound(w, r)
		return
	}

	raw, err := os.ReadFile(filepath.Join(s.builder.source, rel))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	out, cached, err := s.builder.compile(r.Context(), rel, string(raw))
	if err != nil {
		s.logger.Error("compile failed",
			zap.String("source", rel),
			zap.Error(err),
		)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Debug("served",
		zap.String("source", rel),
		zap.String("request", reqPath),
		zap.Bool("cached", cached),
	)

	if wantMap {
		if out.Map == "" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		io.WriteString(w, out.Map)
		return
	}

	mapName := ""
	if out.Map != "" {
		mapName = path.Base(jsPath) + ".map"
	}
	writeScript(w, out, mapName)
}

func writeScript(w http.ResponseWriter, out typebridge.File, mapName string) {
	size := len(out.Data) + len(sourceMappingPrefix) + len(mapName) + 1
	buf := pool.Get(size)
	defer pool.Put(buf)

	b := buf[:0]
	b = append(b, out.Data...)
	if mapName != "" {
		b = append(b, sourceMappingPrefix...)
		b = append(b, mapName...)
		b = append(b, '\n')
	}

	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(b)
}
