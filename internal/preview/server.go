package preview

import (
	"context"
	"errors"
	"mime"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bertob/marker"
	"github.com/bertob/marker/internal/assets"
)

// URL prefixes served by the preview server.
const (
	AssetsPrefix   = "/assets/"
	DocumentPrefix = "/doc/"
	SocketPath     = "/ws"
)

const shutdownTimeout = 5 * time.Second

// RenderFunc produces the document to display.
type RenderFunc func() (*marker.RenderedDocument, error)

// Options configures a Server.
type Options struct {
	Addr   string  // host:port; port 0 picks a free one
	Zoom   float64 // initial zoom; 0 = DefaultZoom
	DocDir string  // served under DocumentPrefix so relative links resolve; empty disables
	Assets assets.AssetReader
	Render RenderFunc
	Logger zerolog.Logger
}

// Server serves a live preview page that follows Refresh calls.
type Server struct {
	opts   Options
	hub    *Hub
	ln     net.Listener
	logger zerolog.Logger
}

// NewServer creates a Server. Call Listen then Serve.
func NewServer(opts Options) *Server {
	return &Server{
		opts:   opts,
		hub:    NewHub(opts.Zoom, opts.Logger),
		logger: opts.Logger,
	}
}

// Hub returns the server's client hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.Handle(SocketPath, s.hub)
	if s.opts.Assets != nil {
		mux.HandleFunc(AssetsPrefix, s.handleAsset)
	}
	if s.opts.DocDir != "" {
		mux.Handle(DocumentPrefix, http.StripPrefix(DocumentPrefix, http.FileServer(http.Dir(s.opts.DocDir))))
	}
	return mux
}

// Refresh renders the document and pushes it to every client. A failed
// render is reported to clients and the previous content stays on screen.
func (s *Server) Refresh() {
	if s.opts.Render == nil {
		return
	}
	doc, err := s.opts.Render()
	if err != nil {
		s.logger.Warn().Err(err).Msg("preview render failed")
		s.hub.PublishError(err)
		return
	}
	base := doc.BaseURI
	if s.opts.DocDir != "" {
		base = DocumentPrefix
	}
	s.hub.Publish(doc.HTML, base)
	s.logger.Debug().Int("bytes", len(doc.HTML)).Msg("preview updated")
}

// Listen binds the server address and returns the preview URL.
func (s *Server) Listen() (string, error) {
	addr := s.opts.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	s.ln = ln
	return "http://" + ln.Addr().String() + "/", nil
}

// Serve runs the hub and the HTTP server until ctx ends. Listen must have
// been called.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return errors.New("preview: Serve called before Listen")
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	s.Refresh()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(s.ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	stopHub()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexPage))
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, AssetsPrefix)
	data, err := s.opts.Assets.ReadAsset(rel)
	switch {
	case err == nil:
	case errors.Is(err, assets.ErrAssetNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, assets.ErrInvalidAssetName), errors.Is(err, assets.ErrPathTraversal):
		http.Error(w, "invalid asset path", http.StatusBadRequest)
		return
	default:
		s.logger.Warn().Err(err).Str("asset", rel).Msg("reading asset")
		http.Error(w, "asset unavailable", http.StatusInternalServerError)
		return
	}

	if ct := mime.TypeByExtension(path.Ext(rel)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	_, _ = w.Write(data)
}

// indexPage hosts the rendered document in an iframe and applies pushed
// updates. Ctrl+Plus, Ctrl+Minus and Ctrl+0 map to the zoom commands.
const indexPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>marker preview</title>
<style>
html, body { margin: 0; height: 100%; }
#frame { border: 0; width: 100%; height: 100%; display: block; }
#error { display: none; position: fixed; bottom: 0; left: 0; right: 0; padding: 0.5em 1em;
  background: #fdd; color: #600; font: 13px monospace; white-space: pre-wrap; }
</style>
</head>
<body>
<iframe id="frame"></iframe>
<div id="error"></div>
<script>
(function () {
  var frame = document.getElementById("frame");
  var errorBox = document.getElementById("error");
  var zoom = 1;
  var ws;

  function applyZoom() {
    var doc = frame.contentDocument;
    if (doc && doc.documentElement) {
      doc.documentElement.style.zoom = zoom;
    }
  }

  function withBase(html, base) {
    if (!base || /<base\s/i.test(html)) {
      return html;
    }
    var tag = '<base href="' + base.replace(/"/g, "&quot;") + '">';
    if (/<\/head>/i.test(html)) {
      return html.replace(/<\/head>/i, tag + "</head>");
    }
    return tag + html;
  }

  frame.addEventListener("load", function () {
    applyZoom();
    frame.contentWindow.addEventListener("keydown", onKey);
  });

  function send(cmd) {
    if (ws && ws.readyState === WebSocket.OPEN) {
      ws.send(cmd);
    }
  }

  function onKey(e) {
    if (!e.ctrlKey) {
      return;
    }
    if (e.key === "+" || e.key === "=") {
      send("zoom-in");
    } else if (e.key === "-") {
      send("zoom-out");
    } else if (e.key === "0") {
      send("zoom-reset");
    } else {
      return;
    }
    e.preventDefault();
  }
  window.addEventListener("keydown", onKey);

  function connect() {
    var scheme = location.protocol === "https:" ? "wss://" : "ws://";
    ws = new WebSocket(scheme + location.host + "/ws");
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      zoom = msg.zoom || 1;
      if (msg.type === "content") {
        errorBox.style.display = "none";
        frame.srcdoc = withBase(msg.html || "", msg.baseURI);
      } else if (msg.type === "zoom") {
        applyZoom();
      } else if (msg.type === "error") {
        errorBox.textContent = msg.error;
        errorBox.style.display = "block";
      }
    };
    ws.onclose = function () {
      setTimeout(connect, 1000);
    };
  }
  connect();
})();
</script>
</body>
</html>
`
