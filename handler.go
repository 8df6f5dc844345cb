package gsplex

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dpotapov/go-gsplex/gsp"
)

// defaultContextLines is the number of source lines shown around a syntax error.
const defaultContextLines = 3

// wsUpgrader is a Gorilla WebSocket instance, used to respond HTTP requests with WebSocket.
var wsUpgrader = websocket.Upgrader{}

// Handler is an inspector for templates. A GET request for /some/page.gsp scans that file from
// FileSystem and responds with the token stream, as an HTML table by default or as JSON or XML
// with ?format=json or ?format=xml. Templates with syntax errors get a 422 response describing the
// error.
//
// A WebSocket upgrade on any path starts a live session: every text message is a JSON object
// {"page": "...", "source": "..."} that is scanned and answered with {"tokens": [...]}, plus an
// "error" object when the source does not scan.
type Handler struct {
	// FileSystem to read templates from.
	FileSystem fs.FS

	// Options is passed to every scanner.
	Options *gsp.Options

	// ContextLines is the number of source lines shown before and after a syntax error on HTML
	// error pages. Defaults to 3.
	ContextLines int

	// OnError is a callback that is called when an error occurs while serving a request or a
	// WebSocket session. Syntax errors in templates are responses, not errors.
	OnError func(*http.Request, error)

	// Logger configures logging for internal events.
	Logger *slog.Logger

	// init is used to initialize the handler only once.
	init sync.Once

	// logger is a private logger instance that is used to log internal events.
	logger *slog.Logger
}

// scanResult is the JSON response of the inspector. Tokens holds everything scanned before the
// error, if any.
type scanResult struct {
	Page   string      `json:"page,omitempty"`
	Tokens []jsonToken `json:"tokens"`
	Error  *jsonError  `json:"error,omitempty"`
}

// sessionRequest is a WebSocket message.
type sessionRequest struct {
	Page   string `json:"page"`
	Source string `json:"source"`
}

// ServeHTTP implements the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.init.Do(func() {
		h.logger = slog.New(slog.DiscardHandler)
		if h.Logger != nil {
			h.logger = h.Logger
		}
	})

	if websocket.IsWebSocketUpgrade(r) {
		// the connection is hijacked, there is no HTTP response left to write on failure
		if err := h.serveSession(w, r); err != nil {
			h.fail(r, "Serve WebSocket session", err)
		}
		return
	}

	if err := h.handleRequest(w, r); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		h.fail(r, "Serve HTTP request", err)
	}
}

func (h *Handler) fail(r *http.Request, msg string, err error) {
	h.logger.Error(msg, "url", r.URL.Redacted(), "error", err)
	if h.OnError != nil {
		h.OnError(r, err)
	}
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return nil
	}

	name, ok := templateName(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return nil
	}
	if h.FileSystem == nil {
		return errors.New("no file system configured")
	}

	b, err := fs.ReadFile(h.FileSystem, name)
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read template %s: %w", name, err)
	}
	src := string(b)

	toks, scanErr := h.scan(name, src)
	status := http.StatusOK
	if scanErr != nil {
		status = http.StatusUnprocessableEntity
	}

	switch format := r.URL.Query().Get("format"); format {
	case "json":
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		return json.NewEncoder(w).Encode(newScanResult(name, toks, scanErr))
	case "xml":
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.WriteHeader(status)
		if scanErr != nil {
			return writeXMLError(w, scanErr)
		}
		return WriteXML(w, name, toks)
	case "", "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := html.Render(w, h.page(name, src, toks, scanErr)); err != nil {
			return fmt.Errorf("render HTML: %w", err)
		}
		return nil
	default:
		http.Error(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
		return nil
	}
}

func (h *Handler) scan(page, src string) ([]gsp.Token, error) {
	toks, err := gsp.Scan(page, src, h.Options)
	if err != nil {
		h.logger.Debug("Scan template", "page", page, "tokens", len(toks), "error", err)
		return toks, err
	}
	h.logger.Debug("Scan template", "page", page, "tokens", len(toks))
	return toks, nil
}

func newScanResult(page string, toks []gsp.Token, err error) *scanResult {
	res := &scanResult{Page: page, Tokens: newJSONTokens(toks)}
	if err != nil {
		res.Error = newJSONError(err)
	}
	return res
}

// page builds the HTML document for a scanned template: the token table, preceded by the source
// excerpt when scanning failed.
func (h *Handler) page(name, src string, toks []gsp.Token, err error) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	title := element(atom.Title)
	title.AppendChild(textNode(name))
	head.AppendChild(title)
	root.AppendChild(head)

	body := element(atom.Body)
	h1 := element(atom.H1)
	h1.AppendChild(textNode(name))
	body.AppendChild(h1)

	if err != nil {
		p := element(atom.P, attr("class", "gsp-error"))
		p.AppendChild(textNode(err.Error()))
		body.AppendChild(p)

		n := h.ContextLines
		if n <= 0 {
			n = defaultContextLines
		}
		if ctx := ErrorContext(src, err, n); ctx != nil {
			body.AppendChild(ctx.Node())
		}
	}

	body.AppendChild(TokenTable("", toks))
	root.AppendChild(body)
	doc.AppendChild(root)

	return doc
}

// serveSession scans the source of every incoming message until the client closes the connection.
func (h *Handler) serveSession(w http.ResponseWriter, r *http.Request) error {
	ws, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	for {
		mt, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read websocket message: %w", err)
		}
		if mt != websocket.TextMessage {
			continue
		}

		var req sessionRequest
		var res *scanResult
		if err := json.Unmarshal(msg, &req); err != nil {
			res = &scanResult{Tokens: []jsonToken{}, Error: &jsonError{Message: "decode message: " + err.Error()}}
		} else {
			toks, err := h.scan(req.Page, req.Source)
			res = newScanResult(req.Page, toks, err)
		}

		if err := ws.WriteJSON(res); err != nil {
			return fmt.Errorf("write websocket message: %w", err)
		}
	}
}

// templateName maps a request path to a template name in the file system. ok is false for
// directory paths and for paths with a segment starting with a dot.
func templateName(p string) (name string, ok bool) {
	if strings.HasSuffix(p, "/") {
		return "", false
	}
	name = strings.TrimPrefix(path.Clean("/"+p), "/")
	if name == "" || !fs.ValidPath(name) {
		return "", false
	}
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return "", false
		}
	}
	return name, true
}
