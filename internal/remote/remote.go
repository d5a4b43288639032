// Package remote serves store snapshots over HTTP and turns fetched
// snapshots into read-only stores that can join a federation.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
)

// BundleFunc produces the bundle to serve. It is called once per request.
type BundleFunc func(ctx context.Context) (*memstore.Bundle, error)

type handler struct {
	load   BundleFunc
	logger *slog.Logger
}

// NewHandler returns a read-only HTTP API over the bundle load returns:
//
//	GET /bundle          the whole bundle
//	GET /schemas         schema IRIs, one JSON array
//	GET /resource?iri=   one resource, 404 if unknown
//	GET /health          liveness
func NewHandler(load BundleFunc, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{load: load, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bundle", h.bundle)
	mux.HandleFunc("GET /schemas", h.schemas)
	mux.HandleFunc("GET /resource", h.resource)
	mux.HandleFunc("GET /health", h.health)
	return mux
}

func (h *handler) bundle(w http.ResponseWriter, r *http.Request) {
	b, ok := h.loadBundle(w, r)
	if !ok {
		return
	}
	data, err := b.MarshalJSON()
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, data)
}

func (h *handler) schemas(w http.ResponseWriter, r *http.Request) {
	b, ok := h.loadBundle(w, r)
	if !ok {
		return
	}
	iris := make([]string, 0, len(b.Stores))
	for _, env := range b.Stores {
		iris = append(iris, env.SchemaIRI())
	}
	data, err := ir.MarshalCanonical(ir.Strings(iris...))
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, data)
}

func (h *handler) resource(w http.ResponseWriter, r *http.Request) {
	iri := r.URL.Query().Get("iri")
	if iri == "" {
		h.fail(w, r, http.StatusBadRequest, fmt.Errorf("missing iri parameter"))
		return
	}
	b, ok := h.loadBundle(w, r)
	if !ok {
		return
	}
	for _, env := range b.Stores {
		if res, found := env.Resources[iri]; found {
			data, err := ir.MarshalCanonical(res.ToObject())
			if err != nil {
				h.fail(w, r, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, data)
			return
		}
	}
	http.NotFound(w, r)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("health check", "remote_addr", r.RemoteAddr)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (h *handler) loadBundle(w http.ResponseWriter, r *http.Request) (*memstore.Bundle, bool) {
	b, err := h.load(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return nil, false
	}
	return b, true
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	h.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Fetch downloads the bundle served under baseURL and wraps every envelope
// in a read-only store. A nil client means http.DefaultClient.
func Fetch(ctx context.Context, client *http.Client, baseURL string) ([]*memstore.ReadOnlyMemoryStore, error) {
	if client == nil {
		client = http.DefaultClient
	}
	url := strings.TrimSuffix(baseURL, "/") + "/bundle"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: %s: %s", url, resp.Status, strings.TrimSpace(string(body)))
	}

	var b memstore.Bundle
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return nil, fmt.Errorf("fetch %s: decode: %w", url, err)
	}

	stores := make([]*memstore.ReadOnlyMemoryStore, 0, len(b.Stores))
	for _, env := range b.Stores {
		ro, err := memstore.NewReadOnly(env)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, err)
		}
		stores = append(stores, ro)
	}
	return stores, nil
}
