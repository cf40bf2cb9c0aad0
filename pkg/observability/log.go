package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug-level log lines.
// The CLI registers it when running with --verbose.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks creates hooks that log to l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{Logger: l}
}

// Register installs h for all hook categories.
func (h *LogHooks) Register() {
	SetLayoutHooks(h)
	SetDragHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnBuild(_ context.Context, tables, edges int) {
	h.Logger.Debug("built layout graph", "tables", tables, "edges", edges)
}

func (h *LogHooks) OnSolveStart(_ context.Context, direction string, nodeCount int) {
	h.Logger.Debug("solving layout", "direction", direction, "nodes", nodeCount)
}

func (h *LogHooks) OnSolveComplete(_ context.Context, direction string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("layout failed", "direction", direction, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("layout solved", "direction", direction, "duration", d)
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.Logger.Debug("rendering", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.Logger.Debug("rendered", "formats", formats, "duration", d, "err", err)
}

func (h *LogHooks) OnDragStart(_ context.Context, sessionID, nodeID string) {
	h.Logger.Debug("drag started", "session", sessionID, "node", nodeID)
}

func (h *LogHooks) OnDragEnd(_ context.Context, sessionID, nodeID string, dx, dy float64) {
	h.Logger.Debug("drag ended", "session", sessionID, "node", nodeID, "dx", dx, "dy", dy)
}

func (h *LogHooks) OnRelayout(_ context.Context, sessionID string, discarded int) {
	h.Logger.Debug("relayout", "session", sessionID, "discarded", discarded)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.Logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.Logger.Info("response", "method", method, "route", route, "status", status, "duration", d)
}

var (
	_ LayoutHooks = (*LogHooks)(nil)
	_ DragHooks   = (*LogHooks)(nil)
	_ CacheHooks  = (*LogHooks)(nil)
	_ HTTPHooks   = (*LogHooks)(nil)
)
