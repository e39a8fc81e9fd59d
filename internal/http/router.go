package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// APIPrefix all monitor routes live under this path
const APIPrefix = "/vitalsim/api/v1"

// Router stdlib http.ServeMux with request logging
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler registers an http.Handler (metrics, websocket)
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.logger.Debug("HTTP request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
	)
	r.mux.ServeHTTP(w, req)
}

// RegisterMonitorRoutes lifecycle, playback, history and config
func (r *Router) RegisterMonitorRoutes(h *MonitorHandler) {
	r.Handle(APIPrefix+"/status", h.GetStatus)
	r.Handle(APIPrefix+"/history", h.GetHistory)
	r.Handle(APIPrefix+"/history/export", h.ExportHistory)
	r.Handle(APIPrefix+"/samples", h.GetSamples)

	r.Handle(APIPrefix+"/monitor/start", h.StartMonitor)
	r.Handle(APIPrefix+"/monitor/stop", h.StopMonitor)
	r.Handle(APIPrefix+"/monitor/clear", h.ClearData)

	r.Handle(APIPrefix+"/playback", h.PostPlayback)
	r.Handle(APIPrefix+"/visibility", h.PostVisibility)
	r.Handle(APIPrefix+"/excursion", h.PostExcursion)
	r.Handle(APIPrefix+"/config", h.PutConfig)

	r.Handle(APIPrefix+"/media", h.Media)
}

// RegisterRealtimeRoutes readings read back from the cache and stream
func (r *Router) RegisterRealtimeRoutes(h *RealtimeHandler) {
	r.Handle(APIPrefix+"/realtime", h.GetLatest)
	r.Handle(APIPrefix+"/realtime/recent", h.GetRecent)
}

// RegisterStreamRoutes the websocket feed
func (r *Router) RegisterStreamRoutes(hub *Hub) {
	r.Handle(APIPrefix+"/ws", hub.ServeWS)
}

// RegisterMetrics exposes g in the Prometheus text format at /metrics
func (r *Router) RegisterMetrics(g prometheus.Gatherer) {
	r.HandleHandler("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
