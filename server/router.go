package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReportRoutes is implemented by handlers.ReportHandler.
type ReportRoutes interface {
	GetVariation(w http.ResponseWriter, r *http.Request)
	GetVariationChart(w http.ResponseWriter, r *http.Request)
	DispatchReport(w http.ResponseWriter, r *http.Request)
	GetLastReport(w http.ResponseWriter, r *http.Request)
	ListLastReports(w http.ResponseWriter, r *http.Request)
	Ping(w http.ResponseWriter, r *http.Request)
}

// DailyMetaRoutes is implemented by handlers.DailyMetaHandler.
type DailyMetaRoutes interface {
	PutDailyMeta(w http.ResponseWriter, r *http.Request)
}

type Router struct {
	reportHandler    ReportRoutes
	dailyMetaHandler DailyMetaRoutes
	router           *mux.Router
}

// NewRouter creates a router with the app’s routes.
func NewRouter(
	reportHandler ReportRoutes,
	dailyMetaHandler DailyMetaRoutes,
	router *mux.Router) *Router {
	return &Router{
		reportHandler:    reportHandler,
		dailyMetaHandler: dailyMetaHandler,
		router:           router,
	}
}

func (r *Router) RegisterRoutes() {
	// expects ?weekday={1..7}&start_week=&end_week=&year=&start_hour=&end_hour=
	r.router.HandleFunc("/v1/reports/variation", r.reportHandler.GetVariation).Methods("GET")
	r.router.HandleFunc("/v1/reports/variation/chart", r.reportHandler.GetVariationChart).Methods("GET")

	// expects a JSON body with the same fields as the variation query
	r.router.HandleFunc("/v1/reports/dispatch", r.reportHandler.DispatchReport).Methods("POST")

	r.router.HandleFunc("/v1/reports/last", r.reportHandler.ListLastReports).Methods("GET")
	r.router.HandleFunc("/v1/reports/last/{weekday:[0-9]+}", r.reportHandler.GetLastReport).Methods("GET")

	// expects a JSON body {"target_count": N}, date as YYYY-MM-DD
	r.router.HandleFunc("/v1/daily-metas/{date}", r.dailyMetaHandler.PutDailyMeta).Methods("PUT")

	r.router.HandleFunc("/ping", r.reportHandler.Ping).Methods("GET")
	r.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}
