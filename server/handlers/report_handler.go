package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"traffic-reporter/models"
	"traffic-reporter/schedule"
	services "traffic-reporter/service"
	"traffic-reporter/util"
)

const DISPATCH_COMMAND_FORMAT = "report dispatch weekday=%d"

// VariationComputer computes a variation report.
type VariationComputer interface {
	ComputeVariation(ctx context.Context, p services.VariationParams) (*models.ReportResult, error)
}

// LastReportReader reads the last dispatched report of each weekday.
type LastReportReader interface {
	GetLastReport(ctx context.Context, weekday int) (*models.ReportPayload, error)
	ListLastReportWeekdays(ctx context.Context) ([]int, error)
}

type ReportHandler struct {
	reports  VariationComputer
	enqueuer services.ReportEnqueuer
	execLogs services.ExecutionLogWriter
	last     LastReportReader
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

func NewReportHandler(
	reports VariationComputer,
	enqueuer services.ReportEnqueuer,
	execLogs services.ExecutionLogWriter,
	last LastReportReader,
	loc *time.Location,
	logger *zap.Logger,
) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{
		reports:  reports,
		enqueuer: enqueuer,
		execLogs: execLogs,
		last:     last,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// GetVariation serves GET /v1/reports/variation?weekday=..&start_week=..&end_week=..&year=..&start_hour=..&end_hour=..
func (h *ReportHandler) GetVariation(w http.ResponseWriter, r *http.Request) {
	result, ok := h.compute(w, r)
	if !ok {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, Response{
		Success: true,
		Data:    result,
		Metadata: map[string]interface{}{
			"day_name":   result.DayName,
			"year":       result.Year,
			"start_week": result.StartWeek,
			"end_week":   result.EndWeek,
			"hours":      len(result.HourlyData),
		},
	})
}

// GetVariationChart serves GET /v1/reports/variation/chart with the same query as GetVariation.
func (h *ReportHandler) GetVariationChart(w http.ResponseWriter, r *http.Request) {
	result, ok := h.compute(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := util.RenderVariationChart(&buf, result); err != nil {
		h.logger.Error("[ReportHandler] chart rendering failed", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *ReportHandler) compute(w http.ResponseWriter, r *http.Request) (*models.ReportResult, bool) {
	q, err := ParseReportQuery(r.URL.Query())
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return nil, false
	}
	result, err := h.reports.ComputeVariation(r.Context(), q.Params())
	if err != nil {
		status := statusFor(err)
		if status == http.StatusBadRequest {
			writeError(w, h.logger, status, err.Error())
		} else {
			h.logger.Error("[ReportHandler] error computing variation", zap.Int("weekday", q.Weekday), zap.Error(err))
			writeError(w, h.logger, status, "Internal server error")
		}
		return nil, false
	}
	return result, true
}

// DispatchReport serves POST /v1/reports/dispatch. The report is queued and
// delivered in the background; the response only confirms acceptance.
func (h *ReportHandler) DispatchReport(w http.ResponseWriter, r *http.Request) {
	var q ReportQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := q.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	jobID := h.enqueuer.Enqueue(q.Params(), true)
	if jobID == "" {
		writeError(w, h.logger, http.StatusServiceUnavailable, "report queue is full, try again later")
		return
	}

	at := h.now().In(h.loc)
	entry := &models.ExecutionLog{
		ID:            uuid.NewString(),
		ExecutionType: models.EXECUTION_TYPE_MANUAL,
		Command:       fmt.Sprintf(DISPATCH_COMMAND_FORMAT, q.Weekday),
		Date:          schedule.DateOf(at),
		Time:          models.ClockTime{Hour: at.Hour(), Minute: at.Minute(), Second: at.Second()},
	}
	if err := h.execLogs.InsertExecutionLog(r.Context(), entry); err != nil {
		h.logger.Warn("[ReportHandler] could not record execution log", zap.Error(err))
	}

	h.logger.Info("[ReportHandler] report dispatch accepted", zap.String("job_id", jobID), zap.Int("weekday", q.Weekday))
	writeJSON(w, h.logger, http.StatusAccepted, Response{
		Success:  true,
		Data:     q,
		Metadata: map[string]interface{}{"job_id": jobID},
	})
}

// GetLastReport serves GET /v1/reports/last/{weekday}.
func (h *ReportHandler) GetLastReport(w http.ResponseWriter, r *http.Request) {
	weekday, err := strconv.Atoi(mux.Vars(r)["weekday"])
	if err != nil || weekday < 1 || weekday > 7 {
		writeError(w, h.logger, http.StatusBadRequest, "weekday must be an integer between 1 and 7")
		return
	}

	payload, err := h.last.GetLastReport(r.Context(), weekday)
	if err != nil {
		h.logger.Error("[ReportHandler] error loading last report", zap.Int("weekday", weekday), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}
	if payload == nil {
		writeError(w, h.logger, http.StatusNotFound, "no report dispatched for "+schedule.DayName(weekday))
		return
	}
	writeJSON(w, h.logger, http.StatusOK, Response{Success: true, Data: payload})
}

// ListLastReports serves GET /v1/reports/last.
func (h *ReportHandler) ListLastReports(w http.ResponseWriter, r *http.Request) {
	weekdays, err := h.last.ListLastReportWeekdays(r.Context())
	if err != nil {
		h.logger.Error("[ReportHandler] error listing last reports", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}
	if weekdays == nil {
		weekdays = []int{}
	}
	writeJSON(w, h.logger, http.StatusOK, Response{
		Success:  true,
		Data:     weekdays,
		Metadata: map[string]interface{}{"count": len(weekdays)},
	})
}

// Ping serves GET /ping.
func (h *ReportHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, Response{Success: true, Data: "pong"})
}
