package handler

import (
	"net/http"
	"time"

	"github.com/payops/dashboard-bff-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const reportQueryLayout = "2006-01-02"

// GET /v1/reports/performance?start=YYYY-MM-DD&end=YYYY-MM-DD&sort=&dir=&page=&page_size=
// Defaults mirror the dashboard: today through tomorrow.
func performanceReportHandler(svc *service.Reconciler, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/performance")
		defer span.End()

		now := time.Now()
		start := now
		end := now.AddDate(0, 0, 1)

		if v := r.URL.Query().Get("start"); v != "" {
			t, err := time.Parse(reportQueryLayout, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
				return
			}
			start = t
		}
		if v := r.URL.Query().Get("end"); v != "" {
			t, err := time.Parse(reportQueryLayout, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
				return
			}
			end = t
		}
		if end.Before(start) {
			writeError(w, http.StatusBadRequest, "end must not precede start")
			return
		}

		sortKey := r.URL.Query().Get("sort")
		dir := r.URL.Query().Get("dir")
		page, pageSize := parsePagination(r)

		span.SetAttributes(
			attribute.String("report.start", start.Format(reportQueryLayout)),
			attribute.String("report.end", end.Format(reportQueryLayout)),
		)

		report, err := svc.GetPerformanceReport(ctx, start, end, sortKey, dir, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
