package report

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/sales"
)

// Handler exposes the sales report.
type Handler struct {
	Svc         *Service
	DefaultDays int
}

// Sales serves GET /reports/sales?branchId=&from=&to=&format=json|csv|xlsx.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORT_NOT_CONFIGURED", "report service not configured", nil)
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = FormatJSON
	}
	if format != FormatJSON && format != FormatCSV && format != FormatXLSX {
		common.WriteError(w, common.BadRequest("format must be json, csv or xlsx", nil))
		return
	}
	f, err := sales.ParseFilter(r, h.Svc.now(), h.DefaultDays)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	res, err := h.Svc.Sales(r.Context(), f)
	if err != nil {
		common.WriteError(w, sales.ToAppError(err))
		return
	}

	if format == FormatJSON {
		common.Data(w, http.StatusOK, res.Report)
		return
	}
	var buf bytes.Buffer
	if format == FormatCSV {
		err = WriteCSV(&buf, res.Transactions)
	} else {
		err = WriteXLSX(&buf, res.Report, res.Transactions)
	}
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", ContentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+Filename(format, res.Report.From, res.Report.To)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
