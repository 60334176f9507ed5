package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/trucoapp/tournament-manager/services"
)

type ExportHandler struct {
	exportService services.ExportService
}

func NewExportHandler(exportService services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

func (h *ExportHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	envelope, err := h.exportService.ExportJSON(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	filename := "backup-torneos-" + time.Now().Format("2006-01-02") + ".json"
	headers := http.Header{
		"Content-Disposition": []string{`attachment; filename="` + filename + `"`},
	}
	if err := writeJSON(w, http.StatusOK, envelope, headers); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ExportHandler) ImportJSON(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 32<<20))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.exportService.ImportJSON(r.Context(), payload); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "import completed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ExportHandler) ExportPaymentsCSV(w http.ResponseWriter, r *http.Request) {
	h.writeCSV(w, r, "pagos", h.exportService.ExportPaymentsCSV)
}

func (h *ExportHandler) ExportPlayersCSV(w http.ResponseWriter, r *http.Request) {
	h.writeCSV(w, r, "jugadores", h.exportService.ExportPlayersCSV)
}

func (h *ExportHandler) ExportTournamentsCSV(w http.ResponseWriter, r *http.Request) {
	h.writeCSV(w, r, "torneos", h.exportService.ExportTournamentsCSV)
}

func (h *ExportHandler) ExportMatchesCSV(w http.ResponseWriter, r *http.Request) {
	h.writeCSV(w, r, "partidos", h.exportService.ExportMatchesCSV)
}

func (h *ExportHandler) ExportRecordsCSV(w http.ResponseWriter, r *http.Request) {
	h.writeCSV(w, r, "registros", h.exportService.ExportRecordsCSV)
}

func (h *ExportHandler) writeCSV(w http.ResponseWriter, r *http.Request, name string, render func(context.Context) ([]byte, error)) {
	csv, err := render(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	filename := name + "-" + time.Now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(csv)
}
