package handlers

import (
	"errors"
	"net/http"

	"codescan/internal/history"
	"codescan/internal/models"
	"codescan/internal/services"

	"github.com/rs/zerolog"
)

// HistoryHandler serves the SCAN and GENERATE history partitions
type HistoryHandler struct {
	history *services.HistoryService
	codes   *services.CodeService
	log     zerolog.Logger
}

func NewHistoryHandler(historySvc *services.HistoryService, codes *services.CodeService, log zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{history: historySvc, codes: codes, log: log}
}

func recordTypeParam(w http.ResponseWriter, r *http.Request) (models.RecordType, bool) {
	v := r.URL.Query().Get("record_type")
	if v == "" {
		writeError(w, http.StatusBadRequest, "record_type is required")
		return "", false
	}
	rt, err := models.ParseRecordType(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return rt, true
}

// List returns one partition, newest first
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	rt, ok := recordTypeParam(w, r)
	if !ok {
		return
	}
	records, err := h.history.List(r.Context(), rt)
	if err != nil {
		h.log.Error().Err(err).Msg("list history")
		writeError(w, http.StatusInternalServerError, "Failed to get history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"records": records,
		"total":   len(records),
	})
}

func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid record ID")
		return
	}
	record, err := h.history.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"record":  record,
	})
}

// Image re-renders the record's code as PNG
func (h *HistoryHandler) Image(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid record ID")
		return
	}
	record, err := h.history.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	data, err := h.codes.RecordImage(record)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writePNG(w, data)
}

// Delete removes one record; unknown ids are not an error
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid record ID")
		return
	}
	err = h.history.DeleteByID(r.Context(), id)
	if err != nil && !errors.Is(err, history.ErrRecordNotFound) {
		h.log.Error().Err(err).Int64("id", id).Msg("delete history record")
		writeError(w, http.StatusInternalServerError, "Failed to delete record")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Record deleted",
	})
}

// Clear removes every record of one partition
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	rt, ok := recordTypeParam(w, r)
	if !ok {
		return
	}
	if err := h.history.Clear(r.Context(), rt); err != nil {
		h.log.Error().Err(err).Str("record_type", string(rt)).Msg("clear history")
		writeError(w, http.StatusInternalServerError, "Failed to clear history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "History cleared",
	})
}
