package handlers

import (
	"encoding/json"
	"image"
	"net/http"
	"strings"

	"codescan/internal/barcode"
	"codescan/internal/models"
	"codescan/internal/services"

	"github.com/rs/zerolog"
)

// CodeHandler serves code generation, rendering and export
type CodeHandler struct {
	codes   *services.CodeService
	history *services.HistoryService
	log     zerolog.Logger
}

func NewCodeHandler(codes *services.CodeService, history *services.HistoryService, log zerolog.Logger) *CodeHandler {
	return &CodeHandler{codes: codes, history: history, log: log}
}

type generateRequest struct {
	Content string `json:"content"`
	Mode    string `json:"mode"`
	Format  string `json:"format"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// formatFor resolves the requested mode and format
func (req generateRequest) formatFor() (models.CodeFormat, string) {
	switch strings.ToUpper(strings.TrimSpace(req.Mode)) {
	case "", "QR_CODE":
		return models.FormatQRCode, ""
	case "BARCODE":
		if strings.TrimSpace(req.Format) == "" {
			return models.FormatCode128, ""
		}
		f, err := models.ParseCodeFormat(req.Format)
		if err != nil {
			return "", err.Error()
		}
		if !f.IsBarcode() {
			return "", "format " + string(f) + " is not a barcode"
		}
		return f, ""
	default:
		return "", "mode must be QR_CODE or BARCODE"
	}
}

// Generate renders a QR code or barcode and records it in the GENERATE history
func (h *CodeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Please enter content")
		return
	}
	format, msg := req.formatFor()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var (
		img *image.Paletted
		err error
	)
	size := barcode.WithSize(req.Width, req.Height)
	if format == models.FormatQRCode {
		img, err = h.codes.GenerateTwoDimensional(req.Content, size)
	} else {
		img, err = h.codes.GenerateLinear(req.Content, format, size)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dataURL, err := services.DataURL(img)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate code")
		return
	}

	record, err := h.history.SaveGenerateRecord(r.Context(), req.Content, format)
	if err != nil {
		h.log.Error().Err(err).Msg("save generated code")
		writeError(w, http.StatusInternalServerError, "Failed to save history")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"image":   dataURL,
		"width":   img.Bounds().Dx(),
		"height":  img.Bounds().Dy(),
		"record":  record,
	})
}

// Render returns the PNG of arbitrary content without recording it
func (h *CodeHandler) Render(w http.ResponseWriter, r *http.Request) {
	req, ok := renderRequestFromQuery(w, r)
	if !ok {
		return
	}
	data, err := h.codes.RenderPNG(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writePNG(w, data)
}

type exportRequest struct {
	Content string `json:"content"`
	Format  string `json:"format"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// Export stores the PNG as code_<unix-millis>.png on the export target
func (h *CodeHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	format := models.FormatQRCode
	if req.Format != "" {
		f, err := models.ParseCodeFormat(req.Format)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = f
	}

	location, err := h.codes.Export(r.Context(), services.RenderRequest{
		Content: req.Content,
		Format:  format,
		Width:   req.Width,
		Height:  req.Height,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("export code")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"location": location,
	})
}

func renderRequestFromQuery(w http.ResponseWriter, r *http.Request) (services.RenderRequest, bool) {
	q := r.URL.Query()
	content := q.Get("content")
	if strings.TrimSpace(content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return services.RenderRequest{}, false
	}
	format := models.FormatQRCode
	if v := q.Get("format"); v != "" {
		f, err := models.ParseCodeFormat(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return services.RenderRequest{}, false
		}
		format = f
	}
	width, err := queryInt(r, "width")
	if err != nil {
		writeError(w, http.StatusBadRequest, "width must be an integer")
		return services.RenderRequest{}, false
	}
	height, err := queryInt(r, "height")
	if err != nil {
		writeError(w, http.StatusBadRequest, "height must be an integer")
		return services.RenderRequest{}, false
	}
	return services.RenderRequest{Content: content, Format: format, Width: width, Height: height}, true
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
