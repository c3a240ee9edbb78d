package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/leotorrealba/Kratostech-Converter/internal/config"
	"github.com/leotorrealba/Kratostech-Converter/internal/entities"
)

type UseCase interface {
	ConvertImage(ctx context.Context, req entities.ConversionRequest) (entities.ConvertedFile, error)
	ConvertWordToPDF(ctx context.Context, path, name string) (entities.ConvertedFile, error)
}

type Handler struct {
	useCase   UseCase
	cfg       *config.Config
	validator *validator.Validate
	logger    *zap.Logger
}

func New(useCase UseCase, cfg *config.Config, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		useCase:   useCase,
		cfg:       cfg,
		validator: newValidator(),
		logger:    logger,
	}
}

func (h *Handler) ConvertImage(w http.ResponseWriter, r *http.Request) {
	up, cleanup, err := h.spoolUpload(w, r)
	defer cleanup()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	params, err := h.imageParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validator.Struct(params); err != nil {
		h.writeError(w, r, validationError(err))
		return
	}

	out, err := h.useCase.ConvertImage(r.Context(), entities.ConversionRequest{
		SourcePath:   up.Path,
		SourceName:   up.Name,
		TargetFormat: entities.Format(params.OutputFormat),
		Params: entities.QualityParams{
			Quality:      params.Quality,
			Threshold:    params.Threshold,
			TurdSize:     params.TurdSize,
			AlphaMax:     params.AlphaMax,
			OptCurve:     params.OptCurve,
			OptTolerance: params.OptTolerance,
		},
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeFile(w, out)
}

// imageParams reads the conversion fields from an already parsed form.
func (h *Handler) imageParams(r *http.Request) (ImageParams, error) {
	def := h.cfg.Image
	optCurve := def.OptCurve
	if v, ok := r.MultipartForm.Value["optCurve"]; ok && len(v) > 0 {
		optCurve = v[0] == "true"
	}

	var firstErr error
	intField := func(name string, def int) int {
		v, err := parseIntDefault(name, r.FormValue(name), def)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return v
	}
	floatField := func(name string, def float64) float64 {
		v, err := parseFloatDefault(name, r.FormValue(name), def)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return v
	}

	params := ImageParams{
		OutputFormat: strings.ToLower(strings.TrimSpace(r.FormValue("outputFormat"))),
		Quality:      intField("quality", def.Quality),
		Threshold:    intField("threshold", def.Threshold),
		TurdSize:     intField("turdSize", def.TurdSize),
		AlphaMax:     floatField("alphaMax", def.AlphaMax),
		OptCurve:     optCurve,
		OptTolerance: floatField("optTolerance", def.OptTolerance),
	}
	return params, firstErr
}

func (h *Handler) ConvertWordToPDF(w http.ResponseWriter, r *http.Request) {
	up, cleanup, err := h.spoolUpload(w, r)
	defer cleanup()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.useCase.ConvertWordToPDF(r.Context(), up.Path, up.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeFile(w, out)
}

// ConvertPDFToWord accepts the same upload shape as the other routes but has
// no backend yet.
func (h *Handler) ConvertPDFToWord(w http.ResponseWriter, r *http.Request) {
	_, cleanup, err := h.spoolUpload(w, r)
	defer cleanup()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeError(w, r, entities.ErrPDFToWordUnavailable)
}

func (h *Handler) Formats(w http.ResponseWriter, r *http.Request) {
	def := h.cfg.Image
	maxAlpha, maxQuality, maxThreshold, maxTolerance := 1.33, 100.0, 255.0, 1.0

	resp := FormatsResponse{MaxFileSizeMB: h.cfg.Upload.MaxFileSizeMB}
	resp.Image.Input = []string{string(entities.FormatJPEG), string(entities.FormatPNG)}
	resp.Image.Output = []string{string(entities.FormatWebP), string(entities.FormatSVG)}
	resp.Image.Params = map[string]paramRange{
		"quality":      {Min: 0, Max: &maxQuality, Default: float64(def.Quality)},
		"threshold":    {Min: 0, Max: &maxThreshold, Default: float64(def.Threshold)},
		"turdSize":     {Min: 0, Default: float64(def.TurdSize)},
		"alphaMax":     {Min: 0, Max: &maxAlpha, Default: def.AlphaMax},
		"optTolerance": {Min: 0, Max: &maxTolerance, Default: def.OptTolerance},
	}
	resp.Image.OptCurve = def.OptCurve
	resp.WordToPDF.Input = []string{string(entities.FormatDOCX), string(entities.FormatDOC)}
	resp.WordToPDF.Output = []string{string(entities.FormatPDF)}
	resp.WordToPDF.Configured = h.cfg.Converter.ServiceURL != ""

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode formats", zap.Error(err))
	}
}

func (h *Handler) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, entities.ErrMethodNotAllowed)
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, entities.ErrNotFound)
}
