package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"appliancecheck/internal/analysis"
	"appliancecheck/internal/render"
	"appliancecheck/internal/vision"
)

// Multipart field names shared with the browser client.
const (
	fieldPhotos        = "photos"
	fieldPaymentIntent = "payment_intent_id"
	// The free-text question travels as a URL query parameter rather than
	// a multipart field: query values are reliably recoverable regardless
	// of how the body is parsed. A body field is accepted as fallback.
	queryQuestion = "custom_question"
)

type analyzeResponse struct {
	Success           bool   `json:"success"`
	Analysis          string `json:"analysis"`
	AnalysisHTML      string `json:"analysisHtml"`
	FileCount         int    `json:"fileCount"`
	HasCustomQuestion bool   `json:"hasCustomQuestion"`
}

// Analyze handles POST /analyze: one image batch in, one analysis out.
func (a *App) Analyze(w http.ResponseWriter, r *http.Request) {
	batch, err := a.readBatch(w, r)
	if err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.Config.UpstreamTimeout)
	defer cancel()

	result, err := a.Service.Analyze(ctx, *batch)
	if err != nil {
		a.writeAnalysisError(w, err)
		return
	}

	a.json(w, http.StatusOK, analyzeResponse{
		Success:           true,
		Analysis:          result.Text,
		AnalysisHTML:      render.Render(result.Text),
		FileCount:         result.FileCount,
		HasCustomQuestion: result.HasQuestion,
	})
}

// readBatch extracts the upload batch from the multipart body and query
// string. Returned errors are safe to show verbatim.
func (a *App) readBatch(w http.ResponseWriter, r *http.Request) (*analysis.Batch, error) {
	// Slack above the batch cap lets the pipeline return a descriptive
	// size error instead of an opaque transport failure.
	r.Body = http.MaxBytesReader(w, r.Body, a.Config.MaxBatchBytes+a.Config.MaxBytesPerImage)

	if err := r.ParseMultipartForm(a.Config.MaxBatchBytes); err != nil {
		if errors.As(err, new(*http.MaxBytesError)) {
			return nil, errors.New("Upload too large")
		}
		return nil, errors.New("No data received: expected a multipart upload")
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	files := r.MultipartForm.File[fieldPhotos]
	images := make([]analysis.Image, 0, len(files))
	for _, header := range files {
		img, err := readImagePart(header)
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}

	question := r.URL.Query().Get(queryQuestion)
	if question == "" {
		question = r.FormValue(queryQuestion)
	}

	return &analysis.Batch{
		Images:          images,
		Question:        strings.TrimSpace(question),
		PaymentIntentID: strings.TrimSpace(r.FormValue(fieldPaymentIntent)),
	}, nil
}

func readImagePart(header *multipart.FileHeader) (*analysis.Image, error) {
	file, err := header.Open()
	if err != nil {
		return nil, errors.New("Failed to read uploaded file " + header.Filename)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("Failed to read uploaded file " + header.Filename)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &analysis.Image{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// writeAnalysisError maps the pipeline's error taxonomy onto the HTTP
// surface. Upstream messages never reach the client; only status codes and
// fixed details do.
func (a *App) writeAnalysisError(w http.ResponseWriter, err error) {
	var badReq *analysis.BadRequestError
	if errors.As(err, &badReq) {
		a.error(w, http.StatusBadRequest, badReq.Reason)
		return
	}

	var payErr *analysis.PaymentRequiredError
	if errors.As(err, &payErr) {
		a.json(w, http.StatusPaymentRequired, map[string]any{
			"error":           payErr.Reason,
			"requiresPayment": true,
		})
		return
	}

	if errors.Is(err, vision.ErrNotConfigured) {
		a.Logger.Error().Msg("handlers: model credential missing")
		a.errorWithDetails(w, http.StatusInternalServerError,
			"Analysis service is not configured", "missing model credentials")
		return
	}

	var callErr *vision.CallError
	if errors.As(err, &callErr) {
		a.Logger.Error().Int("status", callErr.StatusCode).Str("upstream_message", callErr.Message).
			Msg("handlers: model call failed")
		a.errorWithDetails(w, http.StatusInternalServerError,
			"Failed to analyze appliance", callErr.Error())
		return
	}

	var invalid *vision.InvalidResponseError
	if errors.As(err, &invalid) {
		a.errorWithDetails(w, http.StatusInternalServerError,
			"Failed to analyze appliance", "insufficient response from analysis model")
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		a.errorWithDetails(w, http.StatusInternalServerError,
			"Failed to analyze appliance", "analysis timed out")
		return
	}

	a.Logger.Error().Err(err).Msg("handlers: analysis failed")
	a.errorWithDetails(w, http.StatusInternalServerError,
		"Failed to analyze appliance", "internal error")
}
