// Package analysis implements the gateway pipeline: validate an uploaded
// image batch, gate it on payment, invoke the vision model, validate the
// reply, and compose the final analysis text. Everything here is
// request-scoped; nothing is persisted.
package analysis

import (
	"fmt"
	"strings"
)

// Image is one uploaded photo.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Batch is the set of images submitted in one analysis request, plus the
// optional free-text question and payment reference.
type Batch struct {
	Images          []Image
	Question        string
	PaymentIntentID string
}

// Result is the composed analysis returned to the client.
type Result struct {
	Text        string
	FileCount   int
	HasQuestion bool
}

// Limits are the injected validation caps.
type Limits struct {
	MaxImages        int
	MaxBytesPerImage int64
	MaxBatchBytes    int64
}

// Validate checks the batch against the limits. It fails fast so no
// upstream call is made for an invalid request.
func (l Limits) Validate(batch Batch) error {
	if len(batch.Images) == 0 {
		return &BadRequestError{Reason: "No photos uploaded"}
	}
	if len(batch.Images) > l.MaxImages {
		return &BadRequestError{Reason: fmt.Sprintf("Too many photos: maximum is %d", l.MaxImages)}
	}

	var total int64
	for _, img := range batch.Images {
		if !strings.HasPrefix(img.ContentType, "image/") {
			return &BadRequestError{Reason: fmt.Sprintf("%s is not a valid image file", displayName(img))}
		}
		size := int64(len(img.Data))
		if size == 0 {
			return &BadRequestError{Reason: fmt.Sprintf("%s is empty", displayName(img))}
		}
		if size > l.MaxBytesPerImage {
			return &BadRequestError{Reason: fmt.Sprintf("%s is too large: maximum size is %d MB", displayName(img), l.MaxBytesPerImage>>20)}
		}
		total += size
	}
	if total > l.MaxBatchBytes {
		return &BadRequestError{Reason: fmt.Sprintf("Upload too large: combined maximum is %d MB", l.MaxBatchBytes>>20)}
	}
	return nil
}

func displayName(img Image) string {
	if strings.TrimSpace(img.Name) != "" {
		return img.Name
	}
	return "uploaded file"
}
