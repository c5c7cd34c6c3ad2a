package ingest

import (
	"context"
	"sync"
	"time"

	"announce-qa-be/internal/pkg/logger"
)

// OCRProvider extracts the readable text out of a single image.
type OCRProvider interface {
	ExtractText(ctx context.Context, imageURL string) (string, error)
}

// OCRResult is the outcome for one image. A failed image carries its
// error and an empty Text.
type OCRResult struct {
	ImageURL string
	Text     string
	Err      error
}

// OCRRunner fans OCR calls out over a bounded worker pool. One image
// failing never aborts its siblings.
type OCRRunner struct {
	provider    OCRProvider
	logger      logger.ILogger
	concurrency int
	timeout     time.Duration
}

func NewOCRRunner(provider OCRProvider, log logger.ILogger, concurrency int, timeout time.Duration) *OCRRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &OCRRunner{
		provider:    provider,
		logger:      log,
		concurrency: concurrency,
		timeout:     timeout,
	}
}

// Run processes every image URL and returns one result per input, in
// input order. Individual failures are recorded in the result slice.
func (r *OCRRunner) Run(ctx context.Context, imageURLs []string) []OCRResult {
	results := make([]OCRResult, len(imageURLs))
	if len(imageURLs) == 0 {
		return results
	}

	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for i, url := range imageURLs {
		wg.Add(1)
		go func(idx int, imageURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			callCtx := ctx
			if r.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, r.timeout)
				defer cancel()
			}

			text, err := r.provider.ExtractText(callCtx, imageURL)
			results[idx] = OCRResult{ImageURL: imageURL, Text: text, Err: err}
			if err != nil {
				r.logger.Warn("INGEST", "OCR failed for image", map[string]interface{}{
					"image_url": imageURL,
					"error":     err.Error(),
				})
			}
		}(i, url)
	}

	wg.Wait()
	return results
}

// SuccessfulTexts filters a result set down to the non-empty texts of
// images that succeeded, preserving order.
func SuccessfulTexts(results []OCRResult) []string {
	var texts []string
	for _, res := range results {
		if res.Err == nil && res.Text != "" {
			texts = append(texts, res.Text)
		}
	}
	return texts
}
