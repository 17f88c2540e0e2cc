// Package tesseract implements the OCR collaborator contract on top of
// Tesseract via gosseract.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"slices"
	"strings"
	"sync"

	"card-redact/internal/ocr"
	"card-redact/pkg/geometry"

	"github.com/otiai10/gosseract/v2"
)

// Engine recognises words with a single Tesseract client. Calls are
// serialised, so one Engine may be shared, but workers that need throughput
// should each own an Engine.
type Engine struct {
	mu        sync.Mutex
	client    *gosseract.Client
	languages []string
}

// NewEngine creates a Tesseract engine for the given languages ("eng" when empty).
func NewEngine(languages ...string) (*Engine, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	client := gosseract.NewClient()

	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Card numbers and names are not dictionary words.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &Engine{client: client, languages: languages}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		err := e.client.Close()
		e.client = nil
		return err
	}
	return nil
}

// DetectAndRecognize implements ocr.Recognizer using word-level bounding boxes.
func (e *Engine) DetectAndRecognize(ctx context.Context, img image.Image, opts ocr.PassOptions) ([]ocr.Detection, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("empty image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil, fmt.Errorf("engine closed")
	}

	if len(opts.Languages) > 0 && !slices.Equal(opts.Languages, e.languages) {
		if err := e.client.SetLanguage(opts.Languages...); err != nil {
			return nil, fmt.Errorf("failed to set OCR language: %w", err)
		}
		e.languages = append([]string(nil), opts.Languages...)
	}

	psm := gosseract.PSM_AUTO
	if opts.Fast {
		psm = gosseract.PSM_SPARSE_TEXT
	}
	if err := e.client.SetPageSegMode(psm); err != nil {
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}

	// An empty allow list clears the previous pass's restriction.
	if err := e.client.SetWhitelist(opts.AllowList); err != nil && opts.AllowList != "" {
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}

	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to get boxes: %w", err)
	}

	dets := make([]ocr.Detection, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		dets = append(dets, ocr.Detection{
			Quad:       geometry.QuadFromRect(geometry.FromImageRect(box.Box)),
			Text:       text,
			Confidence: box.Confidence / 100,
		})
	}
	return dets, nil
}

// LanguageCodes maps common short language names to Tesseract traineddata
// codes and removes duplicates, keeping order.
func LanguageCodes(names []string) []string {
	aliases := map[string]string{
		"en": "eng", "eng": "eng",
		"ko": "kor", "kor": "kor",
		"ja": "jpn", "jpn": "jpn",
		"ch_sim": "chi_sim", "chi_sim": "chi_sim",
	}
	var out []string
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		code, ok := aliases[n]
		if !ok {
			code = n
		}
		if !slices.Contains(out, code) {
			out = append(out, code)
		}
	}
	return out
}
