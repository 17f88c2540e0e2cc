// Package pipeline wires the redaction stages together: normalise, read
// text, find card numbers, expiry dates and names, then blur.
package pipeline

import (
	"context"
	"image"

	"card-redact/internal/cardnum"
	"card-redact/internal/config"
	"card-redact/internal/expiry"
	"card-redact/internal/logging"
	"card-redact/internal/names"
	"card-redact/internal/normalize"
	"card-redact/internal/ocr"
	"card-redact/internal/redact"
	"card-redact/internal/textline"
	"card-redact/internal/vocab"
	"card-redact/pkg/geometry"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// Pipeline holds the injected collaborators. It keeps no per-request state
// and may serve concurrent runs when its Recognizer can.
type Pipeline struct {
	adapter    *ocr.Adapter
	vocab      *vocab.Vocabulary
	names      *names.Detector
	compositor *redact.Compositor
	log        *logging.Logger
}

// New builds a pipeline. A nil vocabulary selects the built-in tables, a nil
// scorer the default name scoring and a nil logger discards output.
func New(rec ocr.Recognizer, v *vocab.Vocabulary, scorer names.Scorer, log *logging.Logger) *Pipeline {
	if v == nil {
		v = vocab.Default()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Pipeline{
		adapter:    ocr.NewAdapter(rec, log),
		vocab:      v,
		names:      names.NewDetector(v, scorer),
		compositor: redact.NewCompositor(v, log),
		log:        log,
	}
}

// RunBytes decodes an encoded image and runs the pipeline on it.
func (p *Pipeline) RunBytes(ctx context.Context, data []byte, opts config.Options) (*Result, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, img, opts)
}

// Run redacts a decoded image.
func (p *Pipeline) Run(ctx context.Context, img image.Image, opts config.Options) (*Result, error) {
	if img == nil {
		return nil, newError(KindInvalidImage, "", "nil image", nil)
	}
	mat, err := normalize.MatFromImage(img)
	if err != nil {
		return nil, newError(KindInvalidImage, "", "failed to convert image", err)
	}
	defer mat.Close()
	return p.RunMat(ctx, mat, opts)
}

// RunMat redacts a BGR Mat. src is not modified.
func (p *Pipeline) RunMat(ctx context.Context, src gocv.Mat, opts config.Options) (*Result, error) {
	requestID := uuid.NewString()
	opts = opts.Effective()
	if err := opts.Validate(); err != nil {
		return nil, newError(KindInvalidOptions, requestID, "options rejected", err)
	}

	norm, err := normalize.Normalize(src, normalize.Options{
		MaxSide: opts.MaxSide,
		NoWarp:  opts.NoWarp,
		Upscale: opts.Upscale,
		Deskew:  opts.Deskew,
		Strong:  opts.Strong,
	})
	if err != nil {
		return nil, newError(KindInvalidImage, requestID, "failed to normalise image", err)
	}
	defer norm.Close()

	w, h := norm.Size()
	res := newResult(requestID)
	res.Geometry = norm.Geometry
	res.Deskew = norm.Deskew
	res.Width, res.Height = w, h
	p.log.Debug("normalised", "request", requestID, "geometry", norm.Geometry, "deskew", norm.Deskew.Applied, "width", w, "height", h)

	tokens, err := p.acquire(ctx, norm, opts)
	if err != nil {
		return nil, newError(KindCollaborator, requestID, "text recognition failed", err)
	}
	res.Tokens = len(tokens)

	if len(tokens) == 0 {
		res.Outcome = OutcomeNoText
		p.log.Debug("no text", "request", requestID)
		return p.finish(res, norm.Working, nil, opts)
	}

	cards := cardnum.Find(tokens, cardnum.Options{Relaxed: opts.Relaxed, Tolerance: textline.DefaultTolerance})
	if len(cards) == 0 {
		res.Outcome = OutcomeNoCard
		p.log.Debug("no card candidate", "request", requestID, "tokens", len(tokens))
		if !opts.BlurAllText {
			return p.finish(res, norm.Working, nil, opts)
		}
		plan := p.compositor.Plan(redact.Sources{Tokens: tokens}, w, h, p.redactOptions(opts))
		res.Boxes, res.BlurAll = plan.Boxes, plan.BlurAll
		return p.finish(res, norm.Working, plan.Boxes, opts)
	}
	for _, c := range cards {
		s := cardnum.Summarize(c, p.vocab)
		res.Cards = append(res.Cards, s)
		p.log.Debug("card candidate", "request", requestID, "masked", s.Masked, "brand", s.Brand, "luhn", s.LuhnValid)
	}

	var band *geometry.RectInt
	if b, ok := cardnum.Band(tokens, cards[0], opts.CardPad, w, h); ok {
		band = &b
	}

	expiries := expiry.Find(tokens)
	res.Expiry = expiry.Texts(expiries)

	hard, err := opts.HardROI(w, h)
	if err != nil {
		return nil, newError(KindInvalidOptions, requestID, "name region rejected", err)
	}
	soft := names.SoftROI(w, h, band)
	lines := textline.Build(tokens, w, h, textline.DefaultTolerance)
	found := p.names.Detect(tokens, lines, w, h, names.Options{
		Mode:      opts.Mode(),
		NameFloor: opts.ConfidenceFloorName,
		Band:      band,
		SoftROI:   &soft,
		HardROI:   hard,
	})
	res.NameCandidates = found
	res.Names = distinctNames(found)

	var nameTokens []ocr.Token
	for _, c := range found {
		for _, idx := range c.TokenIndices {
			nameTokens = append(nameTokens, tokens[idx])
		}
	}

	plan := p.compositor.Plan(redact.Sources{
		Expiry:     expiry.Rects(expiries),
		Band:       band,
		NameTokens: nameTokens,
		Tokens:     tokens,
	}, w, h, p.redactOptions(opts))
	res.Boxes = plan.Boxes
	res.BlurAll = plan.BlurAll
	res.Outcome = OutcomeFound
	p.log.Debug("redaction plan", "request", requestID, "cards", len(res.Cards), "expiry", len(res.Expiry), "names", len(res.Names), "boxes", len(plan.Boxes))

	return p.finish(res, norm.Working, plan.Boxes, opts)
}

func (p *Pipeline) redactOptions(opts config.Options) redact.Options {
	return redact.Options{
		BlurMargin:    opts.BlurMargin,
		KernelSize:    opts.BlurKernelSize,
		BlurBrandText: opts.BlurBrandText,
		BlurAllText:   opts.BlurAllText,
	}
}

func (p *Pipeline) acquire(ctx context.Context, norm *normalize.Result, opts config.Options) ([]ocr.Token, error) {
	general, err := normalize.ImageFromMat(norm.Gray)
	if err != nil {
		return nil, err
	}
	nameEmphasis, err := normalize.ImageFromMat(norm.NameGray)
	if err != nil {
		return nil, err
	}
	return p.adapter.Acquire(ctx, general, nameEmphasis, ocr.AcquireOptions{
		GeneralFloor: opts.ConfidenceFloorGeneral,
		NameFloor:    opts.ConfidenceFloorName,
		Languages:    opts.Languages,
		Fast:         opts.Fast,
	})
}

// finish attaches the blurred working image and, when requested, the debug
// overlay to res.
func (p *Pipeline) finish(res *Result, working gocv.Mat, boxes []geometry.RectInt, opts config.Options) (*Result, error) {
	blurred := redact.Apply(working, boxes, opts.BlurMargin, opts.BlurKernelSize)
	defer blurred.Close()
	img, err := normalize.ImageFromMat(blurred)
	if err != nil {
		return nil, newError(KindInvalidImage, res.RequestID, "failed to export redacted image", err)
	}
	res.Image = img

	if opts.DrawDebugBoxes {
		overlay := redact.Overlay(working, boxes)
		defer overlay.Close()
		if res.DebugImage, err = normalize.ImageFromMat(overlay); err != nil {
			return nil, newError(KindInvalidImage, res.RequestID, "failed to export debug image", err)
		}
	}
	return res, nil
}

func distinctNames(cands []names.Candidate) []string {
	seen := make(map[string]struct{}, len(cands))
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		if _, ok := seen[c.Text]; ok {
			continue
		}
		seen[c.Text] = struct{}{}
		out = append(out, c.Text)
	}
	return out
}
