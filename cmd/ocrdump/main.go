// Command ocrdump runs normalisation and both OCR passes on a card image and
// prints what the detectors see: tokens, lines, masked card candidates and
// name line scores. Nothing is blurred or written.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"card-redact/internal/cardnum"
	"card-redact/internal/config"
	"card-redact/internal/expiry"
	"card-redact/internal/logging"
	"card-redact/internal/names"
	"card-redact/internal/normalize"
	"card-redact/internal/ocr"
	"card-redact/internal/ocr/tesseract"
	"card-redact/internal/pipeline"
	"card-redact/internal/textline"
	"card-redact/internal/vocab"
)

func main() {
	imagePath := flag.String("image", "", "Path to card image")
	configPath := flag.String("config", "", "Optional YAML options file")
	langs := flag.String("langs", "", "OCR languages, e.g. eng+kor (overrides config)")
	fast := flag.Bool("fast", false, "Use the fast profile")
	relaxed := flag.Bool("relaxed", false, "Accept 16-digit numbers that fail Luhn")
	nameMode := flag.String("name_mode", "", "Name shape mode: strict, balanced or loose (overrides config)")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: ocrdump -image <path> [-config options.yaml] [-langs eng+kor] [-fast] [-relaxed] [-name_mode loose]")
		os.Exit(1)
	}

	opts, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	opts = opts.ApplyEnv()
	if *langs != "" {
		opts = opts.WithLanguages(config.SplitLanguages(*langs)...)
	}
	if *nameMode != "" {
		mode, err := names.ParseMode(*nameMode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid name mode: %v\n", err)
			os.Exit(1)
		}
		opts = opts.WithNameMode(mode)
	}
	opts = opts.WithRelaxed(*relaxed || opts.Relaxed).WithFast(*fast || opts.Fast).Effective()
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid options: %v\n", err)
		os.Exit(1)
	}

	img, err := pipeline.DecodeFile(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	src, err := normalize.MatFromImage(img)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to convert image: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	norm, err := normalize.Normalize(src, normalize.Options{
		MaxSide: opts.MaxSide,
		NoWarp:  opts.NoWarp,
		Upscale: opts.Upscale,
		Deskew:  opts.Deskew,
		Strong:  opts.Strong,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Normalisation failed: %v\n", err)
		os.Exit(1)
	}
	defer norm.Close()

	w, h := norm.Size()
	fmt.Printf("Working image: %dx%d  geometry=%s  deskew=%v (%.2f deg)\n",
		w, h, norm.Geometry, norm.Deskew.Applied, norm.Deskew.Angle)

	engine, err := tesseract.NewEngine(tesseract.LanguageCodes(opts.Languages)...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start OCR: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	general, err := normalize.ImageFromMat(norm.Gray)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to export gray image: %v\n", err)
		os.Exit(1)
	}
	emphasis, err := normalize.ImageFromMat(norm.NameGray)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to export name image: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New("ocrdump")
	logger.SetDebug(opts.Debug)
	tokens, err := ocr.NewAdapter(engine, logger).Acquire(context.Background(), general, emphasis, ocr.AcquireOptions{
		GeneralFloor: opts.ConfidenceFloorGeneral,
		NameFloor:    opts.ConfidenceFloorName,
		Languages:    opts.Languages,
		Fast:         opts.Fast,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "OCR failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nTokens (%d):\n", len(tokens))
	fmt.Printf("%-4s %-8s %6s %-22s %s\n", "#", "Pass", "Conf", "Box", "Text")
	for i, t := range tokens {
		r := t.Rect()
		text := t.Text
		if d := cardnum.DigitText(text); len(d) >= 3 {
			// Digit runs are masked so dumps can be shared.
			text = strings.Repeat("#", len(d))
		}
		fmt.Printf("%-4d %-8s %6.1f %-22s %q\n", i, t.Pass, t.Confidence,
			fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height), text)
	}

	v := vocab.Default()
	if opts.Vocabulary != "" {
		if v, err = vocab.Load(opts.Vocabulary); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load vocabulary: %v\n", err)
			os.Exit(1)
		}
	}

	cards := cardnum.Find(tokens, cardnum.Options{Relaxed: opts.Relaxed, Tolerance: textline.DefaultTolerance})
	fmt.Printf("\nCard candidates (%d):\n", len(cards))
	for _, c := range cards {
		s := cardnum.Summarize(c, v)
		fmt.Printf("  %s  brand=%q luhn=%v conf=%.1f tokens=%v\n", s.Masked, s.Brand, s.LuhnValid, c.AvgConfidence, c.TokenIndices)
	}

	frame := names.Frame{Width: w, Height: h, Mode: opts.Mode()}
	if len(cards) > 0 {
		if b, ok := cardnum.Band(tokens, cards[0], opts.CardPad, w, h); ok {
			frame.Band = &b
			fmt.Printf("Card band: (%d,%d %dx%d)\n", b.X, b.Y, b.Width, b.Height)
		}
	}

	fmt.Printf("\nExpiry: %v\n", expiry.Texts(expiry.Find(tokens)))

	lines := textline.Build(tokens, w, h, textline.DefaultTolerance)
	fmt.Printf("\nLines (%d):\n", len(lines))
	scorer := names.DefaultScorer{}
	for _, l := range lines {
		mark := " "
		if names.IsNameCandidate(l.Text, v, frame.Mode) {
			mark = "*"
		}
		fmt.Printf("  %s score=%6.2f  %q\n", mark, scorer.Score(l, frame), l.Text)
	}

	if len(cards) > 0 {
		soft := names.SoftROI(w, h, frame.Band)
		hard, err := opts.HardROI(w, h)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid name region: %v\n", err)
			os.Exit(1)
		}
		found := names.NewDetector(v, scorer).Detect(tokens, lines, w, h, names.Options{
			Mode:      opts.Mode(),
			NameFloor: opts.ConfidenceFloorName,
			Band:      frame.Band,
			SoftROI:   &soft,
			HardROI:   hard,
		})
		fmt.Printf("\nNames (%d):\n", len(found))
		for _, c := range found {
			fmt.Printf("  %q score=%.2f tokens=%v\n", c.Text, c.Score, c.TokenIndices)
		}
	}
}
