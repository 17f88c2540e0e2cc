// Package main provides the card-redact command: it blurs the card number,
// expiry date and cardholder name on a photo of a payment card.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"card-redact/internal/config"
	"card-redact/internal/logging"
	"card-redact/internal/names"
	"card-redact/internal/ocr/tesseract"
	"card-redact/internal/pipeline"
	"card-redact/internal/version"
	"card-redact/internal/vocab"

	"github.com/disintegration/imaging"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	def := config.Defaults()
	imagePath := flag.String("image", "", "Path to card image (JPEG, PNG, WebP)")
	savePath := flag.String("save", "out_blurred.jpg", "Where to write the redacted image")
	debugPath := flag.String("debug_out", "out_debug.jpg", "Where to write the box overlay when -draw_boxes is set")
	manifestPath := flag.String("json", "", "Write the JSON manifest to this path (\"-\" for stdout)")
	configPath := flag.String("config", "", "Optional YAML options file")
	envPath := flag.String("env", ".env", "Optional dotenv file")
	showVersion := flag.Bool("version", false, "Print version and exit")

	langs := flag.String("langs", strings.Join(def.Languages, "+"), "OCR languages, e.g. eng or eng+kor")
	fast := flag.Bool("fast", def.Fast, "Skip warp and deskew, cap upscale")
	noWarp := flag.Bool("no_warp", def.NoWarp, "Skip perspective correction")
	deskew := flag.Bool("deskew", def.Deskew, "Correct small rotations")
	strong := flag.Bool("strong", def.Strong, "Extra bilateral denoise before OCR")
	upscale := flag.Float64("upscale", def.Upscale, "Upscale factor after normalisation")
	maxSide := flag.Int("max_side", def.MaxSide, "Longest side after the initial resize")
	conf := flag.Float64("conf", def.ConfidenceFloorGeneral, "General OCR confidence floor")
	nameConf := flag.Float64("name_conf", def.ConfidenceFloorName, "Name OCR confidence floor")
	relaxed := flag.Bool("relaxed", def.Relaxed, "Accept 16-digit numbers that fail Luhn")
	nameMode := flag.String("name_mode", def.NameMode, "Name shape mode: strict, balanced or loose")
	nameROI := flag.String("name_roi", def.NameROI, "Hard name region x,y,w,h in pixels")
	nameROIRel := flag.String("name_roi_rel", def.NameROIRel, "Hard name region l,t,r,b as fractions")
	nameBottomOnly := flag.Bool("name_bottom_only", def.NameRestrictBottomHalf, "Restrict names to the bottom half")
	vocabPath := flag.String("vocab", def.Vocabulary, "Optional YAML vocabulary file")
	cardPad := flag.Int("cardnum_pad", def.CardPad, "Padding around the card number band")
	blurMargin := flag.Int("blur_margin", def.BlurMargin, "Margin added around each blur box")
	blurKsize := flag.Int("blur_ksize", def.BlurKernelSize, "Gaussian kernel size (forced odd)")
	blurBrands := flag.Bool("blur_brands", def.BlurBrandText, "Also blur brand and boilerplate text")
	blurAllText := flag.Bool("blur_all_text", def.BlurAllText, "Blur every token when nothing targeted was found")
	drawBoxes := flag.Bool("draw_boxes", def.DrawDebugBoxes, "Write a debug image with box outlines")
	debug := flag.Bool("debug", def.Debug, "Verbose logging")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *imagePath == "" {
		fmt.Println("Usage: card-redact -image <path> [-save out.jpg] [-json manifest.json] [options]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load %s: %v", *envPath, err)
	}

	opts, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	opts = opts.ApplyEnv()

	// Flags given on the command line win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "langs":
			opts.Languages = config.SplitLanguages(*langs)
		case "fast":
			opts.Fast = *fast
		case "no_warp":
			opts.NoWarp = *noWarp
		case "deskew":
			opts.Deskew = *deskew
		case "strong":
			opts.Strong = *strong
		case "upscale":
			opts.Upscale = *upscale
		case "max_side":
			opts.MaxSide = *maxSide
		case "conf":
			opts.ConfidenceFloorGeneral = *conf
		case "name_conf":
			opts.ConfidenceFloorName = *nameConf
		case "relaxed":
			opts.Relaxed = *relaxed
		case "name_mode":
			opts.NameMode = *nameMode
		case "name_roi":
			opts.NameROI = *nameROI
		case "name_roi_rel":
			opts.NameROIRel = *nameROIRel
		case "name_bottom_only":
			opts.NameRestrictBottomHalf = *nameBottomOnly
		case "vocab":
			opts.Vocabulary = *vocabPath
		case "cardnum_pad":
			opts.CardPad = *cardPad
		case "blur_margin":
			opts.BlurMargin = *blurMargin
		case "blur_ksize":
			opts.BlurKernelSize = *blurKsize
		case "blur_brands":
			opts.BlurBrandText = *blurBrands
		case "blur_all_text":
			opts.BlurAllText = *blurAllText
		case "draw_boxes":
			opts.DrawDebugBoxes = *drawBoxes
		case "debug":
			opts.Debug = *debug
		}
	})
	if err := opts.Validate(); err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	logger := logging.New("card-redact")
	logger.SetDebug(opts.Debug)
	logger.Info("starting", "version", version.Version, "image", *imagePath)

	v := vocab.Default()
	if opts.Vocabulary != "" {
		if v, err = vocab.Load(opts.Vocabulary); err != nil {
			log.Fatalf("Failed to load vocabulary: %v", err)
		}
	}

	engine, err := tesseract.NewEngine(tesseract.LanguageCodes(opts.Languages)...)
	if err != nil {
		log.Fatalf("Failed to start OCR: %v", err)
	}
	defer engine.Close()

	img, err := pipeline.DecodeFile(*imagePath)
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := pipeline.New(engine, v, names.DefaultScorer{}, logger)
	res, err := p.Run(ctx, img, opts)
	if err != nil {
		log.Fatalf("Redaction failed (%s): %v", pipeline.KindOf(err), err)
	}

	if err := imaging.Save(res.Image, *savePath); err != nil {
		log.Fatalf("Failed to save %s: %v", *savePath, err)
	}
	if res.DebugImage != nil {
		if err := imaging.Save(res.DebugImage, *debugPath); err != nil {
			log.Fatalf("Failed to save %s: %v", *debugPath, err)
		}
	}

	report(res, *savePath)

	if *manifestPath != "" {
		if err := writeManifest(res, *manifestPath); err != nil {
			log.Fatalf("Failed to write manifest: %v", err)
		}
	}
}

// report prints the human summary. Card numbers only ever appear masked.
func report(res *pipeline.Result, savePath string) {
	switch res.Outcome {
	case pipeline.OutcomeNoText:
		fmt.Println("No text detected.")
	case pipeline.OutcomeNoCard:
		fmt.Println("No card number detected.")
	}

	for _, c := range res.Cards {
		check := "Luhn OK"
		if !c.LuhnValid {
			check = "RELAXED"
		}
		brand := c.Brand
		if brand == "" {
			brand = "Unknown"
		}
		fmt.Printf("Card: %s  [%s, %s]\n", c.Masked, brand, check)
	}
	for _, e := range res.Expiry {
		fmt.Printf("Expiry: %s\n", e)
	}
	for _, n := range res.Names {
		fmt.Printf("Name: %s\n", n)
	}
	if res.BlurAll {
		fmt.Println("Nothing targeted was found; all text was blurred.")
	}
	fmt.Printf("Blurred %d region(s) -> %s\n", len(res.Boxes), savePath)
}

func writeManifest(res *pipeline.Result, path string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
