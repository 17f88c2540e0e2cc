// Package config holds the redaction options record: defaults, YAML loading,
// environment overlay and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"card-redact/internal/names"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CARDREDACT_"

// fastUpscaleCap bounds the upscale factor in fast mode.
const fastUpscaleCap = 1.3

// Options configures one redaction run.
type Options struct {
	// Geometry
	MaxSide int     `yaml:"max_side"`
	Fast    bool    `yaml:"fast"`
	NoWarp  bool    `yaml:"no_warp"`
	Deskew  bool    `yaml:"deskew"`
	Strong  bool    `yaml:"strong"`
	Upscale float64 `yaml:"upscale"`

	// OCR
	Languages              []string `yaml:"langs"`
	ConfidenceFloorGeneral float64  `yaml:"confidence_floor_general"`
	ConfidenceFloorName    float64  `yaml:"confidence_floor_name"`

	// Detection
	Relaxed                bool   `yaml:"relaxed"`
	NameMode               string `yaml:"name_mode"`
	NameROI                string `yaml:"name_roi"`     // x,y,w,h in working-image pixels
	NameROIRel             string `yaml:"name_roi_rel"` // l,t,r,b as fractions
	NameRestrictBottomHalf bool   `yaml:"name_restrict_bottom_half"`
	Vocabulary             string `yaml:"vocabulary"` // optional YAML vocabulary path

	// Redaction
	CardPad        int  `yaml:"card_pad"`
	BlurMargin     int  `yaml:"blur_margin"`
	BlurKernelSize int  `yaml:"blur_kernel_size"`
	BlurBrandText  bool `yaml:"blur_brand_text"`
	BlurAllText    bool `yaml:"blur_all_text"`
	DrawDebugBoxes bool `yaml:"draw_debug_boxes"`

	Debug bool `yaml:"debug"`
}

// Defaults returns the command-line defaults.
func Defaults() Options {
	return Options{
		MaxSide:                1600,
		Deskew:                 true,
		Upscale:                1.9,
		Languages:              []string{"eng"},
		ConfidenceFloorGeneral: 25,
		ConfidenceFloorName:    10,
		NameMode:               string(names.ModeLoose),
		CardPad:                28,
		BlurMargin:             16,
		BlurKernelSize:         61,
	}
}

// Load reads options from a YAML file layered over Defaults. A missing file
// yields the defaults.
func Load(path string) (Options, error) {
	opts := Defaults()
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse config: %w", err)
	}
	return opts, nil
}

// Effective applies the fast profile: no perspective warp, no deskew and a
// capped upscale.
func (o Options) Effective() Options {
	if !o.Fast {
		return o
	}
	o.NoWarp = true
	o.Deskew = false
	o.Upscale = min(o.Upscale, fastUpscaleCap)
	return o
}

// Mode returns the parsed name mode, falling back to balanced when invalid.
func (o Options) Mode() names.Mode {
	m, err := names.ParseMode(o.NameMode)
	if err != nil {
		return names.ModeBalanced
	}
	return m
}

// SplitLanguages parses a "eng+kor" style list.
func SplitLanguages(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "+") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// WithFast returns a copy with the fast profile toggled.
func (o Options) WithFast(fast bool) Options {
	o.Fast = fast
	return o
}

// WithRelaxed returns a copy with relaxed 16-digit acceptance toggled.
func (o Options) WithRelaxed(relaxed bool) Options {
	o.Relaxed = relaxed
	return o
}

// WithNameMode returns a copy using the given name mode.
func (o Options) WithNameMode(m names.Mode) Options {
	o.NameMode = string(m)
	return o
}

// WithLanguages returns a copy with the OCR language list replaced.
func (o Options) WithLanguages(langs ...string) Options {
	o.Languages = append([]string(nil), langs...)
	return o
}

// WithNameROI returns a copy restricting names to an absolute region.
func (o Options) WithNameROI(x, y, w, h int) Options {
	o.NameROI = fmt.Sprintf("%d,%d,%d,%d", x, y, w, h)
	o.NameROIRel = ""
	return o
}
