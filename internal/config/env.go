package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv overlays CARDREDACT_* environment variables. Unset or unparsable
// values leave the current setting in place.
func (o Options) ApplyEnv() Options {
	o.MaxSide = getEnvAsIntOrDefault("MAX_SIDE", o.MaxSide)
	o.Fast = getEnvAsBoolOrDefault("FAST", o.Fast)
	o.NoWarp = getEnvAsBoolOrDefault("NO_WARP", o.NoWarp)
	o.Deskew = getEnvAsBoolOrDefault("DESKEW", o.Deskew)
	o.Strong = getEnvAsBoolOrDefault("STRONG", o.Strong)
	o.Upscale = getEnvAsFloatOrDefault("UPSCALE", o.Upscale)
	if langs := getEnvOrDefault("LANGS", ""); langs != "" {
		o.Languages = SplitLanguages(langs)
	}
	o.ConfidenceFloorGeneral = getEnvAsFloatOrDefault("CONF", o.ConfidenceFloorGeneral)
	o.ConfidenceFloorName = getEnvAsFloatOrDefault("NAME_CONF", o.ConfidenceFloorName)
	o.Relaxed = getEnvAsBoolOrDefault("RELAXED", o.Relaxed)
	o.NameMode = getEnvOrDefault("NAME_MODE", o.NameMode)
	o.NameROI = getEnvOrDefault("NAME_ROI", o.NameROI)
	o.NameROIRel = getEnvOrDefault("NAME_ROI_REL", o.NameROIRel)
	o.NameRestrictBottomHalf = getEnvAsBoolOrDefault("NAME_BOTTOM_ONLY", o.NameRestrictBottomHalf)
	o.Vocabulary = getEnvOrDefault("VOCABULARY", o.Vocabulary)
	o.CardPad = getEnvAsIntOrDefault("CARD_PAD", o.CardPad)
	o.BlurMargin = getEnvAsIntOrDefault("BLUR_MARGIN", o.BlurMargin)
	o.BlurKernelSize = getEnvAsIntOrDefault("BLUR_KSIZE", o.BlurKernelSize)
	o.BlurBrandText = getEnvAsBoolOrDefault("BLUR_BRANDS", o.BlurBrandText)
	o.BlurAllText = getEnvAsBoolOrDefault("BLUR_ALL_TEXT", o.BlurAllText)
	o.DrawDebugBoxes = getEnvAsBoolOrDefault("DRAW_BOXES", o.DrawDebugBoxes)
	o.Debug = getEnvAsBoolOrDefault("DEBUG", o.Debug)
	return o
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(EnvPrefix + key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnvOrDefault(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnvOrDefault(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnvOrDefault(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
