package config

import (
	"errors"
	"fmt"

	"card-redact/internal/names"
)

// Validate rejects option values no run could honour.
func (o Options) Validate() error {
	if o.MaxSide <= 0 {
		return fmt.Errorf("max_side must be positive, got %d", o.MaxSide)
	}
	if o.Upscale <= 0 {
		return fmt.Errorf("upscale must be positive, got %g", o.Upscale)
	}
	if o.ConfidenceFloorGeneral < 0 || o.ConfidenceFloorGeneral > 100 {
		return fmt.Errorf("confidence_floor_general must be within 0..100, got %g", o.ConfidenceFloorGeneral)
	}
	if o.ConfidenceFloorName < 0 || o.ConfidenceFloorName > 100 {
		return fmt.Errorf("confidence_floor_name must be within 0..100, got %g", o.ConfidenceFloorName)
	}
	if _, err := names.ParseMode(o.NameMode); err != nil {
		return err
	}
	if o.CardPad < 0 {
		return fmt.Errorf("card_pad must not be negative, got %d", o.CardPad)
	}
	if o.BlurMargin < 0 {
		return fmt.Errorf("blur_margin must not be negative, got %d", o.BlurMargin)
	}
	if o.BlurKernelSize <= 0 {
		return fmt.Errorf("blur_kernel_size must be positive, got %d", o.BlurKernelSize)
	}
	if len(o.Languages) == 0 {
		return errors.New("at least one OCR language must be configured")
	}
	if o.NameROI != "" {
		if _, err := ParseAbsROI(o.NameROI); err != nil {
			return err
		}
	}
	if o.NameROIRel != "" {
		if _, err := ParseRelROI(o.NameROIRel); err != nil {
			return err
		}
	}
	return nil
}
