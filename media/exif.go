package media

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// ExifData holds the camera and exposure fields extracted from an image.
// every field is optional; a field that fails to parse is simply absent
type ExifData struct {
	CameraMake   *string  `json:"camera_make,omitempty"`
	CameraModel  *string  `json:"camera_model,omitempty"`
	LensMake     *string  `json:"lens_make,omitempty"`
	LensModel    *string  `json:"lens_model,omitempty"`
	FocalLength  *float64 `json:"focal_length,omitempty"`
	Aperture     *float64 `json:"aperture,omitempty"`
	ShutterSpeed *string  `json:"shutter_speed,omitempty"`
	ISO          *int     `json:"iso,omitempty"`
	GPSLatitude  *float64 `json:"gps_latitude,omitempty"`
	GPSLongitude *float64 `json:"gps_longitude,omitempty"`
	TakenAt      *int64   `json:"taken_at,omitempty"`
}

// helper to safely get and convert a rational tag (like Aperture, FocalLength)
func getRational(exifData *exif.Exif, tagName exif.FieldName) *float64 {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil // Tag not found
	}
	// rational numbers are often stored as num/den
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		// sometimes stored as Int instead
		valInt, errInt := tag.Int(0)
		if errInt == nil {
			fVal := float64(valInt)
			return &fVal
		}
		return nil
	}
	val := float64(num) / float64(den)
	return &val
}

// helper to safely get and convert an integer tag (like ISO)
func getInt(exifData *exif.Exif, tagName exif.FieldName) *int {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	// ISO might be a slice, get the first value
	val, err := tag.Int(0)
	if err != nil {
		return nil
	}
	return &val
}

// helper to safely get a string tag, trimming null terminators
func getString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	// val string might have null chars at the end
	val := strings.TrimRight(tag.String(), "\x00")
	if val == "" {
		return nil
	}
	return &val
}

// helper to get Shutter Speed specifically, formatting it nicely
func getShutterSpeed(exifData *exif.Exif) *string {
	tag, err := exifData.Get(exif.ExposureTime)
	if err != nil || tag == nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return nil // Cannot represent as fraction
	}

	if num == 1 && den > 1 { // common case: 1/XXX
		s := fmt.Sprintf("1/%d", den)
		return &s
	}

	val := float64(num) / float64(den)
	if val >= 1.0 {
		s := fmt.Sprintf("%.1fs", val) // e.g., 1.5s, 30.0s
		return &s
	}
	s := fmt.Sprintf("%.4fs", val)
	return &s
}

// ExtractExif extracts camera metadata from the file. missing or corrupt EXIF
// blocks are not errors: both yield nil, distinguished only in the log
func ExtractExif(filePath string) *ExifData {
	file, err := os.Open(filePath)
	if err != nil {
		log.Printf("exif: failed to open %s: %v", filePath, err)
		return nil
	}
	defer file.Close()

	exifData, err := exif.Decode(file)
	if err != nil {
		// file might just lack EXIF data
		log.Printf("exif: no EXIF data found or error decoding EXIF for %s: %v", filePath, err)
		return nil
	}

	data := &ExifData{
		Aperture:     getRational(exifData, exif.FNumber),
		ShutterSpeed: getShutterSpeed(exifData),
		ISO:          getInt(exifData, exif.ISOSpeedRatings),
		FocalLength:  getRational(exifData, exif.FocalLength),
		LensMake:     getString(exifData, exif.LensMake),
		LensModel:    getString(exifData, exif.LensModel),
		CameraMake:   getString(exifData, exif.Make),
		CameraModel:  getString(exifData, exif.Model),
	}

	// LatLong already normalizes hemisphere references to signed decimal degrees
	lat, lon, err := exifData.LatLong()
	if err == nil {
		data.GPSLatitude = &lat
		data.GPSLongitude = &lon
	}

	dt, err := exifData.DateTime()
	if err == nil {
		ts := dt.Unix()
		data.TakenAt = &ts
	} else {
		log.Printf("exif: could not read DateTimeOriginal for %s: %v", filePath, err)
	}

	return data
}

// GetImageDimensions reads pixel dimensions without decoding the full image.
// returns nils when the header cannot be decoded
func GetImageDimensions(filePath string) (*int, *int) {
	file, err := os.Open(filePath)
	if err != nil {
		log.Printf("exif: failed to open %s for dimensions: %v", filePath, err)
		return nil, nil
	}
	defer file.Close()

	config, format, err := image.DecodeConfig(file)
	if err != nil {
		log.Printf("exif: Warning - could not decode config for dimensions of %s: %v", filePath, err)
		return nil, nil
	}
	w, h := config.Width, config.Height
	log.Printf("exif: decoded dimensions for %s (format: %s): %dx%d", filePath, format, w, h)
	return &w, &h
}
