package main

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config - tunable numeric thresholds for the geometry passes. These are
// thresholds, not modes; the defaults are the field-tested values.
type Config struct {
	AngleMargin   float64 // margin around angle limits, e.g. around 90 degree corners (degrees)
	ShortMargin   float64 // min length of short wall removed when on a straight line (meters)
	CornerMargin  float64 // max length of short wall rectified even outside 90 +/- AngleMargin (meters)
	RectifyMargin float64 // max node relocation during rectification (meters)

	SimplifyMargin float64 // minimum tolerance for buildings with curves (meters)

	CurveMarginMax   float64 // max angle within a curve (degrees)
	CurveMarginMin   float64 // min angle within a curve (degrees)
	CurveMarginNodes int     // minimum nodes making up a curve

	MarginHausdorff float64 // max deviation between matched polygons (meters)
	MarginTagged    float64 // max deviation when the existing building is tagged (meters)
	MarginArea      float64 // max area ratio between matched polygons
}

// DefaultConfig - thresholds as used for the Norwegian cadastral import.
func DefaultConfig() Config {
	return Config{
		AngleMargin:      8.0,
		ShortMargin:      0.20,
		CornerMargin:     1.0,
		RectifyMargin:    0.2,
		SimplifyMargin:   0.05,
		CurveMarginMax:   40.0,
		CurveMarginMin:   0.3,
		CurveMarginNodes: 3,
		MarginHausdorff:  10.0,
		MarginTagged:     5.0,
		MarginArea:       0.5,
	}
}

// LoadConfig - defaults with optional overrides from a .env file or the
// process environment.
func LoadConfig() Config {
	_ = godotenv.Load(".env")

	config := DefaultConfig()
	envFloat("ANGLE_MARGIN", &config.AngleMargin)
	envFloat("SHORT_MARGIN", &config.ShortMargin)
	envFloat("CORNER_MARGIN", &config.CornerMargin)
	envFloat("RECTIFY_MARGIN", &config.RectifyMargin)
	envFloat("SIMPLIFY_MARGIN", &config.SimplifyMargin)
	envFloat("CURVE_MARGIN_MAX", &config.CurveMarginMax)
	envFloat("CURVE_MARGIN_MIN", &config.CurveMarginMin)
	envInt("CURVE_MARGIN_NODES", &config.CurveMarginNodes)
	envFloat("MARGIN_HAUSDORFF", &config.MarginHausdorff)
	envFloat("MARGIN_TAGGED", &config.MarginTagged)
	envFloat("MARGIN_AREA", &config.MarginArea)
	return config
}

func envFloat(name string, target *float64) {
	if val := os.Getenv(name); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Println("[warn] ignoring invalid value for", name+":", val)
			return
		}
		*target = parsed
	}
}

func envInt(name string, target *int) {
	if val := os.Getenv(name); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Println("[warn] ignoring invalid value for", name+":", val)
			return
		}
		*target = parsed
	}
}
