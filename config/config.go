package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

const (
	defaultImageMaxSize       = 1200
	defaultImageJpegQuality   = 80
	defaultImageFetchTimeout  = 5  // seconds, per remote image
	defaultGalleryOptimizeCap = 20 // images optimized per memorial

	defaultPageLoadTimeout   = 30 // seconds
	defaultImageWaitPerImage = 3  // seconds
	defaultImageWaitTotal    = 8  // seconds
	defaultPDFRenderTimeout  = 60 // seconds
)

type Config struct {
	// server
	Port   string
	AppEnv string

	// database path
	DatabasePath string

	// auth
	JWTSecret         string
	JWTExpirationDays int

	// headless browser
	ChromePath string

	// image optimization settings
	ImageMaxSize       int
	ImageJpegQuality   int
	ImageFetchTimeout  time.Duration
	GalleryOptimizeCap int

	// PDF rendering timeouts
	PageLoadTimeout   time.Duration
	ImageWaitPerImage time.Duration
	ImageWaitTotal    time.Duration
	PDFRenderTimeout  time.Duration
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	cfg := Config{
		Port:   getEnvOrDefault("PORT", "3000"),
		AppEnv: getEnvOrDefault("APP_ENV", "development"),

		DatabasePath: getEnvOrDefault("DATABASE_PATH", "memorials.db"),

		JWTSecret:         secret,
		JWTExpirationDays: getEnvIntOrDefault("JWT_EXPIRATION_DAYS", 7),

		ChromePath: os.Getenv("CHROME_BIN"),

		ImageMaxSize:       getEnvIntOrDefault("IMAGE_MAX_SIZE", defaultImageMaxSize),
		ImageJpegQuality:   getEnvIntOrDefault("IMAGE_JPEG_QUALITY", defaultImageJpegQuality),
		ImageFetchTimeout:  time.Duration(getEnvIntOrDefault("IMAGE_FETCH_TIMEOUT_SECONDS", defaultImageFetchTimeout)) * time.Second,
		GalleryOptimizeCap: getEnvIntOrDefault("GALLERY_OPTIMIZE_CAP", defaultGalleryOptimizeCap),

		PageLoadTimeout:   time.Duration(getEnvIntOrDefault("PDF_PAGE_LOAD_TIMEOUT_SECONDS", defaultPageLoadTimeout)) * time.Second,
		ImageWaitPerImage: time.Duration(getEnvIntOrDefault("PDF_IMAGE_WAIT_SECONDS", defaultImageWaitPerImage)) * time.Second,
		ImageWaitTotal:    time.Duration(getEnvIntOrDefault("PDF_IMAGE_WAIT_TOTAL_SECONDS", defaultImageWaitTotal)) * time.Second,
		PDFRenderTimeout:  time.Duration(getEnvIntOrDefault("PDF_RENDER_TIMEOUT_SECONDS", defaultPDFRenderTimeout)) * time.Second,
	}

	return cfg, nil
}

// IsProduction reports whether error responses should omit diagnostic detail.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}
