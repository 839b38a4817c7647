package config

import (
	"os"
	"strconv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int
	BodyLimitMB  int
	CORSOrigins  string

	// ItemsDir: корень каталогов items/<ID>/.
	ItemsDir string
	// ManifestDB: путь sqlite журнала; пустая строка выключает журнал.
	ManifestDB string

	RasterBackend string
	RSVGBin       string
	CanvasSize    float64
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "3001"),
		Environment:   getEnv("ENV", "development"),
		ReadTimeout:   getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout:  getEnvAsInt("WRITE_TIMEOUT", 30),
		BodyLimitMB:   getEnvAsInt("BODY_LIMIT_MB", 4),
		CORSOrigins:   getEnv("CORS_ORIGINS", "*"),
		ItemsDir:      getEnv("ITEMS_DIR", "items"),
		ManifestDB:    lookupEnv("MANIFEST_DB", "data/db/manifest.db"),
		RasterBackend: getEnv("RASTER_BACKEND", "native"),
		RSVGBin:       getEnv("RSVG_BIN", "rsvg-convert"),
		CanvasSize:    float64(getEnvAsInt("CANVAS_SIZE", 400)),
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

// lookupEnv, в отличие от getEnv, принимает явно пустое значение.
func lookupEnv(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
