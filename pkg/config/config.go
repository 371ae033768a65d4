// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config - главная структура конфигурации
type Config struct {
	App     AppConfig     `koanf:"app"`
	Log     LogConfig     `koanf:"log"`
	Solver  SolverConfig  `koanf:"solver"`
	OSM     OSMConfig     `koanf:"osm"`
	Cache   CacheConfig   `koanf:"cache"`
	Metrics MetricsConfig `koanf:"metrics"`
	Tracing TracingConfig `koanf:"tracing"`
	Export  ExportConfig  `koanf:"export"`
}

// AppConfig - общие настройки приложения
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // путь к файлу логов
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // количество бэкапов
	MaxAge     int    `koanf:"max_age"`     // дней
	Compress   bool   `koanf:"compress"`
}

// SolverConfig - настройки решателя маршрута
type SolverConfig struct {
	Mode               string        `koanf:"mode"`                 // undirected, directed
	IgnoreOneway       bool          `koanf:"ignore_oneway"`        // трактовать все дороги как двусторонние
	Workers            int           `koanf:"workers"`              // воркеры матрицы расстояний (0 = NumCPU)
	Timeout            time.Duration `koanf:"timeout"`              // общий дедлайн решения
	MaxSnapDistance    float64       `koanf:"max_snap_distance"`    // метры, 0 = без ограничения
	ExactMatchingLimit int           `koanf:"exact_matching_limit"` // порог точного паросочетания по числу нечётных вершин
	ImprovementSweeps  int           `koanf:"improvement_sweeps"`   // проходы локального улучшения жадного паросочетания
	DropBlockers       bool          `koanf:"drop_blockers"`        // отбрасывать обязательные рёбра вне доминирующей SCC
}

// OSMConfig - правила отбора дорог из OpenStreetMap
type OSMConfig struct {
	RequiredHighways []string `koanf:"required_highways"` // классы дорог, обязательные к проезду
	ExcludedHighways []string `koanf:"excluded_highways"` // классы, исключаемые из графа целиком
}

// CacheConfig - настройки кэширования
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // для in-memory
}

// Address возвращает адрес кэша
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MetricsConfig - настройки Prometheus метрик
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig - настройки OpenTelemetry
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// ExportConfig - настройки выгрузки маршрута
type ExportConfig struct {
	GPX GPXConfig `koanf:"gpx"`
	PDF PDFConfig `koanf:"pdf"`
}

// GPXConfig - настройки GPX трека
type GPXConfig struct {
	Creator string `koanf:"creator"`
	Version string `koanf:"version"` // 1.0, 1.1
}

// PDFConfig конфигурация PDF генератора маршрутной книжки
type PDFConfig struct {
	PageSize          string  `koanf:"page_size"`   // A4, Letter, Legal
	Orientation       string  `koanf:"orientation"` // portrait, landscape
	MarginTop         float64 `koanf:"margin_top"`  // mm
	MarginBottom      float64 `koanf:"margin_bottom"`
	MarginLeft        float64 `koanf:"margin_left"`
	MarginRight       float64 `koanf:"margin_right"`
	EnablePageNumbers bool    `koanf:"enable_page_numbers"`
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	validModes := map[string]bool{"undirected": true, "directed": true}
	if !validModes[strings.ToLower(c.Solver.Mode)] {
		errs = append(errs, fmt.Sprintf("solver.mode must be one of: undirected, directed, got %s", c.Solver.Mode))
	}

	if c.Solver.Workers < 0 {
		errs = append(errs, fmt.Sprintf("solver.workers must be non-negative, got %d", c.Solver.Workers))
	}

	if c.Solver.MaxSnapDistance < 0 {
		errs = append(errs, "solver.max_snap_distance must be non-negative")
	}

	// Точное паросочетание перебирает 2^n состояний, выше 24 не считаем.
	if c.Solver.ExactMatchingLimit < 0 || c.Solver.ExactMatchingLimit > 24 {
		errs = append(errs, fmt.Sprintf("solver.exact_matching_limit must be between 0 and 24, got %d", c.Solver.ExactMatchingLimit))
	}

	validDrivers := map[string]bool{"memory": true, "redis": true}
	if c.Cache.Enabled && !validDrivers[strings.ToLower(c.Cache.Driver)] {
		errs = append(errs, fmt.Sprintf("cache.driver must be one of: memory, redis, got %s", c.Cache.Driver))
	}

	validPageSizes := map[string]bool{"A4": true, "Letter": true, "Legal": true, "A3": true}
	if c.Export.PDF.PageSize != "" && !validPageSizes[c.Export.PDF.PageSize] {
		errs = append(errs, fmt.Sprintf("export.pdf.page_size must be one of: A4, Letter, Legal, A3, got %s", c.Export.PDF.PageSize))
	}

	validOrientations := map[string]bool{"portrait": true, "landscape": true}
	if c.Export.PDF.Orientation != "" && !validOrientations[c.Export.PDF.Orientation] {
		errs = append(errs, fmt.Sprintf("export.pdf.orientation must be one of: portrait, landscape, got %s", c.Export.PDF.Orientation))
	}

	validGPXVersions := map[string]bool{"1.0": true, "1.1": true}
	if c.Export.GPX.Version != "" && !validGPXVersions[c.Export.GPX.Version] {
		errs = append(errs, fmt.Sprintf("export.gpx.version must be one of: 1.0, 1.1, got %s", c.Export.GPX.Version))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment проверяет режим разработки
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction проверяет продакшн режим
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
