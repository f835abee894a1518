package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the detection pipeline and window.
// Fields may be loaded from a JSON file and overridden by environment variables
// (optionally sourced from a .env file) and command-line flags.
type Config struct {
	Debug bool `json:"debug"`

	// Detector
	ModelPath           string  `json:"model_path"`
	ClassesPath         string  `json:"classes_path"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	NMSThreshold        float64 `json:"nms_threshold"`
	InputSize           int     `json:"input_size"`

	// Text recognition
	OCRAcceptance  float64 `json:"ocr_acceptance"`
	OCRLanguage    string  `json:"ocr_language"`
	OCRPreprocess  bool    `json:"ocr_preprocess"`
	TessdataPrefix string  `json:"tessdata_prefix"`

	// Outputs
	OutputDir  string `json:"output_dir"`
	LogDir     string `json:"log_dir"`
	SaveFrames bool   `json:"save_frames"`

	// Source and loop cadence
	DeviceID   int `json:"device_id"`
	TickMS     int `json:"tick_ms"`
	IdleTickMS int `json:"idle_tick_ms"`

	// Window and overlay
	WindowWidth  int    `json:"window_width"`
	WindowHeight int    `json:"window_height"`
	BoxColor     string `json:"box_color"`
	TextColor    string `json:"text_color"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:               false,
		ModelPath:           "models/carton.onnx",
		ClassesPath:         "",
		ConfidenceThreshold: 0.65,
		NMSThreshold:        0.45,
		InputSize:           640,
		OCRAcceptance:       0.5,
		OCRLanguage:         "eng",
		OCRPreprocess:       false,
		TessdataPrefix:      "",
		OutputDir:           "annotated_results",
		LogDir:              ".",
		SaveFrames:          true,
		DeviceID:            0,
		TickMS:              10,
		IdleTickMS:          100,
		WindowWidth:         1100,
		WindowHeight:        800,
		BoxColor:            "#00ff00",
		TextColor:           "#0000ff",
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		c.ConfidenceThreshold = 0.65
	}
	if c.NMSThreshold <= 0 || c.NMSThreshold > 1 {
		c.NMSThreshold = 0.45
	}
	if c.InputSize < 32 {
		c.InputSize = 640
	}
	if c.OCRAcceptance < 0 || c.OCRAcceptance > 1 {
		c.OCRAcceptance = 0.5
	}
	if strings.TrimSpace(c.OCRLanguage) == "" {
		c.OCRLanguage = "eng"
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		c.OutputDir = "annotated_results"
	}
	if strings.TrimSpace(c.LogDir) == "" {
		c.LogDir = "."
	}
	if c.DeviceID < 0 {
		c.DeviceID = 0
	}
	if c.TickMS <= 0 {
		c.TickMS = 10
	}
	if c.IdleTickMS <= 0 {
		c.IdleTickMS = 100
	}
	if c.WindowWidth < 200 {
		c.WindowWidth = 1100
	}
	if c.WindowHeight < 200 {
		c.WindowHeight = 800
	}
	if c.BoxColor == "" {
		c.BoxColor = "#00ff00"
	}
	if c.TextColor == "" {
		c.TextColor = "#0000ff"
	}
	return nil
}

// TickInterval is the loop cadence while a source is bound.
func (c *Config) TickInterval() time.Duration { return time.Duration(c.TickMS) * time.Millisecond }

// IdleInterval is the loop cadence while no source is bound.
func (c *Config) IdleInterval() time.Duration {
	return time.Duration(c.IdleTickMS) * time.Millisecond
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
// Environment overrides are applied after the file in both cases.
func Load(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	cfg.ApplyEnv()
	_ = cfg.Validate()
	return cfg, err
}

// ReadFile reads path without environment overrides. A missing file or empty
// path yields DefaultConfig().
func ReadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return DefaultConfig(), err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// SaveThresholds stores the runtime-editable thresholds in the file at path,
// leaving every other field as it is on disk. Environment overrides held in
// memory are never written back.
func SaveThresholds(path string, confidence, acceptance float64) error {
	cfg, err := ReadFile(path)
	if err != nil {
		return err
	}
	cfg.ConfidenceThreshold = confidence
	cfg.OCRAcceptance = acceptance
	return cfg.Save(path)
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// LoadDotEnv loads the first .env found in the working directory or next to the
// executable. Variables already present in the environment win.
func LoadDotEnv() {
	envPaths := []string{".env"}
	if execPath, err := os.Executable(); err == nil {
		envPaths = append(envPaths, filepath.Join(filepath.Dir(execPath), ".env"))
	}
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			break
		}
	}
}

// ApplyEnv overrides fields from CARTON_* environment variables. Unparseable
// numeric values are ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CARTON_MODEL_PATH"); v != "" {
		c.ModelPath = v
	}
	if v := os.Getenv("CARTON_CLASSES_PATH"); v != "" {
		c.ClassesPath = v
	}
	if v := os.Getenv("CARTON_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("CARTON_LOG_DIR"); v != "" {
		c.LogDir = v
	}
	if v := os.Getenv("CARTON_OCR_LANG"); v != "" {
		c.OCRLanguage = v
	}
	if v := os.Getenv("CARTON_TESSDATA_PREFIX"); v != "" {
		c.TessdataPrefix = v
	}
	if v, ok := envFloat("CARTON_CONFIDENCE"); ok {
		c.ConfidenceThreshold = v
	}
	if v, ok := envInt("CARTON_DEVICE"); ok {
		c.DeviceID = v
	}
	if v, ok := envBool("CARTON_DEBUG"); ok {
		c.Debug = v
	}
}

func envFloat(key string) (float64, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envInt(key string) (int, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return i, true
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	default:
		return false, false
	}
}
