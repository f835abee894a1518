package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/carton-vision/assets"
	"github.com/soocke/carton-vision/config"
	"github.com/soocke/carton-vision/domain/annotate"
	"github.com/soocke/carton-vision/domain/capture"
	"github.com/soocke/carton-vision/domain/detection"
	"github.com/soocke/carton-vision/domain/ocr"
	"github.com/soocke/carton-vision/domain/ocr/tesseract"
	"github.com/soocke/carton-vision/domain/opencv"
	"github.com/soocke/carton-vision/domain/pipeline"
	"github.com/soocke/carton-vision/domain/sessionlog"
	"github.com/soocke/carton-vision/ui/model"
)

// AppContainer assembles the pipeline collaborators shared by the windowed
// app and the headless runner. Views and presenters are attached by the caller.
type AppContainer struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
	SessionID  string

	Classes    *detection.ClassTable
	Detector   *opencv.YOLODetector
	OCR        *tesseract.Engine
	Recognizer *ocr.SafeRecognizer
	Annotator  annotate.Annotator
	Persister  annotate.Persister
	Opener     capture.Opener

	Session   *pipeline.Session
	Processor *pipeline.Processor
	Cadence   pipeline.Cadence

	Sources      *model.SourceModel
	SessionModel *model.SessionModel

	closeOnce sync.Once
	closeErr  error
}

// BuildContainer loads the models and wires the processor. A missing detection
// model is fatal; a missing OCR engine degrades every region to "Not detected".
func BuildContainer(cfg *config.Config, cfgPath string, logger *slog.Logger) (*AppContainer, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	logger = logger.With("session", id)
	c := &AppContainer{Config: cfg, ConfigPath: cfgPath, Logger: logger, SessionID: id}

	classes, err := assets.LoadClasses(cfg.ClassesPath)
	if err != nil {
		logger.Warn("classes load failed, using embedded table", "path", cfg.ClassesPath, "error", err)
		if classes, err = assets.LoadClasses(""); err != nil {
			return nil, fmt.Errorf("load classes: %w", err)
		}
	}
	c.Classes = classes

	det, err := opencv.NewYOLO(opencv.YOLOConfig{
		ModelPath: cfg.ModelPath,
		NMSThresh: float32(cfg.NMSThreshold),
		InputSize: cfg.InputSize,
	}, classes, logger)
	if err != nil {
		return nil, fmt.Errorf("load detector: %w", err)
	}
	c.Detector = det

	var engine ocr.Recognizer
	if eng, err := tesseract.New(tesseract.Config{Language: cfg.OCRLanguage, TessdataPrefix: cfg.TessdataPrefix}); err != nil {
		logger.Error("ocr engine unavailable", "error", err)
	} else {
		c.OCR = eng
		engine = eng
		logger.Info("ocr engine ready", "version", eng.Version(), "lang", cfg.OCRLanguage)
	}
	var pre *ocr.Preprocessor
	if cfg.OCRPreprocess {
		pre = ocr.DefaultPreprocessor()
	}
	c.Recognizer = ocr.NewSafeRecognizer(engine, pre, logger)

	style, err := annotate.ParseStyle(cfg.BoxColor, cfg.TextColor)
	if err != nil {
		logger.Warn("annotation colors invalid, using defaults", "error", err)
		style = annotate.DefaultStyle()
	}
	c.Annotator = opencv.NewAnnotator(style)
	if cfg.SaveFrames {
		c.Persister = annotate.NewDirPersister(cfg.OutputDir)
	}
	c.Opener = opencv.OpenReader

	c.Session = pipeline.NewSession(sessionlog.New(), logger)
	c.Processor = pipeline.NewProcessor(c.Session, det, c.Recognizer, c.Annotator, c.Persister, nil,
		pipeline.Options{Threshold: cfg.ConfidenceThreshold, Acceptance: cfg.OCRAcceptance}, logger)
	c.Cadence = pipeline.Cadence{Run: cfg.TickInterval(), Idle: cfg.IdleInterval()}

	c.Sources = &model.SourceModel{}
	c.SessionModel = model.NewSessionModel()
	return c, nil
}

// ApplyConfig pushes thresholds edited at runtime into the processor.
func (c *AppContainer) ApplyConfig(cfg *config.Config) {
	if c == nil || cfg == nil || c.Processor == nil {
		return
	}
	c.Processor.SetOptions(pipeline.Options{Threshold: cfg.ConfidenceThreshold, Acceptance: cfg.OCRAcceptance})
	c.Logger.Info("thresholds updated", "confidence", cfg.ConfidenceThreshold, "ocr_acceptance", cfg.OCRAcceptance)
}

// Interval is the scheduler cadence for the current session state.
func (c *AppContainer) Interval() time.Duration {
	if c == nil || c.Session == nil {
		return pipeline.DefaultIdleInterval
	}
	return c.Cadence.Next(c.Session.State())
}

// Close releases the source, the detector and the OCR engine. The scheduler
// must be stopped first.
func (c *AppContainer) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		var errs []error
		if c.Session != nil {
			errs = append(errs, c.Session.Close())
		}
		if c.Detector != nil {
			errs = append(errs, c.Detector.Close())
		}
		if c.OCR != nil {
			errs = append(errs, c.OCR.Close())
		}
		c.closeErr = errors.Join(errs...)
		if c.Logger == nil {
			return
		}
		stats := c.Processor.Stats()
		c.Logger.Info("shutdown",
			"ticks", stats.Ticks,
			"processed", stats.Processed,
			"detections", stats.Detections,
			"records", c.Session.Log().Len(),
			"error", c.closeErr,
		)
	})
	return c.closeErr
}
