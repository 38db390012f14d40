package cmd

import (
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/biometric"
	"github.com/kozaktomas/face-attendance/internal/biometric/dlib"
	"github.com/kozaktomas/face-attendance/internal/biometric/insightface"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/logger"
)

// buildStrategy turns the active preset into a matching strategy.
func buildStrategy(cfg *config.Config) (*biometric.Strategy, error) {
	opts, err := cfg.StrategyOptions()
	if err != nil {
		return nil, err
	}
	return biometric.NewStrategy(opts)
}

// buildDetector returns a detector that connects on first use.
func buildDetector(cfg *config.Config) (biometric.Detector, error) {
	switch cfg.Detector.Backend {
	case "insightface":
		return biometric.NewLazyDetector(func() (biometric.Detector, error) {
			return insightface.NewClient(cfg.Detector.InsightFaceURL), nil
		}), nil
	case "dlib":
		if !dlib.Available {
			return nil, fmt.Errorf("DETECTOR=dlib requires a binary built with -tags dlib")
		}
		return biometric.NewLazyDetector(func() (biometric.Detector, error) {
			rec, err := dlib.New(cfg.Detector.DlibModelsDir)
			if err != nil {
				return nil, err
			}
			return rec, nil
		}), nil
	}
	return nil, fmt.Errorf("unknown DETECTOR %q", cfg.Detector.Backend)
}

// buildResolver returns nil for the linear scan, which the service
// defaults to.
func buildResolver(cfg *config.Config, strategy *biometric.Strategy) (biometric.Resolver, error) {
	switch cfg.Face.Resolver {
	case "", "linear":
		return nil, nil
	case "hnsw":
		return &biometric.IndexedResolver{
			Metric:    strategy.Metric,
			Threshold: strategy.Threshold,
			Index:     database.NewHNSWIndex(strategy.Metric.Name()),
			K:         cfg.Face.HNSWCandidates,
		}, nil
	}
	return nil, fmt.Errorf("unknown RESOLVER_INDEX %q", cfg.Face.Resolver)
}

// buildService wires the pipeline and resolver around store.
func buildService(cfg *config.Config, store database.Store) (*attendance.Service, error) {
	strategy, err := buildStrategy(cfg)
	if err != nil {
		return nil, err
	}
	detector, err := buildDetector(cfg)
	if err != nil {
		return nil, err
	}
	resolver, err := buildResolver(cfg, strategy)
	if err != nil {
		return nil, err
	}

	logger.Info("matching configured",
		logger.LoggerOptions{Key: "strategy", Data: strategy.Name()},
		logger.LoggerOptions{Key: "metric", Data: strategy.Metric.Name()},
		logger.LoggerOptions{Key: "threshold", Data: strategy.Threshold},
		logger.LoggerOptions{Key: "detector", Data: cfg.Detector.Backend},
		logger.LoggerOptions{Key: "resolver", Data: cfg.Face.Resolver},
	)

	pipeline := biometric.NewPipeline(detector, strategy, cfg.Face.BlurThreshold)
	return attendance.NewService(store, pipeline, attendance.Options{
		Resolver: resolver,
		QRExpiry: time.Duration(cfg.QR.ExpiryMinutes) * time.Minute,
	}), nil
}
