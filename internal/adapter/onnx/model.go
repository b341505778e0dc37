// Package onnx wraps the pre-trained wildfire-risk classifier behind a
// synchronous predict call. The model artifact is an ONNX binary classifier
// whose integration contract is fixed: input tensor "float_input" of shape
// [1,5], output tensor "output" holding a two-class probability vector where
// index 1 is the risk class.
package onnx

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/couchcryptid/enviro-risk-service/internal/domain"
	"github.com/couchcryptid/enviro-risk-service/internal/observability"
)

const sourceName = "risk_model"

const featureCount = 5

// engine abstracts a single inference call so the lock and output handling
// can be tested without a loaded ONNX runtime.
type engine interface {
	run(input []float32) ([]float32, error)
	close() error
}

// Model holds the loaded inference session. The session is loaded once at
// startup and guarded by a reader/writer lock; inference takes the exclusive
// mode because the underlying session is not known to be thread-safe, which
// serializes all predictions process-wide.
type Model struct {
	mu      sync.RWMutex
	engine  engine
	logger  *slog.Logger
	metrics *observability.Metrics
}

// LoadModel initializes the ONNX runtime (once per process) and loads the
// model artifact from modelPath. libraryPath optionally points at the
// onnxruntime shared library; empty means the platform default lookup.
func LoadModel(modelPath, libraryPath string, logger *slog.Logger, metrics *observability.Metrics) (*Model, error) {
	eng, err := newOrtEngine(modelPath, libraryPath)
	if err != nil {
		return nil, err
	}
	metrics.ModelLoaded.Set(1)
	logger.Info("risk model loaded", "path", modelPath)
	return newModel(eng, logger, metrics), nil
}

func newModel(eng engine, logger *slog.Logger, metrics *observability.Metrics) *Model {
	return &Model{engine: eng, logger: logger, metrics: metrics}
}

// Predict feeds the feature vector to the classifier and returns the
// probability mass assigned to the risk class. Failures abort only the
// calling request, never the process.
func (m *Model) Predict(features domain.RiskFeatures) (float64, error) {
	input := features.Vector()
	if len(input) != featureCount {
		return 0, domain.NewSourceError(domain.KindInference, sourceName,
			fmt.Errorf("feature vector has %d elements, model expects %d", len(input), featureCount))
	}

	start := time.Now()
	m.mu.Lock()
	output, err := m.engine.run(input)
	m.mu.Unlock()
	m.metrics.InferenceDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		m.metrics.InferenceErrors.Inc()
		return 0, domain.NewSourceError(domain.KindInference, sourceName, err)
	}
	if len(output) < 2 {
		m.metrics.InferenceErrors.Inc()
		return 0, domain.NewSourceError(domain.KindInference, sourceName,
			fmt.Errorf("model returned %d class probabilities, want 2", len(output)))
	}

	// Index 1 is the "risk" class in the two-class output distribution.
	return float64(output[1]), nil
}

// Close releases the inference session.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.ModelLoaded.Set(0)
	return m.engine.close()
}

// ortEngine runs inference through the onnxruntime C library.
type ortEngine struct {
	session *ort.DynamicAdvancedSession
}

func newOrtEngine(modelPath, libraryPath string) (*ortEngine, error) {
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, domain.NewSourceError(domain.KindMissingConfig, sourceName,
				fmt.Errorf("initialize onnxruntime: %w", err))
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{"float_input"}, []string{"output"}, nil)
	if err != nil {
		return nil, domain.NewSourceError(domain.KindMissingConfig, sourceName,
			fmt.Errorf("load model %s: %w", modelPath, err))
	}
	return &ortEngine{session: session}, nil
}

func (e *ortEngine) run(input []float32) ([]float32, error) {
	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(input))), input)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	if err := e.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return nil, fmt.Errorf("run inference: %w", err)
	}

	// Copy out of the tensor-backed buffer before it is destroyed.
	data := outputTensor.GetData()
	output := make([]float32, len(data))
	copy(output, data)
	return output, nil
}

func (e *ortEngine) close() error {
	if e.session == nil {
		return errors.New("session already closed")
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}
