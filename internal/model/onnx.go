package model

import (
	"errors"
	"fmt"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gonum.org/v1/gonum/mat"
)

var (
	ortOnce    sync.Once
	ortInitErr error
)

// initRuntime initializes the shared ONNX runtime environment once per
// process. libraryPath may be empty when the runtime is on the default
// search path.
func initRuntime(libraryPath string) error {
	ortOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// ONNXClassifier runs the exported anemia classifier through an ONNX
// session. The exported graph takes a single [n, features] float input and
// exposes a probability output; a label output is used when present,
// otherwise labels come from the probability argmax.
type ONNXClassifier struct {
	session     *ort.DynamicAdvancedSession
	inputName   string
	outputNames []string
}

// OpenONNXClassifier inspects the model graph and opens a session for it.
func OpenONNXClassifier(modelPath, libraryPath string) (*ONNXClassifier, error) {
	if err := initRuntime(libraryPath); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("inspect model graph: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("model must declare exactly one input, found %d", len(inputs))
	}
	if len(outputs) == 0 {
		return nil, errors.New("model declares no outputs")
	}
	outputNames := make([]string, len(outputs))
	for i, o := range outputs {
		outputNames[i] = o.Name
	}
	session, err := ort.NewDynamicAdvancedSession(modelPath, []string{inputs[0].Name}, outputNames, nil)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return &ONNXClassifier{
		session:     session,
		inputName:   inputs[0].Name,
		outputNames: outputNames,
	}, nil
}

// Predict returns the hard label per row.
func (c *ONNXClassifier) Predict(X *mat.Dense) ([]int, error) {
	labels, _, err := c.run(X)
	return labels, err
}

// PredictProba returns the [n, 2] class probability matrix.
func (c *ONNXClassifier) PredictProba(X *mat.Dense) (*mat.Dense, error) {
	_, probs, err := c.run(X)
	return probs, err
}

// Close releases the session.
func (c *ONNXClassifier) Close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Destroy()
	c.session = nil
	return err
}

func (c *ONNXClassifier) run(X *mat.Dense) ([]int, *mat.Dense, error) {
	rows, cols := X.Dims()
	data := make([]float32, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data[i*cols+j] = float32(X.At(i, j))
		}
	}
	input, err := ort.NewTensor(ort.NewShape(int64(rows), int64(cols)), data)
	if err != nil {
		return nil, nil, fmt.Errorf("build input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := make([]ort.Value, len(c.outputNames))
	if err := c.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, nil, fmt.Errorf("run session: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	var labels []int
	var probs *mat.Dense
	for _, o := range outputs {
		switch tensor := o.(type) {
		case *ort.Tensor[int64]:
			if labels == nil {
				labels = intLabels(tensor.GetData())
			}
		case *ort.Tensor[int32]:
			if labels == nil {
				vals := tensor.GetData()
				raw := make([]int64, len(vals))
				for i, v := range vals {
					raw[i] = int64(v)
				}
				labels = intLabels(raw)
			}
		case *ort.Tensor[float32]:
			if probs == nil {
				probs = probMatrix(tensor.GetData(), tensor.GetShape(), rows)
			}
		case *ort.Tensor[float64]:
			if probs == nil {
				vals := tensor.GetData()
				raw := make([]float32, len(vals))
				for i, v := range vals {
					raw[i] = float32(v)
				}
				probs = probMatrix(raw, tensor.GetShape(), rows)
			}
		}
	}
	if probs == nil {
		return nil, nil, errors.New("model exposes no probability output")
	}
	if labels == nil {
		labels = make([]int, rows)
		for i := range labels {
			if probs.At(i, 1) > probs.At(i, 0) {
				labels[i] = LabelAnemia
			}
		}
	}
	if len(labels) != rows {
		return nil, nil, fmt.Errorf("model returned %d labels for %d samples", len(labels), rows)
	}
	return labels, probs, nil
}

func intLabels(raw []int64) []int {
	out := make([]int, len(raw))
	for i, v := range raw {
		out[i] = int(v)
	}
	return out
}

// probMatrix shapes the raw float output into [n, 2] probabilities, applying
// a softmax when the graph exports logits instead of calibrated
// probabilities.
func probMatrix(raw []float32, shape ort.Shape, rows int) *mat.Dense {
	if len(raw) != rows*2 {
		return nil
	}
	if len(shape) == 2 && (shape[0] != int64(rows) || shape[1] != 2) {
		return nil
	}
	out := mat.NewDense(rows, 2, nil)
	for i := 0; i < rows; i++ {
		p0 := float64(raw[i*2])
		p1 := float64(raw[i*2+1])
		if !looksLikeProbabilities(p0, p1) {
			m := math.Max(p0, p1)
			e0 := math.Exp(p0 - m)
			e1 := math.Exp(p1 - m)
			p0, p1 = e0/(e0+e1), e1/(e0+e1)
		}
		out.Set(i, 0, p0)
		out.Set(i, 1, p1)
	}
	return out
}

func looksLikeProbabilities(p0, p1 float64) bool {
	return p0 >= 0 && p0 <= 1 && p1 >= 0 && p1 <= 1 && math.Abs(p0+p1-1) <= 1e-6
}
