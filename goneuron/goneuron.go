// Package goneuron re-exports the engine's building blocks behind one import.
package goneuron

import (
	"github.com/FlavioCFOliveira/convnet/internal/activations"
	"github.com/FlavioCFOliveira/convnet/internal/layer"
	"github.com/FlavioCFOliveira/convnet/internal/loss"
	"github.com/FlavioCFOliveira/convnet/internal/net"
	"github.com/FlavioCFOliveira/convnet/internal/opt"
	"github.com/FlavioCFOliveira/convnet/internal/regul"
	"github.com/FlavioCFOliveira/convnet/internal/tensor"
	"github.com/FlavioCFOliveira/convnet/internal/weightinit"
)

// Re-export common types and functions for easier access
type (
	Model         = net.Model
	Layer         = layer.Layer
	Parametric    = layer.Parametric
	Tensor        = tensor.Tensor
	Optimizer     = opt.Optimizer
	Scheduler     = opt.Scheduler
	Loss          = loss.Loss
	Regularizer   = regul.Regularizer
	Initializer   = weightinit.Initializer
	Callback      = net.Callback
	TrainConfig   = net.TrainConfig
	History       = net.History
	GradCheck     = net.GradCheck
	Dataset       = net.Dataset
	ConvAlgorithm = layer.ConvAlgorithm
)

// Convolution backends.
const (
	ConvDirect = layer.ConvDirect
	ConvFFT    = layer.ConvFFT
)

// Errors callers may match with errors.Is or errors.As.
var (
	ErrGradientReuse = net.ErrGradientReuse
	ErrWeightCount   = net.ErrWeightCount
)

type (
	ShapeError  = tensor.ShapeError
	ConfigError = layer.ConfigError
)

// Model creation
func NewModel(l Loss, reg Regularizer, layers ...Layer) *Model {
	return net.NewModel(l, reg, layers...)
}

// Tensors
func NewTensor(dims ...int) *Tensor {
	return tensor.New(dims...)
}

func TensorFromSlice(data []float64, dims ...int) (*Tensor, error) {
	return tensor.FromSlice(data, dims...)
}

// Activations
var (
	ReLU     = activations.ReLU{}
	Sigmoid  = activations.Sigmoid{}
	Tanh     = activations.Tanh{}
	SoftPlus = activations.SoftPlus{}
	SoftSign = activations.SoftSign{}
	Identity = activations.Identity{}
)

func LeakyReLU(alpha float64) activations.Activation {
	return activations.NewLeakyReLU(alpha)
}

// Layers
func Activation(fn activations.Activation) Layer {
	return layer.NewActivation(fn)
}

func RReLU(seed uint64) Layer {
	return layer.NewRReLU(seed)
}

func Softmax() Layer {
	return layer.NewSoftmax()
}

func InnerProduct(numNeurons int) Layer {
	return layer.NewInnerProduct(numNeurons)
}

func Conv2D(numFilters, kernelW, kernelH int, opts ...layer.ConvOption) *layer.Conv2D {
	return layer.NewConv2D(numFilters, kernelW, kernelH, opts...)
}

func WithStride(w, h int) layer.ConvOption {
	return layer.WithStride(w, h)
}

func WithAlgorithm(a ConvAlgorithm) layer.ConvOption {
	return layer.WithAlgorithm(a)
}

func MeanPool2D(poolW, poolH int, opts ...layer.PoolOption) Layer {
	return layer.NewMeanPool2D(poolW, poolH, opts...)
}

func MaxPool2D(poolW, poolH int, opts ...layer.PoolOption) Layer {
	return layer.NewMaxPool2D(poolW, poolH, opts...)
}

func WithPoolStride(w, h int) layer.PoolOption {
	return layer.WithPoolStride(w, h)
}

func Dropout(p float64, seed uint64) Layer {
	return layer.NewDropout(p, seed)
}

func Flatten() Layer {
	return layer.NewFlatten()
}

// Weight initialization
func He(seed uint64) Initializer {
	return weightinit.NewHe(seed)
}

func Xavier(seed uint64) Initializer {
	return weightinit.NewXavier(seed)
}

// Losses
var (
	MSE                  = loss.MSE{}
	CrossEntropy         = loss.CrossEntropy{}
	WeightedCrossEntropy = loss.WeightedCrossEntropy{}
)

// Regularization
func L1(lambda float64) Regularizer {
	return regul.NewL1(lambda)
}

func L2(lambda float64) Regularizer {
	return regul.L2{Lambda: lambda}
}

// Optimizers
func SGD(lr float64) Optimizer {
	return opt.NewSGD(lr)
}

func Momentum(lr, mu float64) Optimizer {
	return opt.NewMomentum(lr, mu)
}

func Nesterov(lr, mu float64) Optimizer {
	return opt.NewNesterov(lr, mu)
}

func Adagrad(lr float64) Optimizer {
	return opt.NewAdagrad(lr)
}

func RMSProp(lr float64) Optimizer {
	return opt.NewRMSProp(lr)
}

func Adam(lr float64) Optimizer {
	return opt.NewAdam(lr)
}

func AdaMax(lr float64) Optimizer {
	return opt.NewAdaMax(lr)
}

// Schedulers
func StepLR(optimizer Optimizer, stepSize int, gamma float64) Scheduler {
	return opt.NewStepLR(optimizer, stepSize, gamma)
}

func ExponentialLR(optimizer Optimizer, gamma float64) Scheduler {
	return opt.NewExponentialLR(optimizer, gamma)
}

func ReduceLROnPlateau(optimizer Optimizer, factor float64, patience int, threshold, minLR float64) *opt.ReduceLROnPlateau {
	return opt.NewReduceLROnPlateau(optimizer, factor, patience, threshold, minLR)
}

// Callbacks
func Logger(interval int) net.Logger {
	return net.Logger{Interval: interval}
}

func WeightCheckpoint(filename string) Callback {
	return net.NewWeightCheckpoint(filename)
}

func EarlyStopping(patience int, minDelta float64) *net.EarlyStopping {
	return net.NewEarlyStopping(patience, minDelta)
}

func SchedulerCallback(scheduler Scheduler) Callback {
	return net.NewSchedulerCallback(scheduler)
}

func CSVLogger(filename string, appendMode bool) *net.CSVLogger {
	return net.NewCSVLogger(filename, appendMode)
}

// Training
func DefaultTrainConfig() TrainConfig {
	return net.DefaultTrainConfig()
}

func Train(m *Model, o Optimizer, x, y, w *Tensor, cfg TrainConfig) (*History, error) {
	return net.Train(m, o, x, y, w, cfg)
}

func DefaultGradCheck() GradCheck {
	return net.DefaultGradCheck()
}

func CheckGradient(m *Model, x, y, w *Tensor, cfg GradCheck) (float64, error) {
	return net.CheckGradient(m, x, y, w, cfg)
}

// Data
func LoadCSV(filename string, labelCol int, hasHeader bool) (*Dataset, error) {
	return net.LoadCSV(filename, labelCol, hasHeader)
}

// LeNet builds the classic two-stage convolutional classifier for 28x28
// single-channel images and ten classes:
// conv 20@5x5, mean pool 2, ReLU, conv 40@5x5, mean pool 2, ReLU,
// dense 100, ReLU, dense 10, softmax. The input shape is set; parameters
// are not initialized.
func LeNet(algo ConvAlgorithm, reg Regularizer) (*Model, error) {
	m := NewModel(CrossEntropy, reg,
		Conv2D(20, 5, 5, WithAlgorithm(algo)),
		MeanPool2D(2, 2),
		Activation(ReLU),
		Conv2D(40, 5, 5, WithAlgorithm(algo)),
		MeanPool2D(2, 2),
		Activation(ReLU),
		InnerProduct(100),
		Activation(ReLU),
		InnerProduct(10),
		Softmax(),
	)
	if err := m.SetInputShape([]int{28, 28}); err != nil {
		return nil, err
	}
	return m, nil
}
