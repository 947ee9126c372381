package model_test

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/born-ml/neurograph/internal/graph"
	"github.com/born-ml/neurograph/internal/model"
	"github.com/born-ml/neurograph/internal/nn"
	"github.com/born-ml/neurograph/internal/optim"
	"github.com/born-ml/neurograph/internal/parallel"
	"github.com/born-ml/neurograph/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// line samples y = 2x + 1 at x = 0..n-1.
func line(n int) []model.Sample {
	samples := make([]model.Sample, n)
	for i := range samples {
		x := float64(i)
		samples[i] = model.Sample{
			Inputs:  []*tensor.Tensor{scalar(x)},
			Outputs: []*tensor.Tensor{scalar(2*x + 1)},
		}
	}
	return samples
}

func TestTrain_LinearRegression(t *testing.T) {
	m, _, _ := affine(0, 0)
	var logs bytes.Buffer

	report, err := model.Train(context.Background(), m, model.Dataset{Train: line(4)}, model.TrainingConfig{
		Epochs:    500,
		BatchSize: 1,
		Workers:   2,
		Loss:      nn.MSE{},
		Optimizer: optim.NewSGD(optim.SGDConfig{LR: 0.1}),
		Logger:    slog.New(slog.NewTextHandler(&logs, nil)),
	})
	require.NoError(t, err)
	assert.Equal(t, 500, report.Epochs)
	assert.False(t, report.Stopped)
	assert.Len(t, report.TrainLoss, 500)
	assert.Less(t, report.TrainLoss[499], report.TrainLoss[0])
	assert.True(t, math.IsNaN(report.ValidLoss[0]), "no validation set")

	out, err := m.Predict(scalar(4))
	require.NoError(t, err)
	assert.InDelta(t, 9.0, out[0].Get(0), 0.01)

	assert.Contains(t, logs.String(), "training started")
	assert.Contains(t, logs.String(), "run="+m.ID().String())
}

func TestTrain_WorkerCountIndependent(t *testing.T) {
	run := func(workers int) []float64 {
		m, w, b := affine(0.5, -0.5)
		_, err := model.Train(context.Background(), m, model.Dataset{Train: line(16)}, model.TrainingConfig{
			Epochs:    20,
			BatchSize: 3,
			Workers:   workers,
			Shuffle:   true,
			Seed:      11,
			Loss:      nn.MSE{},
			Optimizer: optim.NewSGD(optim.SGDConfig{LR: 0.005}),
		})
		require.NoError(t, err)
		return []float64{m.Graph().Value(w).Get(0), m.Graph().Value(b).Get(0)}
	}

	// Gradients are averaged per epoch, so only summation order differs.
	assert.InDeltaSlice(t, run(1), run(4), 1e-9)
}

func TestTrain_CallerBatch(t *testing.T) {
	m, w, _ := affine(0, 0)
	batch := optim.NewBatch(optim.NewSGD(optim.SGDConfig{LR: 0.1}))

	_, err := model.Train(context.Background(), m, model.Dataset{Train: line(4)}, model.TrainingConfig{
		Epochs:    500,
		Loss:      nn.MSE{},
		Optimizer: batch,
	})
	require.NoError(t, err)
	assert.Zero(t, batch.Pending(), "every epoch flushed the caller's batch")
	assert.InDelta(t, 2.0, m.Graph().Value(w).Get(0), 0.01)
}

func TestTrain_SharedPool(t *testing.T) {
	pool := parallel.NewPool(3)
	defer pool.Close()

	m, _, _ := affine(0, 0)
	report, err := model.Train(context.Background(), m, model.Dataset{Train: line(4)}, model.TrainingConfig{
		Epochs:    5,
		Pool:      pool,
		Loss:      nn.MSE{},
		Optimizer: optim.NewSGD(optim.SGDConfig{LR: 0.05}),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, report.Epochs)

	// The caller's pool outlives the run.
	assert.NoError(t, pool.Run(context.Background(), 1, func(context.Context, int, int) error { return nil }))
}

func TestTrain_EarlyStopping(t *testing.T) {
	m, _, _ := affine(0, 0)
	data := model.Dataset{Train: line(4), Valid: line(4)}

	// Past the stability bound of full-batch gradient descent on this data.
	report, err := model.Train(context.Background(), m, data, model.TrainingConfig{
		Epochs:    200,
		Patience:  3,
		Loss:      nn.MSE{},
		Optimizer: optim.NewSGD(optim.SGDConfig{LR: 0.3}),
	})
	require.NoError(t, err)
	assert.True(t, report.Stopped)
	assert.Less(t, report.Epochs, 200)
	assert.Equal(t, report.BestEpoch+3, report.Epochs)

	// The best parameters are back in place.
	loss, err := m.Evaluate(nn.MSE{}, data.Valid)
	require.NoError(t, err)
	assert.InDelta(t, report.BestLoss, loss, 1e-9)
}

func TestTrain_EarlyStoppingOnTrainingLoss(t *testing.T) {
	m, _, _ := affine(0, 0)
	data := model.Dataset{Train: line(4)}

	report, err := model.Train(context.Background(), m, data, model.TrainingConfig{
		Epochs:    200,
		Patience:  2,
		Loss:      nn.MSE{},
		Optimizer: optim.NewSGD(optim.SGDConfig{LR: 0.3}),
	})
	require.NoError(t, err)
	require.True(t, report.Stopped)

	loss, err := m.Evaluate(nn.MSE{}, data.Train)
	require.NoError(t, err)
	assert.InDelta(t, report.BestLoss, loss, 1e-9)
}

func TestTrain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, w, _ := affine(1, 0)
	report, err := model.Train(ctx, m, model.Dataset{Train: line(4)}, model.TrainingConfig{
		Epochs:    10,
		Loss:      nn.MSE{},
		Optimizer: optim.NewSGD(optim.SGDConfig{LR: 0.1}),
	})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Zero(t, report.Epochs)
	assert.Equal(t, 1.0, m.Graph().Value(w).Get(0), "nothing was flushed")
}

func TestTrain_SampleErrorAborts(t *testing.T) {
	m, _, _ := affine(1, 0)
	bad := model.Sample{Inputs: []*tensor.Tensor{scalar(1)}, Outputs: []*tensor.Tensor{tensor.New(2)}}

	_, err := model.Train(context.Background(), m, model.Dataset{Train: append(line(3), bad)}, model.TrainingConfig{
		Epochs:    1,
		Loss:      nn.MSE{},
		Optimizer: optim.NewSGD(optim.SGDConfig{}),
	})
	var de *tensor.DimensionMismatchError
	assert.ErrorAs(t, err, &de)
	assert.Contains(t, err.Error(), "sample 3")
}

func TestTrain_Config(t *testing.T) {
	m, _, _ := affine(1, 0)
	ctx := context.Background()
	data := model.Dataset{Train: line(2)}
	opt := optim.NewSGD(optim.SGDConfig{})

	_, err := model.Train(ctx, m, data, model.TrainingConfig{Epochs: 1, Optimizer: opt})
	assert.Error(t, err, "missing loss")

	_, err = model.Train(ctx, m, data, model.TrainingConfig{Epochs: 1, Loss: nn.MSE{}})
	assert.Error(t, err, "missing optimizer")

	_, err = model.Train(ctx, m, data, model.TrainingConfig{Loss: nn.MSE{}, Optimizer: opt})
	assert.Error(t, err, "no epochs")

	_, err = model.Train(ctx, m, model.Dataset{}, model.TrainingConfig{Epochs: 1, Loss: nn.MSE{}, Optimizer: opt})
	assert.Error(t, err, "no samples")
}

func TestTrain_Classifier(t *testing.T) {
	// Logistic regression separating x < 0 from x > 0.
	g := graph.New()
	x := g.Variable("x")
	layer := nn.NewLinear(g, x, 1, 1, nn.LinearConfig{Name: "logit", Init: nn.NewXavier(5)})
	m := model.New(g).AddInput(x).AddOutput(g.Sigmoid(layer.Output))
	require.NoError(t, m.Validate())

	var samples []model.Sample
	for _, v := range []float64{-3, -2, -1, -0.5, 0.5, 1, 2, 3} {
		label := 0.0
		if v > 0 {
			label = 1
		}
		samples = append(samples, model.Sample{
			Inputs:  []*tensor.Tensor{tensor.MatrixFromRows([][]float64{{v}})},
			Outputs: []*tensor.Tensor{tensor.MatrixFromRows([][]float64{{label}})},
		})
	}

	report, err := model.Train(context.Background(), m, model.Dataset{Train: samples}, model.TrainingConfig{
		Epochs:    300,
		BatchSize: 2,
		Loss:      nn.BinaryCrossEntropy{},
		Optimizer: optim.NewAdam(optim.AdamConfig{LR: 0.1}),
	})
	require.NoError(t, err)
	assert.Less(t, report.BestLoss, 0.3)

	for _, s := range samples {
		out, err := m.Predict(s.Inputs...)
		require.NoError(t, err)
		assert.InDelta(t, s.Outputs[0].At(0, 0), out[0].At(0, 0), 0.5)
	}
}
