package model

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/born-ml/neurograph/internal/graph"
	"github.com/born-ml/neurograph/internal/optim"
	"github.com/born-ml/neurograph/internal/parallel"
	"github.com/born-ml/neurograph/internal/tensor"
	"github.com/pkg/errors"
)

// Sample is one training example. Inputs and Outputs follow the model's
// registration order; Weights, when set, scale the output errors.
type Sample struct {
	Inputs  []*tensor.Tensor
	Outputs []*tensor.Tensor
	Weights []*tensor.Tensor
}

// Dataset splits samples into training and validation sets. Without
// validation samples, early stopping watches the training loss.
type Dataset struct {
	Train []Sample
	Valid []Sample
}

// TrainingConfig holds configuration for Train.
type TrainingConfig struct {
	Epochs    int             // Maximum number of epochs (required)
	BatchSize int             // Samples per concurrently processed batch (default: 32)
	Patience  int             // Epochs without improvement before stopping; 0 disables early stopping
	Workers   int             // Pool size when Pool is nil (default: available parallelism)
	Pool      *parallel.Pool  // Shared pool; Train creates and closes its own when nil
	Seed      uint64          // Shuffling and dropout seed
	Shuffle   bool            // Shuffle training samples every epoch
	Loss      Loss            // Required
	Optimizer optim.Optimizer // Required; wrapped in an optim.Batch unless it is one
	Logger    *slog.Logger    // Progress logging (default: discard)
}

// Report summarises a training run.
type Report struct {
	Epochs    int       // Epochs completed
	BestEpoch int       // Epoch with the lowest watched loss
	BestLoss  float64   // Lowest watched loss
	TrainLoss []float64 // Mean training loss per epoch, before that epoch's update
	ValidLoss []float64 // Mean validation loss per epoch, after the update
	Stopped   bool      // Early stopping triggered
	Elapsed   time.Duration
}

// Train fits m to data. Each epoch splits the (optionally shuffled)
// training samples into batches that run concurrently on the worker pool,
// one execution context per worker. Gradients are staged in an
// optim.Batch and applied once, after every batch of the epoch finished.
//
// With Patience > 0, training stops once the watched loss has not improved
// for Patience epochs and the best parameters seen are restored.
//
// Cancellation of ctx is checked between batch submissions; Train then
// returns the report so far together with the context error.
func Train(ctx context.Context, m *Model, data Dataset, cfg TrainingConfig) (*Report, error) {
	if cfg.Loss == nil || cfg.Optimizer == nil {
		return nil, errors.New("model: training needs a loss and an optimizer")
	}
	if cfg.Epochs <= 0 {
		return nil, errors.Errorf("model: epochs must be positive, got %d", cfg.Epochs)
	}
	if len(data.Train) == 0 {
		return nil, errors.New("model: no training samples")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("run", m.ID().String())

	pool := cfg.Pool
	if pool == nil {
		pool = parallel.NewPool(cfg.Workers)
		defer pool.Close()
	}
	t := &trainer{
		m:        m,
		pool:     pool,
		loss:     cfg.Loss,
		opt:      batchOf(cfg.Optimizer),
		contexts: make([]*graph.Context, pool.Size()),
		sums:     make([]float64, pool.Size()),
	}
	for w := range t.contexts {
		t.contexts[w] = m.NewContext(w)
		t.contexts[w].Seed(cfg.Seed)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, 0))
	order := make([]int, len(data.Train))
	for i := range order {
		order[i] = i
	}

	start := time.Now()
	report := &Report{BestLoss: math.Inf(1)}
	var best Snapshot
	stale := 0
	logger.Info("training started",
		"epochs", cfg.Epochs, "samples", len(data.Train), "batch_size", cfg.BatchSize, "workers", pool.Size())

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if cfg.Shuffle {
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}
		trainLoss, err := t.epoch(ctx, data.Train, order, cfg.BatchSize)
		if err != nil {
			report.Elapsed = time.Since(start)
			return report, errors.Wrapf(err, "model: epoch %d", epoch)
		}
		// Without validation the watched loss belongs to the parameters
		// before this epoch's update.
		if len(data.Valid) == 0 && cfg.Patience > 0 && trainLoss < report.BestLoss {
			best = m.Snapshot()
		}
		t.opt.Flush()

		watched := trainLoss
		validLoss := math.NaN()
		if len(data.Valid) > 0 {
			validLoss, err = t.evaluate(ctx, data.Valid, cfg.BatchSize)
			if err != nil {
				report.Elapsed = time.Since(start)
				return report, errors.Wrapf(err, "model: validation after epoch %d", epoch)
			}
			watched = validLoss
		}
		report.Epochs = epoch
		report.TrainLoss = append(report.TrainLoss, trainLoss)
		report.ValidLoss = append(report.ValidLoss, validLoss)
		logger.Debug("epoch finished", "epoch", epoch, "train_loss", trainLoss, "valid_loss", validLoss)

		if watched < report.BestLoss {
			report.BestLoss, report.BestEpoch = watched, epoch
			stale = 0
			if cfg.Patience > 0 && len(data.Valid) > 0 {
				best = m.Snapshot()
			}
			continue
		}
		stale++
		if cfg.Patience > 0 && stale >= cfg.Patience {
			report.Stopped = true
			logger.Info("early stopping", "epoch", epoch, "best_epoch", report.BestEpoch, "best_loss", report.BestLoss)
			break
		}
	}

	if best != nil && (report.BestEpoch < report.Epochs || len(data.Valid) == 0) {
		if err := m.Restore(best); err != nil {
			return report, err
		}
		logger.Info("restored best parameters", "epoch", report.BestEpoch)
	}
	report.Elapsed = time.Since(start)
	logger.Info("training finished",
		"epochs", report.Epochs, "best_epoch", report.BestEpoch, "best_loss", report.BestLoss, "elapsed", report.Elapsed)
	return report, nil
}

type trainer struct {
	m        *Model
	pool     *parallel.Pool
	loss     Loss
	opt      *optim.Batch
	contexts []*graph.Context // Indexed by worker id
	sums     []float64        // Per-worker loss accumulators
}

// epoch runs one forward/backward pass per sample, batches in parallel,
// and returns the mean training loss.
func (t *trainer) epoch(ctx context.Context, samples []Sample, order []int, batchSize int) (float64, error) {
	clear(t.sums)
	batches := chunks(len(order), batchSize)
	err := t.pool.Run(ctx, len(batches), func(_ context.Context, worker, b int) error {
		c := t.contexts[worker]
		for _, idx := range order[batches[b][0]:batches[b][1]] {
			s := samples[idx]
			c.Begin(true)
			outs, err := t.m.TrainIn(c, t.loss, t.opt, s.Inputs, s.Outputs, s.Weights...)
			if err != nil {
				return errors.Wrapf(err, "sample %d", idx)
			}
			l, err := outputLoss(t.loss, outs, s.Outputs)
			if err != nil {
				return errors.Wrapf(err, "sample %d", idx)
			}
			t.sums[worker] += l
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sum(t.sums) / float64(len(samples)), nil
}

// evaluate returns the mean loss over samples without training.
func (t *trainer) evaluate(ctx context.Context, samples []Sample, batchSize int) (float64, error) {
	clear(t.sums)
	batches := chunks(len(samples), batchSize)
	err := t.pool.Run(ctx, len(batches), func(_ context.Context, worker, b int) error {
		c := t.contexts[worker]
		for i := batches[b][0]; i < batches[b][1]; i++ {
			c.Begin(false)
			l, err := t.m.sampleLoss(c, t.loss, samples[i])
			if err != nil {
				return errors.Wrapf(err, "sample %d", i)
			}
			t.sums[worker] += l
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sum(t.sums) / float64(len(samples)), nil
}

// batchOf stages updates in opt itself when it already is a Batch, so
// the per-epoch Flush reaches the parameters.
func batchOf(opt optim.Optimizer) *optim.Batch {
	if b, ok := opt.(*optim.Batch); ok {
		return b
	}
	return optim.NewBatch(opt)
}

// chunks splits [0, n) into [from, to) ranges of at most size elements.
func chunks(n, size int) [][2]int {
	var out [][2]int
	for from := 0; from < n; from += size {
		out = append(out, [2]int{from, min(from+size, n)})
	}
	return out
}

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}
