// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model registers graph inputs and outputs and drives prediction
// and training.
//
// # Basic Usage
//
//	m := model.New(g).AddInput(x).AddOutput(y)
//	if err := m.Validate(); err != nil {
//	    return err
//	}
//
//	report, err := model.Train(ctx, m, model.Dataset{Train: samples}, model.TrainingConfig{
//	    Epochs:    500,
//	    Loss:      nn.MSE{},
//	    Optimizer: optim.NewSGD(optim.SGDConfig{LR: 0.05}),
//	    Patience:  20,
//	})
//
//	out, err := m.Predict(tensor.FromSlice([]float64{4}))
package model

import (
	"context"

	"github.com/born-ml/neurograph/internal/graph"
	"github.com/born-ml/neurograph/internal/model"
)

// Model holds the ordered inputs and outputs of a graph.
type Model = model.Model

// Loss scores outputs against desired values.
type Loss = model.Loss

// ArgumentCountError reports a positional argument count mismatch.
type ArgumentCountError = model.ArgumentCountError

// Snapshot is a copy of parameter values.
type Snapshot = model.Snapshot

// Sample is one training example.
type Sample = model.Sample

// Dataset splits samples into training and validation sets.
type Dataset = model.Dataset

// TrainingConfig holds configuration for Train.
type TrainingConfig = model.TrainingConfig

// Report summarises a training run.
type Report = model.Report

// New creates a model over g.
func New(g *graph.Graph) *Model { return model.New(g) }

// Train fits m to data on a worker pool with one weight step per epoch.
func Train(ctx context.Context, m *Model, data Dataset, cfg TrainingConfig) (*Report, error) {
	return model.Train(ctx, m, data, cfg)
}
