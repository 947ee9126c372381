// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training graph
// parameters.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Batch: stages gradients from any number of passes until Flush
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	opt := optim.NewBatch(optim.NewSGD(optim.SGDConfig{LR: 0.1}))
//
//	for epoch := range 100 {
//	    for _, s := range samples {
//	        m.Train(nn.MSE{}, opt, s.Inputs, s.Outputs) // stages gradients
//	    }
//	    opt.Flush() // one weight step with the mean gradient
//	}
//
// Batch.Update is safe for concurrent use, so passes running in parallel
// may share one Batch; Flush runs after they have all finished.
package optim
