package optim

import (
	"math"
	"sync"

	"github.com/born-ml/neurograph/internal/tensor"
)

// Adam implements the Adam optimizer (Adaptive Moment Estimation).
//
// Adam combines ideas from RMSprop and momentum by maintaining running averages
// of both the gradients and their squared values:
//
//	m_t = beta1 * m_{t-1} + (1 - beta1) * gradient       // First moment (mean)
//	v_t = beta2 * v_{t-1} + (1 - beta2) * gradient²      // Second moment (variance)
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// Moments and the timestep t are tracked per parameter tensor.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64

	mu     sync.Mutex
	states map[*tensor.Tensor]*adamState
}

type adamState struct {
	m, v []float64
	t    int
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer, filling unset hyperparameters with
// the defaults listed on AdamConfig.
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam{
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		states: make(map[*tensor.Tensor]*adamState),
	}
}

// Update applies one Adam step to value.
func (a *Adam) Update(value, gradient *tensor.Tensor) {
	value.AssertMatching("Adam", gradient)

	a.mu.Lock()
	st, ok := a.states[value]
	if !ok {
		st = &adamState{m: make([]float64, value.Size()), v: make([]float64, value.Size())}
		a.states[value] = st
	}
	a.mu.Unlock()

	st.t++
	biasCorrection1 := 1 - math.Pow(a.beta1, float64(st.t))
	biasCorrection2 := 1 - math.Pow(a.beta2, float64(st.t))

	for i := range st.m {
		g := gradient.Get(i)
		st.m[i] = a.beta1*st.m[i] + (1-a.beta1)*g
		st.v[i] = a.beta2*st.v[i] + (1-a.beta2)*g*g
		if st.m[i] == 0 {
			continue
		}
		mHat := st.m[i] / biasCorrection1
		vHat := st.v[i] / biasCorrection2
		value.PutAdd(i, -a.lr*mHat/(math.Sqrt(vHat)+a.eps))
	}
}

// Reset discards all moment estimates and timesteps.
func (a *Adam) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.states = make(map[*tensor.Tensor]*adamState)
}

// LR returns the current learning rate.
func (a *Adam) LR() float64 { return a.lr }

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) { a.lr = lr }

// Timestep returns how many updates value has received.
func (a *Adam) Timestep(value *tensor.Tensor) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st, ok := a.states[value]; ok {
		return st.t
	}
	return 0
}
