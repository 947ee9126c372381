// Package main provides the neurograph CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/born-ml/neurograph/graph"
	"github.com/born-ml/neurograph/internal/serialization"
	"github.com/born-ml/neurograph/model"
	"github.com/born-ml/neurograph/nn"
	"github.com/born-ml/neurograph/optim"
	"github.com/born-ml/neurograph/tensor"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("neurograph %s\n", version)
	case "sigmoid":
		err = runSigmoid(os.Args[2:])
	case "regress":
		err = runRegress(ctx, os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "neurograph: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("neurograph - differentiable graph engine")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  sigmoid    Evaluate sigmoid(w·x + b) with w=2, b=1")
	fmt.Println("  regress    Fit y = a·x + b on a small dataset")
	fmt.Println("  inspect    Print the header of a parameter checkpoint")
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runSigmoid(args []string) error {
	fs := flag.NewFlagSet("sigmoid", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	g := graph.New()
	x := g.Variable("x")
	w := g.Constant("w", tensor.FromSlice([]float64{2}))
	b := g.Constant("b", tensor.FromSlice([]float64{1}))
	m := model.New(g).AddInput(x).AddOutput(g.Sigmoid(g.Add(g.Multiply(w, x), b)))

	for _, v := range []float64{0, 1} {
		out, err := m.Predict(tensor.FromSlice([]float64{v}))
		if err != nil {
			return err
		}
		fmt.Printf("x=%g  y=%.10f\n", v, out[0].Get(0))
	}
	return nil
}

func runRegress(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("regress", flag.ExitOnError)
	epochs := fs.Int("epochs", 2000, "maximum number of epochs")
	lr := fs.Float64("lr", 0.05, "learning rate")
	workers := fs.Int("workers", 0, "worker pool size (0: available parallelism)")
	patience := fs.Int("patience", 50, "early stopping patience in epochs (0: off)")
	save := fs.String("save", "", "write the fitted parameters to this file")
	verbose := fs.Bool("v", false, "log every epoch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger := newLogger(*verbose)

	g := graph.New()
	x := g.Variable("x")
	a := g.Parameter("a", tensor.New(1), 0)
	b := g.Parameter("b", tensor.New(1), 0)
	m := model.New(g).AddInput(x).AddOutput(g.Add(g.Multiply(a, x), b))
	if err := m.Validate(); err != nil {
		return err
	}

	var samples []model.Sample
	for _, p := range [][2]float64{{1, 3}, {2, 5}, {3, 7}} {
		samples = append(samples, model.Sample{
			Inputs:  []*tensor.Tensor{tensor.FromSlice([]float64{p[0]})},
			Outputs: []*tensor.Tensor{tensor.FromSlice([]float64{p[1]})},
		})
	}

	report, err := model.Train(ctx, m, model.Dataset{Train: samples}, model.TrainingConfig{
		Epochs:    *epochs,
		BatchSize: 1,
		Patience:  *patience,
		Workers:   *workers,
		Loss:      nn.MSE{},
		Optimizer: optim.NewSGD(optim.SGDConfig{LR: *lr}),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	out, err := m.Predict(tensor.FromSlice([]float64{4}))
	if err != nil {
		return err
	}
	fmt.Printf("a=%.4f b=%.4f epochs=%d loss=%.6f predict(4)=%.4f\n",
		g.Value(a).Get(0), g.Value(b).Get(0), report.Epochs, report.BestLoss, out[0].Get(0))

	if *save == "" {
		return nil
	}
	f, err := os.Create(*save)
	if err != nil {
		return err
	}
	if err := m.SaveParameters(f, map[string]string{"task": "regress"}); err != nil {
		_ = f.Close()
		return err
	}
	logger.Info("saved parameters", "path", *save)
	return f.Close()
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("inspect: expected one checkpoint path")
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	ckpt, err := serialization.Read(f, serialization.ReaderOptions{})
	if err != nil {
		return err
	}
	h := ckpt.Header
	fmt.Printf("format v%d, written by %s at %s, run %s\n", h.FormatVersion, h.Version, h.CreatedAt.Format("2006-01-02 15:04:05"), h.RunID)
	for _, meta := range h.Tensors {
		fmt.Printf("  %-24s %v\n", meta.Name, ckpt.Tensors[meta.Name].Describe())
	}
	for k, v := range h.Metadata {
		fmt.Printf("  meta %s=%s\n", k, v)
	}
	return nil
}
