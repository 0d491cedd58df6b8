package ensemble_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/glmnet/ensemble"
	"github.com/katalvlaran/glmnet/prior"
	"github.com/katalvlaran/glmnet/symexpr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func erConfig(n int, rho float64) prior.Config {
	return prior.Config{N: n, Graph: prior.Options{"type": "erdos_renyi", "rho": rho}}
}

// TestRun_DeterministicPerSeed checks that (config, seed, workers) fixes every draw.
func TestRun_DeterministicPerSeed(t *testing.T) {
	cfg := prior.Config{N: 10, Graph: prior.Options{"type": "sbm", "R": 3, "b0": 1, "b1": 1, "alpha0": 1}}

	r1, err := ensemble.Run(context.Background(), cfg, 20, ensemble.WithSeed(11), ensemble.WithWorkers(4))
	require.NoError(t, err)
	r2, err := ensemble.Run(context.Background(), cfg, 20, ensemble.WithSeed(11), ensemble.WithWorkers(4))
	require.NoError(t, err)

	require.Len(t, r1.Draws, 20)
	for i := range r1.Draws {
		require.Equal(t, i, r1.Draws[i].Index)
		require.Equal(t, i%4, r1.Draws[i].Chain)
		require.Equal(t, r1.Draws[i].Density, r2.Draws[i].Density)
		require.Equal(t, r1.Draws[i].LogP, r2.Draws[i].LogP)
	}
	require.NotEqual(t, r1.Summary.RunID, r2.Summary.RunID)
}

// TestRun_DensityMatchesRho checks the ensemble mean for an Erdős–Rényi prior.
func TestRun_DensityMatchesRho(t *testing.T) {
	res, err := ensemble.Run(context.Background(), erConfig(30, 0.4), 200, ensemble.WithSeed(5), ensemble.WithWorkers(3))
	require.NoError(t, err)
	require.Equal(t, 200, res.Summary.Draws)
	require.InDelta(t, 0.4, res.Summary.MeanDensity, 0.02)
	// one p_a and one log_p compile per chain
	require.EqualValues(t, 6, res.Summary.Compiles)
}

// TestRun_ChainsDiffer checks that chains get independent streams.
func TestRun_ChainsDiffer(t *testing.T) {
	res, err := ensemble.Run(context.Background(), erConfig(20, 0.5), 2, ensemble.WithWorkers(2))
	require.NoError(t, err)
	a0 := res.Draws[0].State[prior.VarA]
	a1 := res.Draws[1].State[prior.VarA]
	require.NotEqual(t, a0, a1)
}

// TestRun_Errors covers invalid inputs and cancellation.
func TestRun_Errors(t *testing.T) {
	_, err := ensemble.Run(context.Background(), erConfig(5, 0.5), 0)
	require.ErrorIs(t, err, ensemble.ErrDraws)

	_, err = ensemble.Run(context.Background(), prior.Config{N: 5, Graph: prior.Options{"type": "erdos_renyi"}}, 3)
	require.ErrorIs(t, err, prior.ErrConfig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ensemble.Run(ctx, erConfig(5, 0.5), 10, ensemble.WithWorkers(2))
	require.ErrorIs(t, err, context.Canceled)

	_, err = ensemble.Run(context.Background(), erConfig(5, 0.5), 3, ensemble.WithLikelihoodScale(-1))
	require.ErrorIs(t, err, prior.ErrScale)
}

// TestRun_SharedMetrics checks that every chain reports into one registry.
func TestRun_SharedMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := ensemble.Run(context.Background(), erConfig(5, 0.5), 8,
		ensemble.WithWorkers(2), ensemble.WithMetrics(symexpr.NewMetrics(reg)))
	require.NoError(t, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

// TestOptions_Panic keeps option constructors strict.
func TestOptions_Panic(t *testing.T) {
	require.Panics(t, func() { ensemble.WithWorkers(0) })
	require.Panics(t, func() { ensemble.WithLogger(nil) })
	require.Panics(t, func() { ensemble.WithMetrics(nil) })
}

// TestRun_DefaultIsSingleChain checks that the default does not depend on the host.
func TestRun_DefaultIsSingleChain(t *testing.T) {
	r1, err := ensemble.Run(context.Background(), erConfig(6, 0.5), 5, ensemble.WithSeed(4))
	require.NoError(t, err)
	r2, err := ensemble.Run(context.Background(), erConfig(6, 0.5), 5, ensemble.WithSeed(4), ensemble.WithWorkers(1))
	require.NoError(t, err)
	for i, d := range r1.Draws {
		require.Equal(t, 0, d.Chain)
		require.Equal(t, r2.Draws[i].Density, d.Density)
		require.Equal(t, r2.Draws[i].LogP, d.LogP)
	}
}
