package transaction

import (
	"context"
	"math/rand"
	"time"

	domainErrors "scanpay/internal/errors"
	"scanpay/internal/models"
)

// Gateway processes a pending payment. The production stand-in is a
// simulation; a real processor integration would satisfy the same
// interface.
type Gateway interface {
	Charge(ctx context.Context, tx *models.FinancialTransaction) error
}

// SimulatedGateway introduces artificial latency and a fixed success
// probability in place of a real payment processor. A charge cannot be
// cancelled once started; the latency is always paid.
type SimulatedGateway struct {
	Latency     time.Duration
	SuccessRate float64
	rng         func() float64
	sleep       func(time.Duration)
}

// NewSimulatedGateway creates the default gateway: 1 second latency,
// 95% success probability.
func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{
		Latency:     time.Second,
		SuccessRate: 0.95,
		rng:         rand.Float64,
		sleep:       time.Sleep,
	}
}

// NewDeterministicGateway pins the outcome and removes the latency.
// Test wiring only.
func NewDeterministicGateway(succeed bool) *SimulatedGateway {
	outcome := 1.0
	if succeed {
		outcome = 0.0
	}
	return &SimulatedGateway{
		Latency:     0,
		SuccessRate: 0.95,
		rng:         func() float64 { return outcome },
		sleep:       func(time.Duration) {},
	}
}

func (g *SimulatedGateway) Charge(_ context.Context, _ *models.FinancialTransaction) error {
	if g.Latency > 0 {
		g.sleep(g.Latency)
	}
	if g.rng() < g.SuccessRate {
		return nil
	}
	return domainErrors.ErrGatewayDeclined
}
