package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/okunev/nutfarm/internal/domain"
	"github.com/okunev/nutfarm/internal/ports"
)

// CycleRunner is what the orchestrator schedules; Cycle satisfies it.
type CycleRunner interface {
	Run(ctx context.Context, account domain.Account, settings domain.Settings) Report
}

// Orchestrator runs farm cycles in an unbounded loop per account and fans the
// loops out across accounts. Accounts are fully independent; the only shared
// state is the stats repository, which serializes its own writes.
type Orchestrator struct {
	cycles CycleRunner
	clock  ports.Clock
	log    zerolog.Logger

	Success SuccessBackoff
	Failure FailureBackoff
}

func NewOrchestrator(cycles CycleRunner, clock ports.Clock, log zerolog.Logger) *Orchestrator {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Orchestrator{
		cycles:  cycles,
		clock:   clock,
		log:     log,
		Success: SuccessBackoff{Min: DefaultSuccessMin, Max: DefaultSuccessMax},
		Failure: FailureBackoff{Cooldown: DefaultFailureCoolOff},
	}
}

// RunAccount loops one account's cycles until the context is cancelled. It
// never terminates on its own and never lets a cycle failure end the loop.
func (o *Orchestrator) RunAccount(ctx context.Context, account domain.Account, settings domain.Settings) {
	log := o.log.With().Str("account", string(account.ID)).Logger()
	rng := newRand()

	for cycleNo := 1; ; cycleNo++ {
		if ctx.Err() != nil {
			log.Info().Msg("farm loop stopped")
			return
		}

		report := o.runOnce(ctx, account, settings)

		var wait = o.Failure.Next(rng)
		if report.Success {
			wait = o.Success.Next(rng)
			log.Info().
				Int("cycle_no", cycleNo).
				Dur("wait", wait).
				Msg("cycle succeeded; waiting before next cycle")
		} else if ctx.Err() == nil {
			log.Warn().
				Int("cycle_no", cycleNo).
				Str("cause", report.Cause).
				Dur("wait", wait).
				Msg("cycle failed; cooling off")
		}

		if err := o.clock.Sleep(ctx, wait); err != nil {
			log.Info().Msg("farm loop stopped")
			return
		}
	}
}

// RunAll launches one independent loop per account and waits for all of them.
// Failure of one account's loop never affects the others.
func (o *Orchestrator) RunAll(ctx context.Context, accounts []domain.Account, settings domain.Settings) error {
	if len(accounts) == 0 {
		return domain.ErrNoSessions
	}

	var wg sync.WaitGroup
	for _, account := range accounts {
		wg.Add(1)
		go func(account domain.Account) {
			defer wg.Done()
			o.RunAccount(ctx, account, settings)
		}(account)
	}
	wg.Wait()

	return nil
}

// runOnce shields the loop from anything a cycle lets escape: a panic becomes
// a failure report and lands on the cooldown path.
func (o *Orchestrator) runOnce(ctx context.Context, account domain.Account, settings domain.Settings) (report Report) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().
				Str("account", string(account.ID)).
				Interface("panic", r).
				Msg("cycle panicked")
			report = Report{Account: account.ID, Cause: fmt.Sprintf("cycle panic: %v", r)}
		}
	}()

	return o.cycles.Run(ctx, account, settings)
}
