package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/okunev/nutfarm/internal/domain"
	"github.com/okunev/nutfarm/internal/ports"
)

const defaultCallTimeout = 45 * time.Second

// Cycle drives one full farm pass for one account: provision a disposable
// group, invite the bot, run the command script, scrape the balance, transfer
// it, tear the group down. Steps are strictly sequential; the platform
// session is not safe for concurrent use.
type Cycle struct {
	messengers  ports.MessengerFactory
	stats       ports.StatsRepository
	clock       ports.Clock
	log         zerolog.Logger
	script      domain.CommandScript
	callTimeout time.Duration
}

func NewCycle(messengers ports.MessengerFactory, stats ports.StatsRepository, clock ports.Clock, log zerolog.Logger) *Cycle {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Cycle{
		messengers:  messengers,
		stats:       stats,
		clock:       clock,
		log:         log,
		script:      domain.DefaultScript(),
		callTimeout: defaultCallTimeout,
	}
}

// Report is the only thing that crosses the cycle boundary. Errors inside a
// cycle never escape as errors; fatal steps surface as Success=false with a
// cause.
type Report struct {
	CycleID     string
	Account     domain.AccountID
	Success     bool
	Balance     int64
	Transferred bool
	Cause       string
}

// Run executes one cycle. It returns a failure report rather than an error on
// any fatal step, and always attempts cleanup of a group it created.
func (c *Cycle) Run(ctx context.Context, account domain.Account, settings domain.Settings) Report {
	report := Report{CycleID: shortID(), Account: account.ID}
	log := c.log.With().
		Str("account", string(account.ID)).
		Str("cycle", report.CycleID).
		Logger()
	rng := newRand()

	log.Info().Msg("farm cycle started")

	m, err := c.messengers.Messenger(account)
	if err != nil {
		return c.abort(log, report, domain.StepFatal("client init failed", err))
	}

	if err := c.withTimeout(ctx, m.Connect); err != nil {
		return c.abort(log, report, domain.StepFatal("connect failed", err))
	}
	defer c.disconnect(m, log)

	var group ports.Group
	if err := c.withTimeout(ctx, func(callCtx context.Context) error {
		created, createErr := m.CreateGroup(callCtx, domain.GroupTitle(report.CycleID))
		group = created
		return createErr
	}); err != nil {
		// Fatal for the cycle: there is no group to operate in.
		return c.abort(log, report, domain.StepFatal("group creation failed", err))
	}
	log.Info().Str("group", group.Title).Msg("group created")

	cleaned := false
	defer func() {
		if cleaned {
			return
		}
		cleaned = true
		c.cleanup(ctx, m, group, settings, log)
	}()

	if err := c.clock.Sleep(ctx, settings.SettleDuration()); err != nil {
		return c.abort(log, report, domain.StepFatal("cycle cancelled", err))
	}

	var bot ports.Peer
	if err := c.withTimeout(ctx, func(callCtx context.Context) error {
		resolved, resolveErr := m.ResolvePeer(callCtx, settings.BotUsername)
		if resolveErr != nil {
			return resolveErr
		}
		bot = resolved
		return m.InviteMember(callCtx, group, resolved)
	}); err != nil {
		return c.abort(log, report, domain.StepFatal("bot invite failed", err))
	}
	log.Info().Str("bot", settings.BotUsername).Msg("bot invited")

	// Best effort: posting as the group hides the user identity, but the
	// script works without it.
	asGroup := true
	if err := c.withTimeout(ctx, func(callCtx context.Context) error {
		return m.PromoteSelf(callCtx, group)
	}); err != nil {
		asGroup = false
		c.logStep(log, domain.StepDegraded("admin rights grant failed; sending as user", err))
	}

	for _, command := range c.script {
		if err := c.send(ctx, m, group, command, asGroup); err != nil {
			// Commands are independent; a lost one is not retried.
			c.logStep(log, domain.StepDegraded("command "+command+" failed", err))
		} else {
			log.Info().Str("command", command).Msg("command sent")
		}

		pause := jitter(rng, settings.MinDelayDuration(), settings.MaxDelayDuration())
		if err := c.clock.Sleep(ctx, pause); err != nil {
			return c.abort(log, report, domain.StepFatal("cycle cancelled", err))
		}
	}

	balance, found := c.observeBalance(ctx, m, group, bot, settings, asGroup, log)
	report.Balance = balance
	if !found {
		c.logStep(log, domain.StepDegraded("no parseable balance in bot replies", nil))
	}

	if balance > 0 {
		transfer := domain.TransferCommand(balance, settings.Recipient)
		if err := c.send(ctx, m, group, transfer, asGroup); err != nil {
			c.logStep(log, domain.StepDegraded("transfer command failed; stats unchanged", err))
		} else {
			report.Transferred = true
			log.Info().Int64("amount", balance).Str("recipient", settings.Recipient).Msg("balance transferred")
			c.record(ctx, account.ID, balance, log)
		}
	} else {
		log.Info().Msg("zero balance; transfer skipped")
	}

	report.Success = true
	log.Info().Int64("balance", balance).Bool("transferred", report.Transferred).Msg("farm cycle done")
	return report
}

func (c *Cycle) observeBalance(ctx context.Context, m ports.Messenger, group ports.Group, bot ports.Peer, settings domain.Settings, asGroup bool, log zerolog.Logger) (int64, bool) {
	if err := c.send(ctx, m, group, domain.ProfileCommand, asGroup); err != nil {
		log.Warn().Err(err).Msg("profile command failed")
	}

	if err := c.clock.Sleep(ctx, settings.SettleDuration()); err != nil {
		return 0, false
	}

	var messages []ports.Message
	if err := c.withTimeout(ctx, func(callCtx context.Context) error {
		fetched, fetchErr := m.RecentMessages(callCtx, group, settings.FetchWindow)
		messages = fetched
		return fetchErr
	}); err != nil {
		log.Warn().Err(err).Msg("message fetch failed")
		return 0, false
	}

	parser := domain.NewBalanceParser(settings.ProfileLabel)
	for _, message := range messages {
		if message.SenderID != bot.ID {
			continue
		}
		if balance, ok := parser.Parse(message.Text); ok {
			return balance, true
		}
	}

	return 0, false
}

func (c *Cycle) record(ctx context.Context, id domain.AccountID, amount int64, log zerolog.Logger) {
	// A stop signal arriving right after a successful transfer must not tear
	// the stats write mid-flight.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.callTimeout)
	defer cancel()

	record, err := c.stats.RecordTransfer(recordCtx, id, amount)
	if err != nil {
		log.Error().Err(err).Msg("stats persist failed")
		return
	}
	log.Info().Int64("total", record.Total).Int64("runs", record.Runs).Msg("stats updated")
}

// cleanup tears the group down on both the success and failure exit paths.
// Failures here are cosmetic (an orphaned disposable group) and never
// propagate past the cycle boundary.
func (c *Cycle) cleanup(ctx context.Context, m ports.Messenger, group ports.Group, settings domain.Settings, log zerolog.Logger) {
	if ctx.Err() != nil {
		log.Warn().Str("group", group.Title).Msg("cleanup skipped on cancellation; group orphaned")
		return
	}

	_ = c.clock.Sleep(ctx, settings.SettleDuration())

	deleteCtx, cancel := context.WithTimeout(context.Background(), c.callTimeout)
	defer cancel()
	if err := m.DeleteGroup(deleteCtx, group); err != nil {
		log.Warn().Err(err).Str("group", group.Title).Msg("group deletion failed; group orphaned")
		return
	}
	log.Info().Str("group", group.Title).Msg("group deleted")
}

func (c *Cycle) send(ctx context.Context, m ports.Messenger, group ports.Group, text string, asGroup bool) error {
	return c.withTimeout(ctx, func(callCtx context.Context) error {
		return m.SendText(callCtx, group, text, asGroup)
	})
}

func (c *Cycle) disconnect(m ports.Messenger, log zerolog.Logger) {
	closeCtx, cancel := context.WithTimeout(context.Background(), c.callTimeout)
	defer cancel()
	if err := m.Close(closeCtx); err != nil {
		log.Warn().Err(err).Msg("disconnect failed")
	}
}

// abort ends the cycle on a fatal step; degraded steps only pass through
// logStep and leave the main path running.
func (c *Cycle) abort(log zerolog.Logger, report Report, step domain.StepResult) Report {
	c.logStep(log, step)
	if step.Fatal() {
		report.Cause = step.Cause
	}
	return report
}

func (c *Cycle) logStep(log zerolog.Logger, step domain.StepResult) {
	switch step.Severity {
	case domain.SeverityFatal:
		log.Error().Err(step.Err).Msg(step.Cause)
	case domain.SeverityDegraded:
		log.Warn().Err(step.Err).Msg(step.Cause)
	}
}

func (c *Cycle) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	return fn(callCtx)
}

func shortID() string {
	id := uuid.NewString()
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
