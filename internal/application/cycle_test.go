package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okunev/nutfarm/internal/domain"
	"github.com/okunev/nutfarm/internal/ports"
)

type fakeClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
	now    time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return nil
}

func (c *fakeClock) sleepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleeps)
}

type sentText struct {
	Text    string
	AsGroup bool
}

type fakeMessenger struct {
	mu sync.Mutex

	connectErr error
	createErr  error
	inviteErr  error
	promoteErr error
	sendErrFor map[string]error
	fetchErr   error

	botPeer  ports.Peer
	messages []ports.Message

	sends   []sentText
	deletes int
	closed  bool
}

func (m *fakeMessenger) Connect(context.Context) error { return m.connectErr }

func (m *fakeMessenger) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *fakeMessenger) ResolvePeer(_ context.Context, handle string) (ports.Peer, error) {
	peer := m.botPeer
	peer.Username = handle
	return peer, nil
}

func (m *fakeMessenger) CreateGroup(_ context.Context, title string) (ports.Group, error) {
	if m.createErr != nil {
		return ports.Group{}, m.createErr
	}
	return ports.Group{ID: 777, AccessHash: 42, Title: title}, nil
}

func (m *fakeMessenger) InviteMember(context.Context, ports.Group, ports.Peer) error {
	return m.inviteErr
}

func (m *fakeMessenger) PromoteSelf(context.Context, ports.Group) error {
	return m.promoteErr
}

func (m *fakeMessenger) SendText(_ context.Context, _ ports.Group, text string, asGroup bool) error {
	if err, ok := m.sendErrFor[text]; ok {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, sentText{Text: text, AsGroup: asGroup})
	return nil
}

func (m *fakeMessenger) RecentMessages(context.Context, ports.Group, int) ([]ports.Message, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.messages, nil
}

func (m *fakeMessenger) DeleteGroup(context.Context, ports.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	return nil
}

func (m *fakeMessenger) sentTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	texts := make([]string, 0, len(m.sends))
	for _, s := range m.sends {
		texts = append(texts, s.Text)
	}
	return texts
}

type fakeFactory struct {
	messenger *fakeMessenger
	err       error
}

func (f *fakeFactory) Messenger(domain.Account) (ports.Messenger, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.messenger, nil
}

type fakeStats struct {
	mu      sync.Mutex
	records map[domain.AccountID]domain.StatsRecord
	err     error
}

func newFakeStats() *fakeStats {
	return &fakeStats{records: map[domain.AccountID]domain.StatsRecord{}}
}

func (s *fakeStats) Get(_ context.Context, id domain.AccountID) (domain.StatsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id], nil
}

func (s *fakeStats) All(context.Context) (map[domain.AccountID]domain.StatsRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.AccountID]domain.StatsRecord, len(s.records))
	for id, record := range s.records {
		out[id] = record
	}
	return out, nil
}

func (s *fakeStats) RecordTransfer(_ context.Context, id domain.AccountID, amount int64) (domain.StatsRecord, error) {
	if s.err != nil {
		return domain.StatsRecord{}, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.records[id]
	record.Total += amount
	record.Runs++
	s.records[id] = record
	return record, nil
}

func testSettings() domain.Settings {
	s := domain.DefaultSettings()
	s.AppID = 1
	s.AppHash = "hash"
	s.Recipient = "@collector"
	return s
}

func testAccount() domain.Account {
	return domain.Account{ID: "79001234567", SessionPath: "/tmp/79001234567.session"}
}

const profileReply = "📋 Профиль суслика\nУровень: 4\n🌰 Орешков: 5,000\nДрузей: 2"

func botReply(text string) ports.Message {
	return ports.Message{SenderID: 1001, Text: text, HasAttachment: true}
}

func newTestCycle(factory *fakeFactory, stats *fakeStats) (*Cycle, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	cycle := NewCycle(factory, stats, clock, zerolog.Nop())
	return cycle, clock
}

func TestCycleHappyPathTransfersAndRecords(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{
		botPeer:  ports.Peer{ID: 1001, AccessHash: 7},
		messages: []ports.Message{botReply(profileReply)},
	}
	stats := newFakeStats()
	cycle, _ := newTestCycle(&fakeFactory{messenger: messenger}, stats)

	report := cycle.Run(context.Background(), testAccount(), testSettings())

	require.True(t, report.Success)
	assert.Equal(t, int64(5000), report.Balance)
	assert.True(t, report.Transferred)

	assert.Equal(t, []string{
		"/treat", "/iron", "/treat", "/bonus",
		"/profile",
		"/give 5000 @collector",
	}, messenger.sentTexts())

	record, err := stats.Get(context.Background(), "79001234567")
	require.NoError(t, err)
	assert.Equal(t, domain.StatsRecord{Total: 5000, Runs: 1}, record)

	assert.Equal(t, 1, messenger.deletes)
	assert.True(t, messenger.closed)
}

func TestCycleZeroBalanceSkipsTransfer(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{
		botPeer:  ports.Peer{ID: 1001},
		messages: []ports.Message{botReply("🌰 Орешков: 0")},
	}
	stats := newFakeStats()
	cycle, _ := newTestCycle(&fakeFactory{messenger: messenger}, stats)

	report := cycle.Run(context.Background(), testAccount(), testSettings())

	require.True(t, report.Success)
	assert.Zero(t, report.Balance)
	assert.False(t, report.Transferred)
	assert.NotContains(t, messenger.sentTexts(), "/give 0 @collector")

	record, err := stats.Get(context.Background(), "79001234567")
	require.NoError(t, err)
	assert.Zero(t, record)

	// Repeated zero-balance cycles never change stored stats.
	_ = cycle.Run(context.Background(), testAccount(), testSettings())
	record, err = stats.Get(context.Background(), "79001234567")
	require.NoError(t, err)
	assert.Zero(t, record)
}

func TestCycleNoBotReplyIsParseFailureNotError(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{
		botPeer: ports.Peer{ID: 1001},
		messages: []ports.Message{
			{SenderID: 555, Text: "🌰 Орешков: 9,999"}, // not the bot
		},
	}
	stats := newFakeStats()
	cycle, _ := newTestCycle(&fakeFactory{messenger: messenger}, stats)

	report := cycle.Run(context.Background(), testAccount(), testSettings())

	require.True(t, report.Success)
	assert.Zero(t, report.Balance)
	assert.False(t, report.Transferred)
	assert.Equal(t, 1, messenger.deletes)
}

func TestCycleGroupCreationFailureIsFatal(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{createErr: errors.New("FLOOD_WAIT")}
	cycle, _ := newTestCycle(&fakeFactory{messenger: messenger}, newFakeStats())

	report := cycle.Run(context.Background(), testAccount(), testSettings())

	assert.False(t, report.Success)
	assert.Equal(t, "group creation failed", report.Cause)
	assert.Zero(t, messenger.deletes)
	assert.True(t, messenger.closed)
}

func TestCycleInviteFailureStillDeletesGroupOnce(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{inviteErr: errors.New("USER_PRIVACY_RESTRICTED")}
	cycle, _ := newTestCycle(&fakeFactory{messenger: messenger}, newFakeStats())

	report := cycle.Run(context.Background(), testAccount(), testSettings())

	assert.False(t, report.Success)
	assert.Equal(t, "bot invite failed", report.Cause)
	assert.Equal(t, 1, messenger.deletes)
}

func TestCycleAdminGrantFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{
		botPeer:    ports.Peer{ID: 1001},
		promoteErr: errors.New("CHAT_ADMIN_REQUIRED"),
		messages:   []ports.Message{botReply(profileReply)},
	}
	cycle, _ := newTestCycle(&fakeFactory{messenger: messenger}, newFakeStats())

	report := cycle.Run(context.Background(), testAccount(), testSettings())

	require.True(t, report.Success)
	for _, send := range messenger.sends {
		assert.False(t, send.AsGroup)
	}
}

func TestCycleCommandSendFailureContinuesScript(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{
		botPeer:    ports.Peer{ID: 1001},
		sendErrFor: map[string]error{"/iron": errors.New("SLOWMODE_WAIT")},
		messages:   []ports.Message{botReply(profileReply)},
	}
	cycle, _ := newTestCycle(&fakeFactory{messenger: messenger}, newFakeStats())

	report := cycle.Run(context.Background(), testAccount(), testSettings())

	require.True(t, report.Success)
	assert.Equal(t, []string{
		"/treat", "/treat", "/bonus",
		"/profile",
		"/give 5000 @collector",
	}, messenger.sentTexts())
}

func TestCycleTransferSendFailureLeavesStatsUnchanged(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{
		botPeer:    ports.Peer{ID: 1001},
		sendErrFor: map[string]error{"/give 5000 @collector": errors.New("PEER_FLOOD")},
		messages:   []ports.Message{botReply(profileReply)},
	}
	stats := newFakeStats()
	cycle, _ := newTestCycle(&fakeFactory{messenger: messenger}, stats)

	report := cycle.Run(context.Background(), testAccount(), testSettings())

	require.True(t, report.Success)
	assert.False(t, report.Transferred)

	record, err := stats.Get(context.Background(), "79001234567")
	require.NoError(t, err)
	assert.Zero(t, record)
}

func TestCycleCancelledContextSkipsCleanup(t *testing.T) {
	t.Parallel()

	messenger := &fakeMessenger{botPeer: ports.Peer{ID: 1001}}
	cycle, clock := newTestCycle(&fakeFactory{messenger: messenger}, newFakeStats())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := cycle.Run(ctx, testAccount(), testSettings())

	assert.False(t, report.Success)
	assert.Zero(t, messenger.deletes)
	assert.Zero(t, clock.sleepCount())
}

func TestCycleFactoryErrorIsFatal(t *testing.T) {
	t.Parallel()

	cycle, _ := newTestCycle(&fakeFactory{err: errors.New("bad session file")}, newFakeStats())

	report := cycle.Run(context.Background(), testAccount(), testSettings())

	assert.False(t, report.Success)
	assert.Equal(t, "client init failed", report.Cause)
}
