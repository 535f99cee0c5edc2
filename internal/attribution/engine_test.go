package attribution

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"prize_engine/internal/campaign"
	"prize_engine/internal/history"
	"prize_engine/internal/prize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCampaignID = "11111111-1111-1111-1111-111111111111"

func testCampaign() *campaign.Campaign {
	return &campaign.Campaign{
		CampaignID:              testCampaignID,
		Name:                    "test campaign",
		Status:                  campaign.StatusActive,
		PriorityPolicy:          campaign.PrioritySequential,
		VerificationPeriodHours: 24,
		NotifyOnWin:             true,
		NotifyOnExhausted:       true,
	}
}

func instantPrize(id string, position, total int) *prize.Prize {
	return &prize.Prize{
		PrizeID:       id,
		CampaignID:    testCampaignID,
		Name:          "prize " + id,
		Status:        prize.StatusActive,
		TotalQuantity: total,
		Position:      position,
		Method:        prize.MethodInstantWin,
		SegmentIDs:    []string{"seg-" + id},
	}
}

func newTestEngine(t *testing.T, rng RandomSource, prizes ...*prize.Prize) (*Engine, *prize.MemoryRepository, *history.MemoryRepository) {
	t.Helper()
	prizeRepo := prize.NewMemoryRepository()
	for _, p := range prizes {
		require.NoError(t, prizeRepo.CreatePrize(context.Background(), p))
	}
	historyRepo := history.NewMemoryRepository()
	return NewEngine(prizeRepo, historyRepo, rng, NewNotificationHub()), prizeRepo, historyRepo
}

// The central correctness property: concurrent interactions can never award
// more units than the stock ceiling, and every win maps to exactly one
// committed increment.
func TestConcurrentAttributionsRespectStock(t *testing.T) {
	const stock = 5
	const players = 100

	engine, prizeRepo, historyRepo := newTestEngine(t, NewCryptoSource(), instantPrize("p1", 0, stock))
	camp := testCampaign()

	var wg sync.WaitGroup
	var winCount int32
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res := engine.Attribute(context.Background(), camp, Context{
				CampaignID:    testCampaignID,
				ParticipantID: "player",
			})
			if res.IsWinner {
				atomic.AddInt32(&winCount, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(stock), winCount, "wins must equal stock exactly")

	p, err := prizeRepo.GetPrize(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, stock, p.AwardedQuantity)
	assert.LessOrEqual(t, p.AwardedQuantity, p.TotalQuantity)

	total, err := historyRepo.CountByCampaign(context.Background(), testCampaignID)
	require.NoError(t, err)
	assert.Equal(t, int64(players), total, "every interaction leaves a record")
}

func TestFraudCapRejectsBeforeStrategies(t *testing.T) {
	engine, prizeRepo, _ := newTestEngine(t, NewCryptoSource(), instantPrize("p1", 0, 10))
	camp := testCampaign()
	camp.MaxWinsPerEmail = 1

	actx := Context{CampaignID: testCampaignID, Email: "dup@example.com"}

	first := engine.Attribute(context.Background(), camp, actx)
	require.True(t, first.IsWinner)

	second := engine.Attribute(context.Background(), camp, actx)
	assert.False(t, second.IsWinner)
	assert.Equal(t, ReasonFraudDetected, second.ReasonCode)

	// The rejected attempt must not have touched stock.
	p, err := prizeRepo.GetPrize(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.AwardedQuantity)
}

func TestEmptyCatalogIsExhausted(t *testing.T) {
	paused := instantPrize("p1", 0, 10)
	paused.Status = prize.StatusPaused
	engine, _, _ := newTestEngine(t, NewCryptoSource(), paused)

	res := engine.Attribute(context.Background(), testCampaign(), Context{CampaignID: testCampaignID})
	assert.False(t, res.IsWinner)
	assert.Equal(t, ReasonExhausted, res.ReasonCode)
}

func TestSequentialOrderingFirstPrizeWins(t *testing.T) {
	engine, _, _ := newTestEngine(t, NewCryptoSource(),
		instantPrize("p-b", 1, 10),
		instantPrize("p-a", 0, 10),
	)
	res := engine.Attribute(context.Background(), testCampaign(), Context{CampaignID: testCampaignID})
	require.True(t, res.IsWinner)
	assert.Equal(t, "p-a", res.Prize.PrizeID)
}

func TestWeightedOrderingPrefersHighPriority(t *testing.T) {
	low := instantPrize("p-low", 0, 10)
	low.Priority = 1
	high := instantPrize("p-high", 1, 10)
	high.Priority = 5

	engine, _, _ := newTestEngine(t, NewCryptoSource(), low, high)
	camp := testCampaign()
	camp.PriorityPolicy = campaign.PriorityWeighted

	res := engine.Attribute(context.Background(), camp, Context{CampaignID: testCampaignID})
	require.True(t, res.IsWinner)
	assert.Equal(t, "p-high", res.Prize.PrizeID)
}

func TestRandomOrderingUsesRandomSource(t *testing.T) {
	// A scripted draw of 0 makes the Fisher-Yates pass swap the two prizes.
	engine, _, _ := newTestEngine(t, NewSeqSource(0),
		instantPrize("p-first", 0, 10),
		instantPrize("p-second", 1, 10),
	)
	camp := testCampaign()
	camp.PriorityPolicy = campaign.PriorityRandom

	res := engine.Attribute(context.Background(), camp, Context{CampaignID: testCampaignID})
	require.True(t, res.IsWinner)
	assert.Equal(t, "p-second", res.Prize.PrizeID)
}

func TestSinglePrizeSurfacesStrategyDiagnosis(t *testing.T) {
	scheduled := time.Now().Add(2 * time.Hour)
	p := &prize.Prize{
		PrizeID:       "p-cal",
		CampaignID:    testCampaignID,
		Status:        prize.StatusActive,
		TotalQuantity: 1,
		Method:        prize.MethodCalendar,
		ScheduledAt:   &scheduled,
		WindowMinutes: 5,
	}
	engine, _, _ := newTestEngine(t, NewCryptoSource(), p)

	res := engine.Attribute(context.Background(), testCampaign(), Context{CampaignID: testCampaignID})
	assert.False(t, res.IsWinner)
	assert.Equal(t, ReasonNotScheduled, res.ReasonCode)
}

func TestMultiPrizeLossIsNoMatch(t *testing.T) {
	rankA := &prize.Prize{
		PrizeID: "p-r1", CampaignID: testCampaignID, Status: prize.StatusActive,
		TotalQuantity: 1, Position: 0, Method: prize.MethodRank, WinningRanks: []int{50},
	}
	rankB := &prize.Prize{
		PrizeID: "p-r2", CampaignID: testCampaignID, Status: prize.StatusActive,
		TotalQuantity: 1, Position: 1, Method: prize.MethodRank, WinningRanks: []int{60},
	}
	engine, _, _ := newTestEngine(t, NewCryptoSource(), rankA, rankB)

	res := engine.Attribute(context.Background(), testCampaign(), Context{CampaignID: testCampaignID})
	assert.False(t, res.IsWinner)
	assert.Equal(t, ReasonNoMatch, res.ReasonCode)
}

func TestIdempotentReplayByReference(t *testing.T) {
	engine, prizeRepo, _ := newTestEngine(t, NewCryptoSource(), instantPrize("p1", 0, 10))
	camp := testCampaign()

	actx := Context{CampaignID: testCampaignID, ReferenceID: "ref-42"}
	first := engine.Attribute(context.Background(), camp, actx)
	require.True(t, first.IsWinner)

	replayed := engine.Attribute(context.Background(), camp, actx)
	assert.True(t, replayed.IsWinner)
	assert.Equal(t, first.ReasonCode, replayed.ReasonCode)
	assert.Equal(t, first.Rank, replayed.Rank)

	p, err := prizeRepo.GetPrize(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.AwardedQuantity, "replay must not consume stock twice")
}

type fraudLookupDown struct {
	*history.MemoryRepository
}

func (fraudLookupDown) CountWins(ctx context.Context, campaignID, dimension, value string, since time.Time) (int64, error) {
	return 0, errors.New("store unavailable")
}

// The guard fails open: a broken win-count lookup degrades anti-fraud, it
// does not lock participants out.
func TestGuardFailsOpenOnLookupError(t *testing.T) {
	prizeRepo := prize.NewMemoryRepository()
	require.NoError(t, prizeRepo.CreatePrize(context.Background(), instantPrize("p1", 0, 10)))
	hist := fraudLookupDown{history.NewMemoryRepository()}
	engine := NewEngine(prizeRepo, hist, NewCryptoSource(), NewNotificationHub())

	camp := testCampaign()
	camp.MaxWinsPerEmail = 1

	res := engine.Attribute(context.Background(), camp, Context{CampaignID: testCampaignID, Email: "a@b.c"})
	assert.True(t, res.IsWinner)
}

type commitDown struct {
	prize.PrizeRepository
}

func (commitDown) CommitAward(ctx context.Context, prizeID string) (*prize.Prize, error) {
	return nil, errors.New("db unavailable")
}

// The stock commit fails closed: no committed increment, no win.
func TestCommitFailureResolvesToSystemError(t *testing.T) {
	prizeRepo := prize.NewMemoryRepository()
	require.NoError(t, prizeRepo.CreatePrize(context.Background(), instantPrize("p1", 0, 10)))
	engine := NewEngine(commitDown{prizeRepo}, history.NewMemoryRepository(), NewCryptoSource(), NewNotificationHub())

	res := engine.Attribute(context.Background(), testCampaign(), Context{CampaignID: testCampaignID})
	assert.False(t, res.IsWinner)
	assert.Equal(t, ReasonSystemError, res.ReasonCode)
}

type rankLookupDown struct {
	*history.MemoryRepository
}

func (rankLookupDown) CountByCampaign(ctx context.Context, campaignID string) (int64, error) {
	return 0, errors.New("store unavailable")
}

func TestRankFailureResolvesToSystemError(t *testing.T) {
	prizeRepo := prize.NewMemoryRepository()
	require.NoError(t, prizeRepo.CreatePrize(context.Background(), instantPrize("p1", 0, 10)))
	engine := NewEngine(prizeRepo, rankLookupDown{history.NewMemoryRepository()}, NewCryptoSource(), NewNotificationHub())

	res := engine.Attribute(context.Background(), testCampaign(), Context{CampaignID: testCampaignID})
	assert.False(t, res.IsWinner)
	assert.Equal(t, ReasonSystemError, res.ReasonCode)
}

func TestRankResolvedOncePerContext(t *testing.T) {
	engine, _, _ := newTestEngine(t, NewCryptoSource(), instantPrize("p1", 0, 10))
	camp := testCampaign()

	first := engine.Attribute(context.Background(), camp, Context{CampaignID: testCampaignID})
	assert.Equal(t, 1, first.Rank)
	second := engine.Attribute(context.Background(), camp, Context{CampaignID: testCampaignID})
	assert.Equal(t, 2, second.Rank)

	// A caller-supplied rank is honored as-is.
	forced := engine.Attribute(context.Background(), camp, Context{CampaignID: testCampaignID, Rank: 99})
	assert.Equal(t, 99, forced.Rank)
}

func TestNotificationsOnWinAndExhaustion(t *testing.T) {
	engine, _, _ := newTestEngine(t, NewCryptoSource(), instantPrize("p1", 0, 1))
	camp := testCampaign()

	events := engine.Subscribe(testCampaignID)
	res := engine.Attribute(context.Background(), camp, Context{CampaignID: testCampaignID})
	require.True(t, res.IsWinner)

	won := <-events
	assert.Equal(t, EventPrizeWon, won.Type)
	assert.Equal(t, "p1", won.PrizeID)

	exhausted := <-events
	assert.Equal(t, EventStockExhausted, exhausted.Type)
	assert.Equal(t, "p1", exhausted.PrizeID)
}

func TestWinCountMatchesAwardedAcrossPrizes(t *testing.T) {
	engine, prizeRepo, _ := newTestEngine(t, NewCryptoSource(),
		instantPrize("p1", 0, 2),
		instantPrize("p2", 1, 3),
	)
	camp := testCampaign()

	var wins int
	for i := 0; i < 20; i++ {
		res := engine.Attribute(context.Background(), camp, Context{CampaignID: testCampaignID})
		assert.Equal(t, res.IsWinner, IsWinCode(res.ReasonCode), "winner flag and reason code must agree")
		if res.IsWinner {
			wins++
		}
	}

	p1, _ := prizeRepo.GetPrize(context.Background(), "p1")
	p2, _ := prizeRepo.GetPrize(context.Background(), "p2")
	assert.Equal(t, p1.AwardedQuantity+p2.AwardedQuantity, wins)
	assert.Equal(t, 2, p1.AwardedQuantity)
	assert.Equal(t, 3, p2.AwardedQuantity)
}
