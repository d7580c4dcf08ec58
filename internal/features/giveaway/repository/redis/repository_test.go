package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"discord-giveaway-bot/internal/features/giveaway/models"
	"discord-giveaway-bot/internal/features/giveaway/repository"
)

type GiveawayRepositoryTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	repo   repository.GiveawayRepository
	ctx    context.Context
}

func (s *GiveawayRepositoryTestSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.repo = NewGiveawayRepository(s.client, time.Hour)
	s.ctx = context.Background()
}

func (s *GiveawayRepositoryTestSuite) TearDownTest() {
	s.client.Close()
}

func (s *GiveawayRepositoryTestSuite) newGiveaway(id string) *models.Giveaway {
	now := time.Now()
	return &models.Giveaway{
		ID:           id,
		Prize:        "Nitro",
		Winners:      1,
		StartedAt:    now,
		EndsAt:       now.Add(time.Minute),
		HostID:       "host",
		ChannelID:    "chan",
		MessageID:    "msg",
		Participants: []models.Participant{},
	}
}

func (s *GiveawayRepositoryTestSuite) TestCreateAndGet() {
	g := s.newGiveaway("1")
	s.Require().NoError(s.repo.Create(s.ctx, g))

	got, err := s.repo.GetByID(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal("Nitro", got.Prize)
	s.Equal("msg", got.MessageID)
	s.Empty(got.Participants)

	s.True(s.mr.Exists("giveaway:1"))
	ttl := s.mr.TTL("giveaway:1")
	s.Greater(ttl, time.Hour)
	s.LessOrEqual(ttl, time.Hour+time.Minute)
}

func (s *GiveawayRepositoryTestSuite) TestCreateDoesNotOverwrite() {
	s.Require().NoError(s.repo.Create(s.ctx, s.newGiveaway("1")))
	s.ErrorIs(s.repo.Create(s.ctx, s.newGiveaway("1")), repository.ErrGiveawayExists)
}

func (s *GiveawayRepositoryTestSuite) TestGetMissing() {
	_, err := s.repo.GetByID(s.ctx, "nope")
	s.ErrorIs(err, repository.ErrGiveawayNotFound)
}

func (s *GiveawayRepositoryTestSuite) TestUpdateKeepsTTL() {
	s.Require().NoError(s.repo.Create(s.ctx, s.newGiveaway("1")))
	before := s.mr.TTL("giveaway:1")

	updated, err := s.repo.Update(s.ctx, "1", func(g *models.Giveaway) error {
		g.Toggle(models.Participant{ID: "u1", DisplayName: "alice"})
		return nil
	})
	s.Require().NoError(err)
	s.Len(updated.Participants, 1)
	s.Equal(before, s.mr.TTL("giveaway:1"))

	got, err := s.repo.GetByID(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal([]models.Participant{{ID: "u1", DisplayName: "alice"}}, got.Participants)
}

func (s *GiveawayRepositoryTestSuite) TestUpdateMissingNeverRecreates() {
	_, err := s.repo.Update(s.ctx, "gone", func(g *models.Giveaway) error {
		g.Toggle(models.Participant{ID: "u1"})
		return nil
	})
	s.ErrorIs(err, repository.ErrGiveawayNotFound)
	s.False(s.mr.Exists("giveaway:gone"))
}

func (s *GiveawayRepositoryTestSuite) TestUpdateAbortsOnCallbackError() {
	s.Require().NoError(s.repo.Create(s.ctx, s.newGiveaway("1")))
	boom := errors.New("boom")

	_, err := s.repo.Update(s.ctx, "1", func(g *models.Giveaway) error {
		g.Prize = "changed"
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.repo.GetByID(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal("Nitro", got.Prize)
}

func (s *GiveawayRepositoryTestSuite) TestConcurrentTogglesAllLand() {
	s.Require().NoError(s.repo.Create(s.ctx, s.newGiveaway("1")))

	const users = 16
	var wg sync.WaitGroup
	errs := make(chan error, users)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.repo.Update(s.ctx, "1", func(g *models.Giveaway) error {
				g.Toggle(models.Participant{ID: fmt.Sprintf("u%d", i)})
				return nil
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}
	got, err := s.repo.GetByID(s.ctx, "1")
	s.Require().NoError(err)
	s.Len(got.Participants, users)
}

func (s *GiveawayRepositoryTestSuite) TestDelete() {
	s.Require().NoError(s.repo.Create(s.ctx, s.newGiveaway("1")))
	s.Require().NoError(s.repo.Delete(s.ctx, "1"))
	s.False(s.mr.Exists("giveaway:1"))
	// deleting twice is fine
	s.NoError(s.repo.Delete(s.ctx, "1"))
}

func (s *GiveawayRepositoryTestSuite) TestClaim() {
	token, err := s.repo.Claim(s.ctx, "1", time.Minute)
	s.Require().NoError(err)
	s.NotEmpty(token)

	_, err = s.repo.Claim(s.ctx, "1", time.Minute)
	s.ErrorIs(err, repository.ErrAlreadyClaimed)

	// a stale token must not release someone else's claim
	s.Require().NoError(s.repo.ReleaseClaim(s.ctx, "1", "other"))
	_, err = s.repo.Claim(s.ctx, "1", time.Minute)
	s.ErrorIs(err, repository.ErrAlreadyClaimed)

	s.Require().NoError(s.repo.ReleaseClaim(s.ctx, "1", token))
	_, err = s.repo.Claim(s.ctx, "1", time.Minute)
	s.NoError(err)
}

func (s *GiveawayRepositoryTestSuite) TestClaimExpires() {
	_, err := s.repo.Claim(s.ctx, "1", time.Minute)
	s.Require().NoError(err)

	s.mr.FastForward(2 * time.Minute)
	_, err = s.repo.Claim(s.ctx, "1", time.Minute)
	s.NoError(err)
}

func (s *GiveawayRepositoryTestSuite) TestHoldsClaim() {
	token, err := s.repo.Claim(s.ctx, "1", time.Minute)
	s.Require().NoError(err)

	held, err := s.repo.HoldsClaim(s.ctx, "1", token)
	s.Require().NoError(err)
	s.True(held)

	held, err = s.repo.HoldsClaim(s.ctx, "1", "other")
	s.Require().NoError(err)
	s.False(held)

	// once expired, another delivery may take over and the old token is stale
	s.mr.FastForward(2 * time.Minute)
	held, err = s.repo.HoldsClaim(s.ctx, "1", token)
	s.Require().NoError(err)
	s.False(held)

	_, err = s.repo.Claim(s.ctx, "1", time.Minute)
	s.Require().NoError(err)
	held, err = s.repo.HoldsClaim(s.ctx, "1", token)
	s.Require().NoError(err)
	s.False(held)
}

func TestGiveawayRepositorySuite(t *testing.T) {
	suite.Run(t, new(GiveawayRepositoryTestSuite))
}

func TestCreateWithoutRetentionHasNoTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := NewGiveawayRepository(client, 0)
	now := time.Now()
	require.NoError(t, repo.Create(context.Background(), &models.Giveaway{
		ID: "1", Winners: 1, StartedAt: now, EndsAt: now.Add(time.Minute),
	}))
	assert.Equal(t, time.Duration(0), mr.TTL("giveaway:1"))
}
