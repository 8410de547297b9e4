package service

import (
	"errors"
	"testing"
	"time"

	"github.com/pribylovaa/tokenauth/internal/cache"
	"github.com/pribylovaa/tokenauth/internal/config"
	"github.com/pribylovaa/tokenauth/internal/hasher"
	"github.com/pribylovaa/tokenauth/internal/refresh"
	"github.com/pribylovaa/tokenauth/internal/storage"
	"github.com/pribylovaa/tokenauth/internal/token"
	"github.com/pribylovaa/tokenauth/mocks"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang/mock/gomock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       "unit-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "tokenauth",
	}
}

// clock — управляемые часы для codec.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

type fixture struct {
	svc   *Service
	users *mocks.MockUserStorage
	h     *hasher.Hasher
	mr    *miniredis.Miniredis
	clk   *clock
}

func testHasher() *hasher.Hasher {
	return hasher.New(hasher.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1})
}

func newCodec(t *testing.T, clk *clock) *token.Codec {
	t.Helper()
	c, err := token.NewCodec(testCfg(), token.WithClock(clk.Now))
	require.NoError(t, err)
	return c
}

// newFixture собирает сервис над gomock-хранилищем пользователей и
// настоящим refresh.Store поверх miniredis.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserStorage(ctrl)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clk := &clock{t: time.Now()}
	h := testHasher()
	rs := refresh.NewStore(cache.NewFromClient(rdb), "refresh:", testCfg().RefreshTokenTTL)

	svc, err := New(users, h, newCodec(t, clk), rs)
	require.NoError(t, err)

	return &fixture{
		svc:   svc,
		users: users,
		h:     h,
		mr:    mr,
		clk:   clk,
	}
}

// newKVFixture — сервис над gomock key-value, для сценариев отказа Redis.
func newKVFixture(t *testing.T) (*Service, *mocks.MockUserStorage, *mocks.MockKeyValue) {
	t.Helper()

	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserStorage(ctrl)
	kv := mocks.NewMockKeyValue(ctrl)

	svc, err := New(users, testHasher(), newCodec(t, &clock{t: time.Now()}),
		refresh.NewStore(kv, "refresh:", time.Hour))
	require.NoError(t, err)

	return svc, users, kv
}

var _ storage.UserStorage = (*mocks.MockUserStorage)(nil)
var _ storage.KeyValue = (*mocks.MockKeyValue)(nil)

// failingReader имитирует отказ источника случайности.
type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy unavailable") }

func TestNew_DummyDigestFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	h := hasher.New(hasher.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1}, hasher.WithRandom(failingReader{}))

	svc, err := New(mocks.NewMockUserStorage(ctrl), h, newCodec(t, &clock{t: time.Now()}),
		refresh.NewStore(mocks.NewMockKeyValue(ctrl), "refresh:", time.Hour))
	require.Error(t, err)
	require.Nil(t, svc)
	require.Contains(t, err.Error(), "service.New")
}

func TestNew_DummyDigestIsVerifiable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NotEmpty(t, f.svc.dummyDigest)

	ok, err := f.h.Verify(dummyPassword, f.svc.dummyDigest)
	require.NoError(t, err)
	require.True(t, ok)
}
