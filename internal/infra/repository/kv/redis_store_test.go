package kv

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const (
	testRedisAddr     = "localhost:6379"
	testRedisPassword = "password"
	testPrefix        = "storefront_test"
)

type RedisStoreTestSuite struct {
	suite.Suite
	rdb   *redis.Client
	store *RedisStore
}

func setupTestRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     testRedisAddr,
		Password: testRedisPassword,
		DB:       1, // 用測試DB
	})
}

func (suite *RedisStoreTestSuite) SetupSuite() {
	suite.rdb = setupTestRedis()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := suite.rdb.Ping(ctx).Err(); err != nil {
		suite.T().Skipf("redis not available at %s: %v", testRedisAddr, err)
	}
}

func (suite *RedisStoreTestSuite) SetupTest() {
	suite.store = NewRedisStore(suite.rdb, testPrefix)
	suite.clearPrefix(testPrefix)
}

// clearPrefix 測試用，用 SCAN 刪除 prefix 底下的 key，不使用 FLUSHDB
func (suite *RedisStoreTestSuite) clearPrefix(prefix string) {
	ctx := context.Background()
	iter := suite.rdb.Scan(ctx, 0, prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		suite.rdb.Del(ctx, iter.Val())
	}
}

func (suite *RedisStoreTestSuite) TearDownSuite() {
	if suite.rdb != nil {
		suite.rdb.Close()
	}
}

func TestRedisStoreTestSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreTestSuite))
}

func (suite *RedisStoreTestSuite) TestSetAndGet() {
	ctx := context.Background()
	err := suite.store.Set(ctx, "lumina_cart", `{"A":{"name":"A"}}`)
	assert.NoError(suite.T(), err)

	got, err := suite.store.Get(ctx, "lumina_cart")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), `{"A":{"name":"A"}}`, got)

	// 實際 key 帶 prefix
	raw, err := suite.rdb.Get(ctx, testPrefix+":lumina_cart").Result()
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), got, raw)
}

func (suite *RedisStoreTestSuite) TestGetMissing() {
	_, err := suite.store.Get(context.Background(), "nope")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *RedisStoreTestSuite) TestPrefixIsolation() {
	ctx := context.Background()
	other := NewRedisStore(suite.rdb, testPrefix+"_other")
	defer suite.clearPrefix(testPrefix + "_other")

	assert.NoError(suite.T(), suite.store.Set(ctx, "a", "1"))
	assert.NoError(suite.T(), other.Set(ctx, "a", "x"))

	v, err := suite.store.Get(ctx, "a")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "1", v)
	v, err = other.Get(ctx, "a")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "x", v)
}
