package redis

import (
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/nfthaus/goapi/base/ctx"
	"github.com/nfthaus/goapi/base/metrics"
	"github.com/nfthaus/goapi/domain/keys"
)

const (
	keyAttribute = "key"

	// retTTLNoKey is the return value of TTL when the key does not exist
	retTTLNoKey = -2
)

var (
	// ErrNotFound is returned when the key does not exist
	ErrNotFound = errors.New("key not found")
)

// Service is the subset of redis commands the cache providers and health
// check depend on.
type Service interface {
	Get(context ctx.Ctx, key string) ([]byte, error)
	Set(context ctx.Ctx, key string, val []byte, expire time.Duration) error
	Del(context ctx.Ctx, ks ...string) (int, error)
	TTL(context ctx.Ctx, key string) (int, error)
	Exists(context ctx.Ctx, key string) (bool, error)
	Incrby(context ctx.Ctx, key string, val int) (int64, error)
}

// Pools represents different pool types
type Pools struct {
	Src *redis.Pool
}

type redImpl struct {
	name  string
	met   metrics.Service
	pools *Pools
}

// New redis pool
func New(name string, metrics metrics.Service, pools *Pools) Service {
	return &redImpl{
		name:  name,
		met:   metrics,
		pools: pools,
	}
}

func (r *redImpl) connDo(context ctx.Ctx, commandName string, args ...interface{}) (interface{}, error) {
	conn := r.pools.Src.Get()
	defer conn.Close()
	return conn.Do(commandName, args...)
}

func (r *redImpl) Get(context ctx.Ctx, key string) ([]byte, error) {
	defer r.met.BumpTime("time", "func", "Get", "cluster", r.name, "prefix", keys.GetPrefix(key)).End()

	val, err := redis.Bytes(r.connDo(context, "GET", key))
	if err == redis.ErrNil {
		return nil, ErrNotFound
	} else if err != nil {
		context.WithField("err", err).WithField(keyAttribute, key).Error("Get redis failed")
		return nil, err
	}
	return val, nil
}

func (r *redImpl) Set(context ctx.Ctx, key string, val []byte, expire time.Duration) error {
	defer r.met.BumpTime("time", "func", "Set", "cluster", r.name, "prefix", keys.GetPrefix(key)).End()

	var err error
	if expire > 0 {
		_, err = r.connDo(context, "SET", key, val, "EX", int(expire.Seconds()))
	} else {
		_, err = r.connDo(context, "SET", key, val)
	}
	if err != nil {
		context.WithField("err", err).WithField(keyAttribute, key).Error("Set redis failed")
		return err
	}
	return nil
}

func (r *redImpl) Del(context ctx.Ctx, ks ...string) (int, error) {
	defer r.met.BumpTime("time", "func", "Del", "cluster", r.name).End()

	args := make([]interface{}, 0, len(ks))
	for _, k := range ks {
		args = append(args, k)
	}
	cnt, err := redis.Int(r.connDo(context, "DEL", args...))
	if err != nil {
		context.WithField("err", err).Error("Del redis failed")
		return 0, err
	}
	return cnt, nil
}

func (r *redImpl) TTL(context ctx.Ctx, key string) (int, error) {
	defer r.met.BumpTime("time", "func", "TTL", "cluster", r.name, "prefix", keys.GetPrefix(key)).End()

	ttl, err := redis.Int(r.connDo(context, "TTL", key))
	if err != nil {
		context.WithField("err", err).WithField(keyAttribute, key).Error("TTL redis failed")
		return 0, err
	}
	if ttl == retTTLNoKey {
		return 0, ErrNotFound
	}
	return ttl, nil
}

func (r *redImpl) Exists(context ctx.Ctx, key string) (bool, error) {
	defer r.met.BumpTime("time", "func", "Exists", "cluster", r.name, "prefix", keys.GetPrefix(key)).End()

	res, err := redis.Bool(r.connDo(context, "EXISTS", key))
	if err != nil {
		context.WithField("err", err).WithField(keyAttribute, key).Error("Exists redis failed")
		return false, err
	}
	return res, nil
}

func (r *redImpl) Incrby(context ctx.Ctx, key string, val int) (int64, error) {
	defer r.met.BumpTime("time", "func", "Incrby", "cluster", r.name, "prefix", keys.GetPrefix(key)).End()

	res, err := redis.Int64(r.connDo(context, "INCRBY", key, val))
	if err != nil {
		context.WithField("err", err).WithField(keyAttribute, key).Error("Incrby redis failed")
		return 0, err
	}
	return res, nil
}
