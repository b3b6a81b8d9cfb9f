package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrSlotBusy is returned when another request holds the lock for the same slot.
var ErrSlotBusy = errors.New("appointment slot is being booked by another request")

// releaseSlotScript deletes the lock only if it still carries our token, so a
// request whose lock expired never removes a lock taken by someone else.
var releaseSlotScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

const (
	// RedisSlotKeyPrefix namespaces slot locks: slot:{clinic}:{date}:{time}
	RedisSlotKeyPrefix = "slot:"

	slotReleaseTimeout = 2 * time.Second
)

// SlotLocker serialises booking attempts for the same clinic slot.
type SlotLocker interface {
	// Acquire returns a release func that must be called once the booking is
	// persisted or abandoned.
	Acquire(ctx context.Context, clinicID uuid.UUID, date, clock string) (func(), error)
}

// RedisSlotLocker implements SlotLocker with SET NX PX and a Lua release.
// When Redis is unreachable it degrades to no locking and logs a warning;
// the existence query and the unique index still guard the slot.
type RedisSlotLocker struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
}

func NewRedisSlotLocker(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) *RedisSlotLocker {
	return &RedisSlotLocker{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
	}
}

func slotKey(clinicID uuid.UUID, date, clock string) string {
	return fmt.Sprintf("%s%s:%s:%s", RedisSlotKeyPrefix, clinicID, date, clock)
}

func (s *RedisSlotLocker) Acquire(ctx context.Context, clinicID uuid.UUID, date, clock string) (func(), error) {
	key := slotKey(clinicID, date, clock)
	token := uuid.NewString()

	ok, err := s.redisClient.SetNX(ctx, key, token, s.ttl).Result()
	if err != nil {
		s.log.Warnf("Slot lock unavailable for %s, continuing without it: %+v", key, err)
		return func() {}, nil
	}
	if !ok {
		return nil, ErrSlotBusy
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), slotReleaseTimeout)
		defer cancel()
		if err := releaseSlotScript.Run(releaseCtx, s.redisClient, []string{key}, token).Err(); err != nil {
			s.log.Warnf("Failed to release slot lock %s (expires in %v): %+v", key, s.ttl, err)
		}
	}, nil
}
