package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/phlask/resource-registry/internal/domain"
)

const changeChannel = "registry:changes"

// SignalService fans change records out to live subscribers over redis
// pub/sub, so every replica of the registry feeds every websocket client.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

// PublishChanges broadcasts the records of one committed mutation.
func (s *SignalService) PublishChanges(ctx context.Context, records []domain.ChangeRecord) error {
	jsonstr, err := json.Marshal(records)
	if err != nil {
		return err
	}

	return s.rdb.Publish(ctx, changeChannel, jsonstr).Err()
}

// Realtime pumps published change batches into output until ctx is done.
// Undecodable payloads are logged and skipped, never fatal.
func (s *SignalService) Realtime(ctx context.Context, output chan<- []domain.ChangeRecord) {
	pubsub := s.rdb.Subscribe(ctx, changeChannel)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var records []domain.ChangeRecord
			if err := json.Unmarshal([]byte(msg.Payload), &records); err != nil {
				slog.ErrorContext(
					ctx, "failed to decode change batch",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}
			select {
			case <-ctx.Done():
				return
			case output <- records:
			}
		}
	}
}
