package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/revanthyasa/DigitSudoku/config"
	"github.com/revanthyasa/DigitSudoku/model"
	"github.com/revanthyasa/DigitSudoku/utils"
	"go.uber.org/zap"
)

const gridKeyPrefix = "grid:"

// RedisService 按上传内容的 MD5 缓存识别结果
type RedisService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisService(cfg *config.RedisConfig) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisService{
		client: client,
		ttl:    cfg.TTL,
	}
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// GetGrid 从缓存获取识别结果，未命中时返回 nil, nil
func (s *RedisService) GetGrid(ctx context.Context, md5 string) (model.Grid, error) {
	data, err := s.client.Get(ctx, gridKeyPrefix+md5).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var resp model.GridResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		utils.Logger.Error("failed to unmarshal cached grid",
			zap.String("md5", md5), zap.Error(err))
		return nil, err
	}

	return resp.Grid, nil
}

// SetGrid 写入识别结果
func (s *RedisService) SetGrid(ctx context.Context, md5 string, grid model.Grid) error {
	data, err := json.Marshal(model.GridResponse{Grid: grid})
	if err != nil {
		return err
	}

	return s.client.Set(ctx, gridKeyPrefix+md5, data, s.ttl).Err()
}

func (s *RedisService) Close() error {
	return s.client.Close()
}
