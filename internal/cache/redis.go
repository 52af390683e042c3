// Package cache Redis缓存封装，值统一用JSON序列化
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	rdb *redis.Client
	ctx = context.Background()
)

// InitRedis 初始化Redis连接，地址取REDIS_ADDR，默认localhost:6379
func InitRedis() error {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("Redis连接失败: %v", err)
	}
	log.Printf("[INFO][Cache] Redis连接成功: %s", addr)
	return nil
}

// Set 设置缓存
func Set(key string, value any, expiration time.Duration) error {
	if rdb == nil {
		return fmt.Errorf("Redis未初始化")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, data, expiration).Err()
}

// Get 获取缓存并反序列化到dest
func Get(key string, dest any) error {
	if rdb == nil {
		return fmt.Errorf("Redis未初始化")
	}
	data, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete 删除缓存
func Delete(key string) error {
	if rdb == nil {
		return fmt.Errorf("Redis未初始化")
	}
	return rdb.Del(ctx, key).Err()
}

// Exists 检查key是否存在
func Exists(key string) bool {
	if rdb == nil {
		return false
	}
	result, err := rdb.Exists(ctx, key).Result()
	return err == nil && result > 0
}

// Close 关闭Redis连接
func Close() error {
	if rdb != nil {
		return rdb.Close()
	}
	return nil
}

// Provider 把Redis缓存适配成行情层的CacheProvider
type Provider struct{}

func (Provider) Get(key string, dest any) error {
	return Get(key, dest)
}

func (Provider) Set(key string, value any, expiration time.Duration) error {
	return Set(key, value, expiration)
}
