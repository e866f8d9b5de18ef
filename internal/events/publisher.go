package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// 事件类型
const (
	TypeNFTMinted       = "nft.minted"
	TypeMintCompensated = "nft.mint_compensated"

	metadataEventType = "event_type"
)

// NFTMinted 铸造完成
type NFTMinted struct {
	NFTID           string    `json:"nft_id"`
	UserID          string    `json:"user_id"`
	SessionID       string    `json:"session_id"`
	CollectionID    string    `json:"collection_id"`
	ContractID      string    `json:"contract_id"`
	TokenID         string    `json:"token_id"`
	TransactionHash string    `json:"transaction_hash"`
	MintedAt        time.Time `json:"minted_at"`
}

// MintCompensated 提交失败后已回滚供应
type MintCompensated struct {
	UserID          string    `json:"user_id"`
	SessionID       string    `json:"session_id"`
	CollectionID    string    `json:"collection_id"`
	TransactionHash string    `json:"transaction_hash,omitempty"`
	Reason          string    `json:"reason"`
	Released        bool      `json:"released"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Publisher 铸造事件发布
type Publisher interface {
	PublishMinted(ctx context.Context, event NFTMinted) error
	PublishCompensated(ctx context.Context, event MintCompensated) error
}

// WatermillPublisher 基于 watermill 的事件发布
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher 创建发布器
func NewWatermillPublisher(publisher message.Publisher, topic string) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     topic,
	}
}

// NewRedisStreamPublisher 通过 Redis Streams 发布
func NewRedisStreamPublisher(client *redis.Client, logger watermill.LoggerAdapter) (message.Publisher, error) {
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: client,
		},
		logger,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create redis stream publisher")
	}
	return publisher, nil
}

func (p *WatermillPublisher) PublishMinted(ctx context.Context, event NFTMinted) error {
	return p.publish(ctx, TypeNFTMinted, event)
}

func (p *WatermillPublisher) PublishCompensated(ctx context.Context, event MintCompensated) error {
	return p.publish(ctx, TypeMintCompensated, event)
}

func (p *WatermillPublisher) publish(ctx context.Context, eventType string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metadataEventType, eventType)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return errors.Wrapf(err, "failed to publish %s", eventType)
	}
	return nil
}

// Close 关闭底层发布器
func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}

// NoopPublisher 事件关闭时使用
type NoopPublisher struct{}

func (NoopPublisher) PublishMinted(ctx context.Context, event NFTMinted) error {
	return nil
}

func (NoopPublisher) PublishCompensated(ctx context.Context, event MintCompensated) error {
	return nil
}
