// Package gateway 聊天消息中转
// 入站命令和出站回复都走 Redis List：聊天适配器 RPUSH 消息，
// 机器人侧 BLPOP 消费，反向同理。一条消息只会被一个消费者取走
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// 全局错误码
var (
	ErrQueueFull          = errors.New("queue is full")
	ErrGatewayClosed      = errors.New("gateway is closed")
	ErrSubscriptionClosed = errors.New("subscription is closed")
)

const (
	redisKeyPrefix      = "unobot:topic:"
	blpopTimeout        = 1 * time.Second // BLPOP 的阻塞超时时间
	defaultQueueSize    = 1000            // 默认队列长度限制
	defaultDataChanSize = 100             // 默认内部数据通道大小
)

// Message 一条聊天消息
type Message struct {
	Session string `json:"session"` // 会话标识（群聊/频道）
	Sender  string `json:"sender"`  // 发送者标识
	Text    string `json:"text"`    // 消息正文
	SentAt  int64  `json:"sent_at"` // 发送时间（Unix时间戳，毫秒）
}

// Handler 消息处理函数
type Handler func(msg Message)

// Option 是用于 Gateway 或 Subscription 的配置选项函数
type Option func(any)

// WithQueueSize 设置 Publish 时检查的 Redis List 最大长度，qs <= 0 表示不限制
func WithQueueSize(qs int) Option {
	return func(o any) {
		if gw, ok := o.(*Gateway); ok {
			gw.queueSize = qs
		}
	}
}

// WithRecovery 使消息处理函数在发生 panic 时被 recover
func WithRecovery() Option {
	return func(o any) {
		switch v := o.(type) {
		case *Subscription:
			v.useRecovery = true
		case *Gateway:
			v.useRecovery = true
		}
	}
}

// WithConcurrency 设置消费函数的并发数量，c <= 0 时默认为 1
func WithConcurrency(c int) Option {
	return func(o any) {
		if s, ok := o.(*Subscription); ok {
			if c <= 0 {
				s.concurrency = 1
			} else {
				s.concurrency = c
			}
		}
	}
}

// Gateway 结构体
type Gateway struct {
	redisClient   redis.Cmdable
	queueSize     int
	mu            sync.Mutex
	subscriptions []*Subscription
	closed        chan struct{}
	wg            sync.WaitGroup // 用于等待所有 Subscription 关闭
	useRecovery   bool
}

// Subscription 一个主题的消费循环
type Subscription struct {
	gateway      *Gateway
	topic        string
	redisKey     string
	handler      Handler
	concurrency  int
	useRecovery  bool
	dataChan     chan []byte // BLPOP 将数据放入此通道，worker 消费
	stopChan     chan struct{}
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
	processingMu sync.Mutex // 确保 Stop 时不会有新的消息开始处理
}

// New 创建一个新的 Gateway 实例
func New(redisClient redis.Cmdable, opts ...Option) *Gateway {
	gw := &Gateway{
		redisClient: redisClient,
		queueSize:   defaultQueueSize,
		closed:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(gw)
	}
	log.Trace().Int("queue_size", gw.queueSize).Bool("recovery", gw.useRecovery).Msg("gateway initialized")
	return gw
}

func formatTopicKey(topic string) string {
	return redisKeyPrefix + topic
}

// Publish 发布一条消息到指定的 topic
func (gw *Gateway) Publish(ctx context.Context, topic string, msg Message) error {
	select {
	case <-gw.closed:
		log.Error().Str("topic", topic).Msg("cannot publish on closed gateway")
		return ErrGatewayClosed
	default:
	}

	redisKey := formatTopicKey(topic)

	// 检查队列长度
	if gw.queueSize > 0 {
		length, err := gw.redisClient.LLen(ctx, redisKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Error().Err(err).Str("topic", topic).Msg("failed to get list length for queue size check")
			return fmt.Errorf("redis LLen failed: %w", err)
		}
		if length >= int64(gw.queueSize) {
			log.Warn().Str("topic", topic).Int64("length", length).Int("limit", gw.queueSize).Msg("queue size limit reached")
			return ErrQueueFull
		}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("failed to marshal message")
		return fmt.Errorf("json marshal failed: %w", err)
	}

	if err := gw.redisClient.RPush(ctx, redisKey, payload).Err(); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("failed to push message to redis")
		return fmt.Errorf("redis RPush failed: %w", err)
	}

	log.Trace().Str("topic", topic).Str("session", msg.Session).Msg("message published")
	return nil
}

// Subscribe 订阅一个 topic，handler 逐条收到解码后的消息
func (gw *Gateway) Subscribe(ctx context.Context, topic string, handler Handler, opts ...Option) (*Subscription, error) {
	select {
	case <-gw.closed:
		log.Error().Str("topic", topic).Msg("cannot subscribe on closed gateway")
		return nil, ErrGatewayClosed
	default:
	}

	subCtx, subCancel := context.WithCancel(ctx)

	s := &Subscription{
		gateway:     gw,
		topic:       topic,
		redisKey:    formatTopicKey(topic),
		handler:     handler,
		concurrency: 1,
		dataChan:    make(chan []byte, defaultDataChanSize),
		stopChan:    make(chan struct{}),
		ctx:         subCtx,
		cancel:      subCancel,
		useRecovery: gw.useRecovery, // 默认继承 Gateway 的 useRecovery
	}
	for _, opt := range opts {
		opt(s)
	}

	gw.mu.Lock()
	gw.subscriptions = append(gw.subscriptions, s)
	gw.mu.Unlock()

	gw.wg.Add(1) // Gateway 等待此 Subscription

	log.Trace().Str("topic", topic).Int("concurrency", s.concurrency).Msg("subscription created")
	return s, nil
}

// Close 关闭 Gateway，停止所有订阅并等待它们退出
func (gw *Gateway) Close() error {
	gw.mu.Lock()
	select {
	case <-gw.closed:
		gw.mu.Unlock()
		log.Warn().Msg("gateway already closed")
		return nil
	default:
		close(gw.closed)
		log.Info().Msg("gateway closing...")
	}

	allSubs := gw.subscriptions
	gw.subscriptions = nil
	gw.mu.Unlock()

	for _, sub := range allSubs {
		if err := sub.Stop(); err != nil && !errors.Is(err, ErrSubscriptionClosed) {
			log.Error().Err(err).Str("topic", sub.topic).Msg("error stopping subscription during gateway close")
		}
	}

	gw.wg.Wait()
	log.Info().Msg("gateway closed")
	return nil
}

// Loop 启动订阅的处理循环：一个 BLPOP goroutine 加 N 个 worker
func (s *Subscription) Loop() {
	s.wg.Add(1)
	go s.blpopLoop()

	for i := 0; i < s.concurrency; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	log.Info().Str("topic", s.topic).Int("workers", s.concurrency).Msg("subscription loop started")
}

func (s *Subscription) blpopLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			return
		case <-s.ctx.Done():
			return
		case <-s.gateway.closed:
			return
		default:
			// BLPOP 返回 [keyName, value]
			results, err := s.gateway.redisClient.BLPop(s.ctx, blpopTimeout, s.redisKey).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "context canceled") {
					continue
				}
				log.Error().Err(err).Str("topic", s.topic).Msg("blpop failed")
				time.Sleep(1 * time.Second)
				continue
			}

			if len(results) != 2 {
				log.Warn().Str("topic", s.topic).Int("results_len", len(results)).Msg("blpop returned unexpected result length")
				continue
			}

			select {
			case s.dataChan <- []byte(results[1]):
			case <-s.stopChan:
				return
			case <-s.ctx.Done():
				return
			case <-s.gateway.closed:
				return
			}
		}
	}
}

func (s *Subscription) worker(workerId int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			return
		case <-s.ctx.Done():
			return
		case <-s.gateway.closed:
			return
		case payload := <-s.dataChan:
			s.processMessage(workerId, payload)
		}
	}
}

func (s *Subscription) processMessage(workerId int, payload []byte) {
	s.processingMu.Lock()
	defer s.processingMu.Unlock()

	select {
	case <-s.stopChan:
		return
	default:
	}

	if s.useRecovery {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("topic", s.topic).Int("worker_id", workerId).Interface("panic", r).Msg("recovered panic in message handler")
			}
		}()
	}

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Error().Err(err).Str("topic", s.topic).Int("worker_id", workerId).Bytes("payload", payload).Msg("failed to unmarshal message")
		return
	}

	s.handler(msg)
}

// Stop 停止订阅，关闭 BLPOP goroutine 和所有 worker
func (s *Subscription) Stop() error {
	// 在 processingMu 内关闭 stopChan，保证没有新的消息开始处理
	s.processingMu.Lock()
	select {
	case <-s.stopChan:
		s.processingMu.Unlock()
		return ErrSubscriptionClosed
	default:
		close(s.stopChan)
		s.cancel()
		log.Info().Str("topic", s.topic).Msg("subscription stopping...")
	}
	s.processingMu.Unlock()

	s.wg.Wait()
	s.gateway.wg.Done()
	log.Info().Str("topic", s.topic).Msg("subscription stopped")
	return nil
}
