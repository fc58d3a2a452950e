// Package bot 聊天命令处理
// 把群聊里的文本命令翻译成引擎调用，再把结果渲染成回复文本
// 一个聊天会话对应一个房间，发送者标识即玩家标识
package bot

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/play/uno/pkg/gateway"
	"github.com/play/uno/pkg/room"
	"github.com/play/uno/pkg/uno"
)

// Bot 命令处理器
type Bot struct {
	rooms    *room.Manager
	rand     uno.RandFunc
	cooldown *limiter
}

// Option Bot 的配置选项
type Option func(*Bot)

// WithRand 注入随机源，测试时传入固定函数即可复现整局游戏
func WithRand(r uno.RandFunc) Option {
	return func(b *Bot) {
		if r != nil {
			b.rand = r
		}
	}
}

// WithCooldown 开启限频：每个玩家在 per 时间内最多发 count 条命令
func WithCooldown(count int, per time.Duration) Option {
	return func(b *Bot) {
		b.cooldown = newLimiter(count, per)
	}
}

// New 创建 Bot
func New(rooms *room.Manager, opts ...Option) *Bot {
	b := &Bot{
		rooms: rooms,
		rand:  uno.DefaultRand,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handle 处理一条聊天消息，返回要发回会话的回复
// 非命令文本返回空串，表示不回复
func (b *Bot) Handle(msg gateway.Message) string {
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	if b.cooldown != nil && b.cooldown.limit(msg.Session+":"+msg.Sender) {
		return "Easy there, too many commands. Give it a second."
	}

	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	log.Debug().Str("session", msg.Session).Str("sender", msg.Sender).Str("cmd", cmd).Msg("command received")

	switch cmd {
	case "/uno":
		return b.open(msg)
	case "/join":
		return b.join(msg)
	case "/start":
		return b.start(msg)
	case "/hand":
		return b.hand(msg)
	case "/board":
		return b.board(msg)
	case "/play":
		return b.play(msg, fields[1:])
	case "/draw":
		return b.draw(msg)
	case "/pass":
		return b.pass(msg)
	case "/help":
		return helpText
	default:
		return helpText
	}
}

func (b *Bot) open(msg gateway.Message) string {
	if _, err := b.rooms.Open(msg.Session, msg.Sender); err != nil {
		return errorText(err)
	}
	return msg.Sender + " opened an UNO table! One seat left, type /join to sit down."
}

func (b *Bot) join(msg gateway.Message) string {
	var phase uno.Phase
	err := b.rooms.Do(msg.Session, func(g *uno.Game) error {
		if err := g.Join(msg.Sender); err != nil {
			return err
		}
		phase = g.Phase
		return nil
	})
	if err != nil {
		return errorText(err)
	}
	if phase == uno.PhaseReady {
		return msg.Sender + " sat down. Table is full. Type /start to deal!"
	}
	return msg.Sender + " sat down. Waiting for one more player."
}

func (b *Bot) start(msg gateway.Message) string {
	var state uno.PublicState
	err := b.rooms.Do(msg.Session, func(g *uno.Game) error {
		if err := g.Start(b.rand); err != nil {
			return err
		}
		state = g.PublicState()
		return nil
	})
	if err != nil {
		return errorText(err)
	}
	var sb strings.Builder
	sb.WriteString("Cards dealt, 7 each. Check /hand for yours.\n")
	sb.WriteString(formatPublic(state))
	sb.WriteString("\n")
	sb.WriteString(state.ActivePlayer)
	sb.WriteString(" goes first.")
	return sb.String()
}

func (b *Bot) hand(msg gateway.Message) string {
	var reply string
	err := b.rooms.Do(msg.Session, func(g *uno.Game) error {
		hand, err := g.PlayerHand(msg.Sender)
		if err != nil {
			return err
		}
		// 开局前只列出手牌，开局后标出可出的牌
		playable, err := g.PlayableCards(msg.Sender)
		if err != nil && !errors.Is(err, uno.ErrGameNotReady) {
			return err
		}
		reply = formatHand(hand, playable)
		return nil
	})
	if err != nil {
		return errorText(err)
	}
	return reply
}

func (b *Bot) board(msg gateway.Message) string {
	var state uno.PublicState
	err := b.rooms.Do(msg.Session, func(g *uno.Game) error {
		state = g.PublicState()
		return nil
	})
	if err != nil {
		return errorText(err)
	}
	return formatPublic(state)
}

// parseColor 解析颜色参数，支持全名和首字母
func parseColor(s string) uno.Color {
	switch strings.ToLower(s) {
	case "red", "r":
		return uno.ColorRed
	case "yellow", "y":
		return uno.ColorYellow
	case "green", "g":
		return uno.ColorGreen
	case "blue", "b":
		return uno.ColorBlue
	default:
		return uno.ColorNone
	}
}

func (b *Bot) play(msg gateway.Message, args []string) string {
	if len(args) < 2 {
		return "Usage: /play <color> <number>, e.g. /play red 7"
	}
	color := parseColor(args[0])
	if color == uno.ColorNone {
		return "Unknown color " + args[0] + ". Colors: red, yellow, green, blue."
	}
	rank := cast.ToInt(args[1])
	if rank < 0 || rank > 9 || (rank == 0 && args[1] != "0") {
		return "The number has to be 0-9."
	}

	var reply string
	err := b.rooms.Do(msg.Session, func(g *uno.Game) error {
		hand, err := g.PlayerHand(msg.Sender)
		if err != nil {
			return err
		}
		// 按颜色点数在手牌里找对应的牌
		var card *uno.Card
		for i := range hand {
			if hand[i].Color == color && hand[i].Rank == uno.Rank(rank) {
				card = &hand[i]
				break
			}
		}
		if card == nil {
			return uno.ErrCardNotFound
		}

		if err := g.Play(msg.Sender, card.ID); err != nil {
			return err
		}

		if g.Phase == uno.PhaseFinished {
			reply = msg.Sender + " played " + formatCard(*card) + " and that's the last card!\n🏆 " + g.Winner + " wins!"
			return nil
		}
		reply = msg.Sender + " played " + formatCard(*card) + ". " + g.Turn.PlayerID + "'s turn."
		return nil
	})
	if err != nil {
		return errorText(err)
	}
	return reply
}

func (b *Bot) draw(msg gateway.Message) string {
	var reply string
	err := b.rooms.Do(msg.Session, func(g *uno.Game) error {
		res, err := g.Draw(msg.Sender, b.rand)
		if err != nil {
			return err
		}
		if res.Playable {
			reply = msg.Sender + " drew " + formatCard(res.Card) + ", it's playable!"
		} else {
			reply = msg.Sender + " drew a card. No luck, /pass to end the turn."
		}
		return nil
	})
	if err != nil {
		return errorText(err)
	}
	return reply
}

func (b *Bot) pass(msg gateway.Message) string {
	var next string
	err := b.rooms.Do(msg.Session, func(g *uno.Game) error {
		if err := g.Pass(msg.Sender); err != nil {
			return err
		}
		next = g.Turn.PlayerID
		return nil
	})
	if err != nil {
		return errorText(err)
	}
	return msg.Sender + " passed. " + next + "'s turn."
}
