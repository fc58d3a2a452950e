package uno

import (
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
)

// Color 牌的颜色
type Color uint8

const (
	ColorNone   Color = iota
	ColorRed          // 红
	ColorYellow       // 黄
	ColorGreen        // 绿
	ColorBlue         // 蓝
)

// String 返回颜色的可读名称
func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorYellow:
		return "yellow"
	case ColorGreen:
		return "green"
	case ColorBlue:
		return "blue"
	default:
		return "none"
	}
}

// MarshalJSON 以可读名称序列化颜色
func (c Color) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON 从可读名称反序列化颜色
func (c *Color) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"red"`:
		*c = ColorRed
	case `"yellow"`:
		*c = ColorYellow
	case `"green"`:
		*c = ColorGreen
	case `"blue"`:
		*c = ColorBlue
	default:
		*c = ColorNone
	}
	return nil
}

// Rank 牌的点数，合法范围 0-9
type Rank uint8

// RandFunc 随机数来源，返回 [0,1) 区间的浮点数
// 引擎所有洗牌操作都通过它取随机数，测试注入固定函数即可复现牌序
type RandFunc func() float64

// DefaultRand 默认随机源，只应在最外层装配时使用，引擎内部从不直接调用
func DefaultRand() float64 {
	return rand.Float64()
}

// Card 代表一张牌
// ID 是唯一标识，出牌时按 ID 定位；颜色和点数只决定出牌合法性
type Card struct {
	ID    string `json:"id"`
	Color Color  `json:"color"`
	Rank  Rank   `json:"rank"`
}

// NewCard 创建一张带新 ID 的牌
func NewCard(color Color, rank Rank) Card {
	return Card{
		ID:    uuid.NewString(),
		Color: color,
		Rank:  rank,
	}
}

// String 返回牌的可读表示，如 "red 7"
func (c Card) String() string {
	return c.Color.String() + " " + strconv.Itoa(int(c.Rank))
}

type Cards []Card

// NewDeck 生成标准的 76 张牌
// 每种颜色：点数 0 一张，点数 1-9 各两张，共 4 x 19 张
// 顺序固定：颜色优先，点数次之，重复的两张相邻
func NewDeck() Cards {
	colors := []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue}

	cards := make(Cards, 0, 76)
	for _, color := range colors {
		cards = append(cards, NewCard(color, 0))
		for rank := Rank(1); rank <= 9; rank++ {
			cards = append(cards, NewCard(color, rank))
			cards = append(cards, NewCard(color, rank))
		}
	}
	return cards
}

// Shuffle 洗牌，返回同样元素的随机排列副本，不修改原序列
// Fisher-Yates：从末尾向前，每个位置与 floor(r()*(i+1)) 位置交换
func (cs Cards) Shuffle(r RandFunc) Cards {
	shuffled := make(Cards, len(cs))
	copy(shuffled, cs)

	for i := len(shuffled) - 1; i >= 1; i-- {
		j := int(r() * float64(i+1))
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// DrawTop 摸走顶牌（序列末尾为顶），序列为空时返回 false
func (cs *Cards) DrawTop() (Card, bool) {
	if len(*cs) == 0 {
		return Card{}, false
	}
	top := (*cs)[len(*cs)-1]
	*cs = (*cs)[:len(*cs)-1]
	return top, true
}

// Top 查看顶牌但不摸走
func (cs Cards) Top() (Card, bool) {
	if len(cs) == 0 {
		return Card{}, false
	}
	return cs[len(cs)-1], true
}
