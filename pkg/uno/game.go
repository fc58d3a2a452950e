package uno

import "time"

const (
	maxPlayers       = 2 // 房间上限两人
	startingHandSize = 7 // 开局每人 7 张
)

// Player 玩家信息
type Player struct {
	ID   string // 玩家ID（由调用方提供，引擎不解释）
	Hand Cards  // 当前手牌，按摸入顺序排列
}

// Turn 当前回合状态
type Turn struct {
	PlayerID string // 当前行动的玩家
	HasDrawn bool   // 本回合是否已经摸过牌
}

// Game 一局游戏的聚合根
// 引擎不持有 Game 的引用，每次操作由调用方传入并原地修改
// 不变量：所有手牌 + 摸牌堆 + 弃牌堆 合计恒为 76 张
type Game struct {
	RoomID       string
	Phase        Phase
	Players      []*Player
	Order        []string // 出牌顺序，两人到齐后固定
	DrawPile     Cards    // 摸牌堆，末尾为顶
	DiscardPile  Cards    // 弃牌堆，末尾为顶（最近打出的牌）
	CurrentColor Color    // 当前匹配颜色，开局前无意义
	CurrentRank  Rank     // 当前匹配点数，开局前无意义
	Turn         *Turn    // 回合状态，仅 PhasePlaying 期间非 nil
	Winner       string   // 赢家ID，仅 PhaseFinished 后非空
	CreatedAt    int64    // 创建时间（Unix时间戳，毫秒）
	UpdatedAt    int64    // 最近一次变更时间（Unix时间戳，毫秒）
}

// NewGame 创建新游戏，房主直接入座，等待第二位玩家
func NewGame(roomID, hostID string) *Game {
	now := time.Now().UnixMilli()
	return &Game{
		RoomID:    roomID,
		Phase:     PhaseWaiting,
		Players:   []*Player{{ID: hostID}},
		Order:     []string{hostID},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// touch 刷新变更时间
func (g *Game) touch() {
	g.UpdatedAt = time.Now().UnixMilli()
}

// player 按ID查找玩家，找不到返回 nil
func (g *Game) player(playerID string) *Player {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// playable 判断一张牌当前是否可出：颜色或点数任一匹配即可
func (g *Game) playable(c Card) bool {
	return c.Color == g.CurrentColor || c.Rank == g.CurrentRank
}

// hasPlayable 判断玩家手中是否有可出的牌
func (g *Game) hasPlayable(p *Player) bool {
	for _, c := range p.Hand {
		if g.playable(c) {
			return true
		}
	}
	return false
}

// nextTurn 把回合交给顺序表中的下一位玩家，摸牌标记清零
func (g *Game) nextTurn() {
	for i, id := range g.Order {
		if id == g.Turn.PlayerID {
			g.Turn = &Turn{PlayerID: g.Order[(i+1)%len(g.Order)]}
			return
		}
	}
}

// Join 玩家加入游戏
// 开局后不能加入；同一玩家不能重复入座；满员拒绝
func (g *Game) Join(playerID string) error {
	if g.Phase != PhaseWaiting && g.Phase != PhaseReady {
		return ErrGameAlreadyStarted
	}
	if g.player(playerID) != nil {
		return ErrPlayerAlreadyJoined
	}
	if len(g.Players) >= maxPlayers {
		return ErrRoomFull
	}

	g.Players = append(g.Players, &Player{ID: playerID})
	g.Order = append(g.Order, playerID)
	if len(g.Players) == maxPlayers {
		g.Phase = PhaseReady
	}
	g.touch()
	return nil
}

// Start 开始游戏
// 生成并洗开一副新牌，按出牌顺序轮流发牌（每轮每人一张，共 7 轮），
// 再翻一张作为弃牌堆的起始牌，剩余的作为摸牌堆
func (g *Game) Start(r RandFunc) error {
	if len(g.Players) < maxPlayers {
		return ErrNotEnoughPlayers
	}
	if g.Phase == PhasePlaying || g.Phase == PhaseFinished {
		return ErrGameAlreadyStarted
	}

	deck := NewDeck().Shuffle(r)

	// 轮流发牌：一人一张交替发，不是一次发完一个人
	for range startingHandSize {
		for _, id := range g.Order {
			card, ok := deck.DrawTop()
			if !ok {
				return ErrDrawPileEmpty
			}
			p := g.player(id)
			p.Hand = append(p.Hand, card)
		}
	}

	// 翻出起始弃牌，它决定第一轮的匹配目标
	first, ok := deck.DrawTop()
	if !ok {
		return ErrDrawPileEmpty
	}

	g.DrawPile = deck
	g.DiscardPile = Cards{first}
	g.CurrentColor = first.Color
	g.CurrentRank = first.Rank
	g.Turn = &Turn{PlayerID: g.Order[0]}
	g.Phase = PhasePlaying
	g.Winner = ""
	g.touch()
	return nil
}

// Play 玩家出牌
// 牌从手中移到弃牌堆顶并更新匹配目标；打空手牌即获胜，游戏终止
func (g *Game) Play(playerID, cardID string) error {
	if g.Phase != PhasePlaying {
		return ErrGameNotReady
	}
	if g.Turn == nil || g.Turn.PlayerID != playerID {
		return ErrNotPlayerTurn
	}
	p := g.player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}

	idx := -1
	for i, c := range p.Hand {
		if c.ID == cardID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrCardNotFound
	}

	card := p.Hand[idx]
	if !g.playable(card) {
		return ErrCardNotPlayable
	}

	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	g.DiscardPile = append(g.DiscardPile, card)
	g.CurrentColor = card.Color
	g.CurrentRank = card.Rank

	if len(p.Hand) == 0 {
		// 手牌打空，游戏结束
		g.Phase = PhaseFinished
		g.Winner = playerID
		g.Turn = nil
	} else {
		g.nextTurn()
	}
	g.touch()
	return nil
}

// DrawResult 摸牌结果
type DrawResult struct {
	Card     Card // 摸到的牌
	Playable bool // 这张牌当前是否立即可出
}

// Draw 玩家摸牌
// 只有手中没有可出的牌时才允许摸，每回合至多摸一张
// 摸牌后回合不切换，玩家可以接着打出刚摸的牌，或选择过
func (g *Game) Draw(playerID string, r RandFunc) (DrawResult, error) {
	if g.Phase != PhasePlaying {
		return DrawResult{}, ErrGameNotReady
	}
	if g.Turn == nil || g.Turn.PlayerID != playerID {
		return DrawResult{}, ErrNotPlayerTurn
	}
	p := g.player(playerID)
	if p == nil {
		return DrawResult{}, ErrPlayerNotFound
	}
	if g.Turn.HasDrawn {
		return DrawResult{}, ErrAlreadyDrewCard
	}
	if g.hasPlayable(p) {
		// 有牌可出就必须出，不能摸
		return DrawResult{}, ErrMustDrawFirst
	}

	if len(g.DrawPile) == 0 {
		if err := g.reshuffle(r); err != nil {
			return DrawResult{}, err
		}
	}

	card, ok := g.DrawPile.DrawTop()
	if !ok {
		// 重洗后仍然无牌可摸，数据已经异常
		return DrawResult{}, ErrDrawPileEmpty
	}

	p.Hand = append(p.Hand, card)
	g.Turn.HasDrawn = true
	g.touch()
	return DrawResult{Card: card, Playable: g.playable(card)}, nil
}

// reshuffle 摸牌堆耗尽时，把弃牌堆顶牌以外的牌洗回摸牌堆
// 顶牌仍是当前匹配目标，必须原样留在弃牌堆顶
func (g *Game) reshuffle(r RandFunc) error {
	if len(g.DiscardPile) < 2 {
		return ErrNoCardsToDraw
	}
	top := g.DiscardPile[len(g.DiscardPile)-1]
	rest := g.DiscardPile[:len(g.DiscardPile)-1]

	g.DrawPile = rest.Shuffle(r)
	g.DiscardPile = Cards{top}
	return nil
}

// Pass 玩家过牌
// 必须先摸过牌才允许过，回合交给下一位玩家
func (g *Game) Pass(playerID string) error {
	if g.Phase != PhasePlaying {
		return ErrGameNotReady
	}
	if g.Turn == nil || g.Turn.PlayerID != playerID {
		return ErrNotPlayerTurn
	}
	if !g.Turn.HasDrawn {
		return ErrMustDrawFirst
	}

	g.nextTurn()
	g.touch()
	return nil
}
