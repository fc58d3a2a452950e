package uno

// PlayerCount 公开视图中的玩家信息，只暴露手牌数量
type PlayerCount struct {
	ID    string `json:"id"`
	Cards int    `json:"cards"`
}

// PublicState 对局的公开视图
// 不含任何玩家的手牌内容，可以直接转发给对手或任意展示层
type PublicState struct {
	RoomID       string        `json:"room_id"`
	Phase        Phase         `json:"phase"`
	Players      []PlayerCount `json:"players"`
	CurrentColor Color         `json:"current_color,omitempty"`
	CurrentRank  Rank          `json:"current_rank"`
	TopCard      *Card         `json:"top_card,omitempty"`
	DrawPile     int           `json:"draw_pile"`
	ActivePlayer string        `json:"active_player,omitempty"`
	Winner       string        `json:"winner,omitempty"`
}

// PublicState 生成公开视图，纯读取，不修改状态
func (g *Game) PublicState() PublicState {
	s := PublicState{
		RoomID:   g.RoomID,
		Phase:    g.Phase,
		DrawPile: len(g.DrawPile),
		Winner:   g.Winner,
	}
	for _, p := range g.Players {
		s.Players = append(s.Players, PlayerCount{ID: p.ID, Cards: len(p.Hand)})
	}
	if top, ok := g.DiscardPile.Top(); ok {
		s.TopCard = &top
		s.CurrentColor = g.CurrentColor
		s.CurrentRank = g.CurrentRank
	}
	if g.Turn != nil {
		s.ActivePlayer = g.Turn.PlayerID
	}
	return s
}

// PlayerHand 返回指定玩家的手牌副本
// 这是唯一能看到手牌内容的视图，只应发给手牌的主人
func (g *Game) PlayerHand(playerID string) (Cards, error) {
	p := g.player(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	hand := make(Cards, len(p.Hand))
	copy(hand, p.Hand)
	return hand, nil
}

// PlayableCards 返回玩家当前可出的牌
// 可出规则：颜色等于当前颜色，或点数等于当前点数
func (g *Game) PlayableCards(playerID string) (Cards, error) {
	if g.Phase != PhasePlaying && g.Phase != PhaseFinished {
		return nil, ErrGameNotReady
	}
	p := g.player(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}

	var playable Cards
	for _, c := range p.Hand {
		if g.playable(c) {
			playable = append(playable, c)
		}
	}
	return playable, nil
}
