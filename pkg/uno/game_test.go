package uno

import (
	"errors"
	"testing"
)

// newReadyGame 创建一局两人到齐、尚未开始的游戏
func newReadyGame(t *testing.T) *Game {
	t.Helper()
	g := NewGame("R1", "alice")
	if err := g.Join("bob"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	return g
}

// newPlayingGame 手工搭建一局进行中的游戏，便于精确控制手牌和弃牌堆
// 弃牌堆顶为 top，alice 先手
func newPlayingGame(aliceHand, bobHand Cards, top Card) *Game {
	g := NewGame("R1", "alice")
	_ = g.Join("bob")
	g.Players[0].Hand = aliceHand
	g.Players[1].Hand = bobHand
	g.DiscardPile = Cards{top}
	g.CurrentColor = top.Color
	g.CurrentRank = top.Rank
	g.Turn = &Turn{PlayerID: "alice"}
	g.Phase = PhasePlaying
	return g
}

// totalCards 清点所有手牌和两个牌堆的总张数
func totalCards(g *Game) int {
	total := len(g.DrawPile) + len(g.DiscardPile)
	for _, p := range g.Players {
		total += len(p.Hand)
	}
	return total
}

func TestNewGame(t *testing.T) {
	g := NewGame("R1", "alice")

	if g.Phase != PhaseWaiting {
		t.Errorf("expected phase %v, got %v", PhaseWaiting, g.Phase)
	}
	if len(g.Players) != 1 || g.Players[0].ID != "alice" {
		t.Errorf("host should be seated, got %+v", g.Players)
	}
	if len(g.DrawPile) != 0 || len(g.DiscardPile) != 0 {
		t.Error("piles should be empty before start")
	}
	if g.CreatedAt == 0 || g.UpdatedAt == 0 {
		t.Error("timestamps should be set")
	}
}

func TestGame_Join(t *testing.T) {
	g := NewGame("R1", "alice")

	// 第二人加入后进入 ready
	if err := g.Join("bob"); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if g.Phase != PhaseReady {
		t.Errorf("expected phase %v, got %v", PhaseReady, g.Phase)
	}
	if len(g.Order) != 2 || g.Order[0] != "alice" || g.Order[1] != "bob" {
		t.Errorf("unexpected turn order %v", g.Order)
	}

	// 重复加入
	if err := g.Join("bob"); !errors.Is(err, ErrPlayerAlreadyJoined) {
		t.Errorf("expected ErrPlayerAlreadyJoined, got %v", err)
	}

	// 满员
	if err := g.Join("carol"); !errors.Is(err, ErrRoomFull) {
		t.Errorf("expected ErrRoomFull, got %v", err)
	}

	// 开局后不能加入
	if err := g.Start(zeroRand); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := g.Join("dave"); !errors.Is(err, ErrGameAlreadyStarted) {
		t.Errorf("expected ErrGameAlreadyStarted, got %v", err)
	}
}

func TestGame_Start(t *testing.T) {
	// 人数不足
	g := NewGame("R1", "alice")
	if err := g.Start(zeroRand); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("expected ErrNotEnoughPlayers, got %v", err)
	}

	g = newReadyGame(t)
	if err := g.Start(zeroRand); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// 每人 7 张，摸牌堆 76-14-1=61 张，弃牌堆 1 张
	for _, p := range g.Players {
		if len(p.Hand) != 7 {
			t.Errorf("player %s expected 7 cards, got %d", p.ID, len(p.Hand))
		}
	}
	if len(g.DrawPile) != 61 {
		t.Errorf("expected draw pile 61, got %d", len(g.DrawPile))
	}
	if len(g.DiscardPile) != 1 {
		t.Errorf("expected discard pile 1, got %d", len(g.DiscardPile))
	}
	if totalCards(g) != 76 {
		t.Errorf("expected 76 cards total, got %d", totalCards(g))
	}

	if g.Phase != PhasePlaying {
		t.Errorf("expected phase %v, got %v", PhasePlaying, g.Phase)
	}
	if g.Turn == nil || g.Turn.PlayerID != g.Order[0] {
		t.Errorf("expected first player's turn, got %+v", g.Turn)
	}
	if g.Turn.HasDrawn {
		t.Error("HasDrawn should start false")
	}

	// 当前颜色/点数必须与弃牌堆顶一致
	top, _ := g.DiscardPile.Top()
	if g.CurrentColor != top.Color || g.CurrentRank != top.Rank {
		t.Errorf("current %v/%d does not match top %v", g.CurrentColor, g.CurrentRank, top)
	}

	// 重复开始
	if err := g.Start(zeroRand); !errors.Is(err, ErrGameAlreadyStarted) {
		t.Errorf("expected ErrGameAlreadyStarted, got %v", err)
	}
}

func TestGame_Start_DealIsInterleaved(t *testing.T) {
	g := newReadyGame(t)

	// 用固定随机源开局，再按同一随机源重放洗牌结果，
	// 验证发牌是轮流发（一人一张），而不是一次发完 7 张
	deck := NewDeck()
	if err := g.Start(seqRand(99)); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	shuffled := deck.Shuffle(seqRand(99))

	// 开局使用的是新生成的牌，按颜色点数对照（ID 不同）
	for round := 0; round < 7; round++ {
		for seat, p := range g.Players {
			want := shuffled[len(shuffled)-1-(round*2+seat)]
			got := p.Hand[round]
			if got.Color != want.Color || got.Rank != want.Rank {
				t.Fatalf("round %d seat %d: expected %v, got %v", round, seat, want, got)
			}
		}
	}
}

func TestGame_Play(t *testing.T) {
	red3 := NewCard(ColorRed, 3)
	blue7 := NewCard(ColorBlue, 7)
	green5 := NewCard(ColorGreen, 5)
	g := newPlayingGame(
		Cards{red3, blue7},
		Cards{green5},
		NewCard(ColorRed, 9), // 顶牌红9：red3 颜色匹配，blue7 不匹配
	)

	// 不在场的玩家
	if err := g.Play("mallory", red3.ID); !errors.Is(err, ErrNotPlayerTurn) {
		t.Errorf("expected ErrNotPlayerTurn, got %v", err)
	}

	// 没轮到 bob
	if err := g.Play("bob", green5.ID); !errors.Is(err, ErrNotPlayerTurn) {
		t.Errorf("expected ErrNotPlayerTurn, got %v", err)
	}

	// 牌不在手里
	if err := g.Play("alice", "no-such-card"); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("expected ErrCardNotFound, got %v", err)
	}

	// 颜色点数都不匹配
	if err := g.Play("alice", blue7.ID); !errors.Is(err, ErrCardNotPlayable) {
		t.Errorf("expected ErrCardNotPlayable, got %v", err)
	}

	// 合法出牌
	if err := g.Play("alice", red3.ID); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if top, _ := g.DiscardPile.Top(); top != red3 {
		t.Errorf("expected discard top %v, got %v", red3, top)
	}
	if g.CurrentColor != ColorRed || g.CurrentRank != 3 {
		t.Errorf("current target not updated: %v/%d", g.CurrentColor, g.CurrentRank)
	}
	if len(g.Players[0].Hand) != 1 {
		t.Errorf("expected 1 card left in hand, got %d", len(g.Players[0].Hand))
	}

	// 回合切换到 bob，摸牌标记清零
	if g.Turn == nil || g.Turn.PlayerID != "bob" || g.Turn.HasDrawn {
		t.Errorf("expected bob's fresh turn, got %+v", g.Turn)
	}
}

func TestGame_Play_WinEndsGame(t *testing.T) {
	red3 := NewCard(ColorRed, 3)
	g := newPlayingGame(
		Cards{red3},
		Cards{NewCard(ColorGreen, 5), NewCard(ColorBlue, 1)},
		NewCard(ColorRed, 9),
	)

	if err := g.Play("alice", red3.ID); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	if g.Phase != PhaseFinished {
		t.Errorf("expected phase %v, got %v", PhaseFinished, g.Phase)
	}
	if g.Winner != "alice" {
		t.Errorf("expected winner alice, got %q", g.Winner)
	}
	if g.Turn != nil {
		t.Errorf("turn should be cleared, got %+v", g.Turn)
	}

	// 结束后任何操作都被拒绝
	if err := g.Play("bob", g.Players[1].Hand[0].ID); !errors.Is(err, ErrGameNotReady) {
		t.Errorf("play after finish: expected ErrGameNotReady, got %v", err)
	}
	if _, err := g.Draw("bob", zeroRand); !errors.Is(err, ErrGameNotReady) {
		t.Errorf("draw after finish: expected ErrGameNotReady, got %v", err)
	}
	if err := g.Pass("bob"); !errors.Is(err, ErrGameNotReady) {
		t.Errorf("pass after finish: expected ErrGameNotReady, got %v", err)
	}
	if err := g.Join("carol"); !errors.Is(err, ErrGameAlreadyStarted) {
		t.Errorf("join after finish: expected ErrGameAlreadyStarted, got %v", err)
	}
}

func TestGame_Draw(t *testing.T) {
	yellow5 := NewCard(ColorYellow, 5)
	g := newPlayingGame(
		Cards{yellow5}, // 与顶牌蓝3 无匹配
		Cards{NewCard(ColorGreen, 5)},
		NewCard(ColorBlue, 3),
	)
	g.DrawPile = Cards{NewCard(ColorRed, 8), NewCard(ColorBlue, 6)}

	res, err := g.Draw("alice", zeroRand)
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	// 摸到的是摸牌堆顶（蓝6），颜色与顶牌匹配，立即可出
	if res.Card.Color != ColorBlue || res.Card.Rank != 6 {
		t.Errorf("expected blue 6, got %v", res.Card)
	}
	if !res.Playable {
		t.Error("drawn card should be reported playable")
	}
	if len(g.Players[0].Hand) != 2 {
		t.Errorf("expected hand size 2, got %d", len(g.Players[0].Hand))
	}
	if !g.Turn.HasDrawn {
		t.Error("HasDrawn should be set")
	}
	if g.Turn.PlayerID != "alice" {
		t.Error("draw must not advance the turn")
	}

	// 同一回合不能摸第二张
	if _, err := g.Draw("alice", zeroRand); !errors.Is(err, ErrAlreadyDrewCard) {
		t.Errorf("expected ErrAlreadyDrewCard, got %v", err)
	}
}

func TestGame_Draw_MustPlayIfPossible(t *testing.T) {
	g := newPlayingGame(
		Cards{NewCard(ColorBlue, 9)}, // 颜色与顶牌匹配，有牌可出
		Cards{NewCard(ColorGreen, 5)},
		NewCard(ColorBlue, 3),
	)
	g.DrawPile = Cards{NewCard(ColorRed, 8)}

	if _, err := g.Draw("alice", zeroRand); !errors.Is(err, ErrMustDrawFirst) {
		t.Errorf("expected ErrMustDrawFirst, got %v", err)
	}
}

func TestGame_Draw_Reshuffle(t *testing.T) {
	top := NewCard(ColorBlue, 3)
	g := newPlayingGame(
		Cards{NewCard(ColorYellow, 5)},
		Cards{NewCard(ColorGreen, 5)},
		top,
	)
	// 摸牌堆空，弃牌堆 3 张
	g.DrawPile = nil
	g.DiscardPile = Cards{NewCard(ColorRed, 1), NewCard(ColorGreen, 2), top}

	res, err := g.Draw("alice", seqRand(5))
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}

	// 重洗后：顶牌之外的 2 张进摸牌堆，摸走 1 张剩 1 张
	if len(g.DrawPile) != 1 {
		t.Errorf("expected draw pile 1 after reshuffle+draw, got %d", len(g.DrawPile))
	}
	if len(g.DiscardPile) != 1 {
		t.Errorf("expected discard pile 1, got %d", len(g.DiscardPile))
	}
	// 顶牌必须原样保留
	if got, _ := g.DiscardPile.Top(); got != top {
		t.Errorf("discard top changed: expected %v, got %v", top, got)
	}
	// 摸到的只能是被重洗的两张之一
	if res.Card.ID == top.ID {
		t.Error("the active top card must never be reshuffled into the draw pile")
	}
	if totalCards(g) != 4 {
		t.Errorf("cards leaked: expected 4, got %d", totalCards(g))
	}
}

func TestGame_Draw_NoCardsToDraw(t *testing.T) {
	g := newPlayingGame(
		Cards{NewCard(ColorYellow, 5)},
		Cards{NewCard(ColorGreen, 5)},
		NewCard(ColorBlue, 3),
	)
	// 摸牌堆空，弃牌堆只剩顶牌：无法重洗
	g.DrawPile = nil

	if _, err := g.Draw("alice", zeroRand); !errors.Is(err, ErrNoCardsToDraw) {
		t.Errorf("expected ErrNoCardsToDraw, got %v", err)
	}
	// 顶牌不能被动过
	if len(g.DiscardPile) != 1 {
		t.Errorf("discard pile must stay intact, got %d cards", len(g.DiscardPile))
	}
}

func TestGame_Pass(t *testing.T) {
	g := newPlayingGame(
		Cards{NewCard(ColorYellow, 5)},
		Cards{NewCard(ColorGreen, 5)},
		NewCard(ColorBlue, 3),
	)
	g.DrawPile = Cards{NewCard(ColorRed, 8)}

	// 未摸牌不能过
	if err := g.Pass("alice"); !errors.Is(err, ErrMustDrawFirst) {
		t.Errorf("expected ErrMustDrawFirst, got %v", err)
	}

	// 没轮到 bob
	if err := g.Pass("bob"); !errors.Is(err, ErrNotPlayerTurn) {
		t.Errorf("expected ErrNotPlayerTurn, got %v", err)
	}

	if _, err := g.Draw("alice", zeroRand); err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if err := g.Pass("alice"); err != nil {
		t.Fatalf("pass failed: %v", err)
	}

	if g.Turn == nil || g.Turn.PlayerID != "bob" || g.Turn.HasDrawn {
		t.Errorf("expected bob's fresh turn, got %+v", g.Turn)
	}
}

// TestGame_CardConservation 从开局起模拟整局游戏，每步操作后清点牌数
func TestGame_CardConservation(t *testing.T) {
	g := newReadyGame(t)
	r := seqRand(2024)
	if err := g.Start(r); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	for step := 0; step < 2000 && g.Phase == PhasePlaying; step++ {
		active := g.Turn.PlayerID
		playable, err := g.PlayableCards(active)
		if err != nil {
			t.Fatalf("step %d: %v", step, err)
		}

		switch {
		case len(playable) > 0:
			if err := g.Play(active, playable[0].ID); err != nil {
				t.Fatalf("step %d play: %v", step, err)
			}
		case !g.Turn.HasDrawn:
			if _, err := g.Draw(active, r); err != nil {
				if errors.Is(err, ErrNoCardsToDraw) {
					// 双方都无牌可出且两堆耗尽，合法的死局
					return
				}
				t.Fatalf("step %d draw: %v", step, err)
			}
		default:
			if err := g.Pass(active); err != nil {
				t.Fatalf("step %d pass: %v", step, err)
			}
		}

		if got := totalCards(g); got != 76 {
			t.Fatalf("step %d: expected 76 cards total, got %d", step, got)
		}
		// 当前匹配目标必须始终镜像弃牌堆顶
		top, _ := g.DiscardPile.Top()
		if g.CurrentColor != top.Color || g.CurrentRank != top.Rank {
			t.Fatalf("step %d: current %v/%d does not match top %v", step, g.CurrentColor, g.CurrentRank, top)
		}
		if len(g.DiscardPile) == 0 {
			t.Fatalf("step %d: discard pile must never be empty after start", step)
		}
	}

	if g.Phase == PhaseFinished {
		if g.Winner == "" {
			t.Error("finished game must have a winner")
		}
		winner := g.player(g.Winner)
		if winner == nil || len(winner.Hand) != 0 {
			t.Error("winner's hand must be empty")
		}
	}
}
