package bot

import (
	"errors"
	"strconv"
	"strings"

	"github.com/play/uno/pkg/room"
	"github.com/play/uno/pkg/uno"
)

// colorGlyph 颜色对应的聊天表情
func colorGlyph(c uno.Color) string {
	switch c {
	case uno.ColorRed:
		return "🔴"
	case uno.ColorYellow:
		return "🟡"
	case uno.ColorGreen:
		return "🟢"
	case uno.ColorBlue:
		return "🔵"
	default:
		return "⚪"
	}
}

// formatCard 渲染一张牌，如 "🔴7 (red 7)"
func formatCard(c uno.Card) string {
	return colorGlyph(c.Color) + strconv.Itoa(int(c.Rank)) + " (" + c.String() + ")"
}

// formatHand 渲染手牌列表，标出当前可出的牌
func formatHand(hand, playable uno.Cards) string {
	playableIDs := make(map[string]bool, len(playable))
	for _, c := range playable {
		playableIDs[c.ID] = true
	}

	var sb strings.Builder
	sb.WriteString("Your hand (")
	sb.WriteString(strconv.Itoa(len(hand)))
	sb.WriteString("):")
	for _, c := range hand {
		sb.WriteString("\n  ")
		sb.WriteString(colorGlyph(c.Color))
		sb.WriteString(strconv.Itoa(int(c.Rank)))
		if playableIDs[c.ID] {
			sb.WriteString("  ← playable")
		}
	}
	return sb.String()
}

// formatPublic 渲染对局公开信息，对手只会看到手牌数量
func formatPublic(s uno.PublicState) string {
	var sb strings.Builder
	sb.WriteString("Game [")
	sb.WriteString(s.Phase.String())
	sb.WriteString("]")

	if s.TopCard != nil {
		sb.WriteString("\nTop card: ")
		sb.WriteString(formatCard(*s.TopCard))
	}
	for _, p := range s.Players {
		sb.WriteString("\n  ")
		if p.ID == s.ActivePlayer {
			sb.WriteString("▶ ")
		} else {
			sb.WriteString("  ")
		}
		sb.WriteString(p.ID)
		sb.WriteString(": ")
		sb.WriteString(strconv.Itoa(p.Cards))
		sb.WriteString(" cards")
	}
	if s.Winner != "" {
		sb.WriteString("\n🏆 Winner: ")
		sb.WriteString(s.Winner)
	}
	return sb.String()
}

// errorText 把规则错误翻译成聊天回复
func errorText(err error) string {
	var uerr *uno.Error
	if errors.As(err, &uerr) {
		switch uerr.Kind {
		case uno.KindGameNotReady:
			return "The game hasn't started yet. Get two players in and type /start."
		case uno.KindGameAlreadyStarted:
			return "The game has already started."
		case uno.KindPlayerAlreadyJoined:
			return "You're already in this game."
		case uno.KindPlayerNotFound:
			return "You're not in this game. Type /join first."
		case uno.KindRoomFull:
			return "The room is full, this table seats two."
		case uno.KindNotEnoughPlayers:
			return "Waiting for a second player. Type /join to sit down."
		case uno.KindNotPlayerTurn:
			return "It's not your turn."
		case uno.KindCardNotPlayable:
			return "That card doesn't match the top card's color or number."
		case uno.KindCardNotFound:
			return "You don't have that card."
		case uno.KindMustDrawFirst:
			return "You have to draw first, or if you can play, you must play."
		case uno.KindAlreadyDrewCard:
			return "You already drew this turn. Play the card or /pass."
		case uno.KindDrawPileEmpty:
			return "The draw pile is empty."
		case uno.KindNoCardsToDraw:
			return "No cards left to draw anywhere, the game is stuck."
		}
	}
	switch {
	case errors.Is(err, room.ErrRoomExists):
		return "There's already a game in this chat. Type /board to see it."
	case errors.Is(err, room.ErrRoomNotFound):
		return "No game in this chat yet. Type /uno to start one."
	}
	return err.Error()
}

const helpText = `UNO bot commands:
/uno - open a game in this chat
/join - take the second seat
/start - deal and begin
/hand - see your cards (playable ones marked)
/board - see the table
/play <color> <number> - play a card, e.g. /play red 7
/draw - draw a card (only when you can't play)
/pass - end your turn after drawing
/help - this message`
