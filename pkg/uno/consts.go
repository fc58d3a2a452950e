package uno

// Phase 游戏的生命周期阶段，只会向前推进，不会回退
type Phase uint8

const (
	PhaseWaiting  Phase = iota // 等待第二位玩家加入
	PhaseReady                 // 两人到齐，可以开始
	PhasePlaying               // 游戏中
	PhaseFinished              // 已结束
)

// String 返回阶段的可读名称
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting-for-player"
	case PhaseReady:
		return "ready-to-start"
	case PhasePlaying:
		return "in-progress"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// MarshalJSON 以可读名称序列化阶段
func (p Phase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON 从可读名称反序列化阶段
func (p *Phase) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"waiting-for-player"`:
		*p = PhaseWaiting
	case `"ready-to-start"`:
		*p = PhaseReady
	case `"in-progress"`:
		*p = PhasePlaying
	case `"finished"`:
		*p = PhaseFinished
	}
	return nil
}

// ErrorKind 错误种类，闭合可枚举，调用方按种类分支处理
type ErrorKind uint8

const (
	KindGameNotReady ErrorKind = iota
	KindGameAlreadyStarted
	KindPlayerAlreadyJoined
	KindPlayerNotFound
	KindRoomFull
	KindNotEnoughPlayers
	KindNotPlayerTurn
	KindCardNotPlayable
	KindCardNotFound
	KindMustDrawFirst
	KindAlreadyDrewCard
	KindDrawPileEmpty
	KindNoCardsToDraw
)

// String 返回错误种类的标识名
func (k ErrorKind) String() string {
	switch k {
	case KindGameNotReady:
		return "GAME_NOT_READY"
	case KindGameAlreadyStarted:
		return "GAME_ALREADY_STARTED"
	case KindPlayerAlreadyJoined:
		return "PLAYER_ALREADY_JOINED"
	case KindPlayerNotFound:
		return "PLAYER_NOT_FOUND"
	case KindRoomFull:
		return "ROOM_FULL"
	case KindNotEnoughPlayers:
		return "NOT_ENOUGH_PLAYERS"
	case KindNotPlayerTurn:
		return "NOT_PLAYER_TURN"
	case KindCardNotPlayable:
		return "CARD_NOT_PLAYABLE"
	case KindCardNotFound:
		return "CARD_NOT_FOUND"
	case KindMustDrawFirst:
		return "MUST_DRAW_FIRST"
	case KindAlreadyDrewCard:
		return "ALREADY_DREW_CARD"
	case KindDrawPileEmpty:
		return "DRAW_PILE_EMPTY"
	case KindNoCardsToDraw:
		return "NO_CARDS_TO_DRAW"
	default:
		return "UNKNOWN"
	}
}

// Error 规则错误，携带种类和可读信息
// 所有规则校验失败都以 Error 值返回，引擎内部从不 panic
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error 实现 error 接口
func (e *Error) Error() string {
	return e.Message
}

// Is 按错误种类匹配，支持 errors.Is 与哨兵错误比较
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// 错误定义
var (
	ErrGameNotReady        = &Error{KindGameNotReady, "game not ready"}
	ErrGameAlreadyStarted  = &Error{KindGameAlreadyStarted, "game already started"}
	ErrPlayerAlreadyJoined = &Error{KindPlayerAlreadyJoined, "player already joined"}
	ErrPlayerNotFound      = &Error{KindPlayerNotFound, "player not found"}
	ErrRoomFull            = &Error{KindRoomFull, "room is full"}
	ErrNotEnoughPlayers    = &Error{KindNotEnoughPlayers, "not enough players"}
	ErrNotPlayerTurn       = &Error{KindNotPlayerTurn, "not your turn"}
	ErrCardNotPlayable     = &Error{KindCardNotPlayable, "card not playable"}
	ErrCardNotFound        = &Error{KindCardNotFound, "card not found in hand"}
	ErrMustDrawFirst       = &Error{KindMustDrawFirst, "must draw first"}
	ErrAlreadyDrewCard     = &Error{KindAlreadyDrewCard, "already drew a card this turn"}
	ErrDrawPileEmpty       = &Error{KindDrawPileEmpty, "draw pile is empty"}
	ErrNoCardsToDraw       = &Error{KindNoCardsToDraw, "no cards left to draw"}
)
