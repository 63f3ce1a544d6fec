package nakama

const (
	// RpcNewGame is the Nakama RPC id clients call to obtain a solitaire match.
	RpcNewGame = "klondike_new_game"

	// MatchNameKlondike is the authoritative match handler name registered with Nakama.
	MatchNameKlondike = "klondike_match"

	// GameConfigPath is where MatchInit looks for the game configuration.
	GameConfigPath = "data/game_config.json"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpNewGame int64 = 1
	OpDraw    int64 = 2
	OpMove    int64 = 3
	OpSync    int64 = 4
	OpReveal  int64 = 5

	// Server -> Client events
	OpGameStarted  int64 = 101
	OpViewUpdated  int64 = 102
	OpDeckRecycled int64 = 103
	OpGameWon      int64 = 104
	OpGameError    int64 = 105
	OpCardsDrawn   int64 = 106
	OpCardMoved    int64 = 107
)

// Error codes carried by OpGameError.
const (
	ErrCodeBadRequest = 400
	ErrCodeForbidden  = 403
	ErrCodeConflict   = 409
)
