package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"klondike/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// NewGameRequest is the optional RPC payload selecting the draw mode.
type NewGameRequest struct {
	Mode string `json:"mode"`
}

// NewGameResponse is the payload returned to clients when requesting a table.
// IsNew is always true.
type NewGameResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	return initializer.RegisterRpc(RpcNewGame, rpcNewGame)
}

func rpcNewGame(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var request NewGameRequest
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &request); err != nil {
			return "", runtime.NewError("invalid payload", 3)
		}
	}
	mode, err := domain.ParseMode(request.Mode)
	if err != nil {
		return "", runtime.NewError(err.Error(), 3)
	}

	// Every call gets its own match; ownership is claimed in MatchJoin.
	matchID, err := nk.MatchCreate(ctx, MatchNameKlondike, map[string]interface{}{"mode": mode.String()})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", err
	}

	resp := NewGameResponse{MatchID: matchID, IsNew: true}
	b, _ := json.Marshal(resp)
	return string(b), nil
}
