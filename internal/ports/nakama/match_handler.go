package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"klondike/internal/app"
	"klondike/internal/config"
	"klondike/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	labelGame       = "klondike"
	labelPhaseReady = "waiting"
)

// MatchState holds the authoritative runtime state for one solitaire table.
// A match belongs to the first user who joins it.
type MatchState struct {
	OwnerID string            `json:"owner_id"`
	Tick    int64             `json:"tick"`
	Mode    domain.Mode       `json:"mode"`
	Initial domain.Generation `json:"initial"`
	Owner   runtime.Presence  `json:"-"`
	App     *app.Service      `json:"-"`
	Game    *domain.Game      `json:"-"` // nil until the owner joins
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := config.LoadGameConfig(GameConfigPath); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}
	cfg := config.GetGameConfig()

	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		withEnv, err := cfg.WithEnv(env)
		if err != nil {
			logger.Warn("MatchInit: Ignoring runtime env overrides: %v", err)
		} else {
			cfg = withEnv
		}
	}

	mode := cfg.Mode()
	if raw, ok := params["mode"].(string); ok {
		m, err := domain.ParseMode(raw)
		if err != nil {
			logger.Warn("MatchInit: %v, using %s", err, mode)
		} else {
			mode = m
		}
	}

	state := &MatchState{
		Mode:    mode,
		Initial: cfg.Generation(),
		App:     app.NewService(nil, nil, app.WithAutoReveal(cfg.AutoReveal)),
	}

	label, err := buildLabel(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	return state, cfg.TickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	if matchState.OwnerID != "" && matchState.OwnerID != presence.GetUserId() {
		return state, false, "Match is private"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		if matchState.OwnerID != "" && matchState.OwnerID != p.GetUserId() {
			logger.Warn("MatchJoin: User %s joined a match owned by %s.", p.GetUserId(), matchState.OwnerID)
			continue
		}
		matchState.OwnerID = p.GetUserId()
		matchState.Owner = p
	}

	if matchState.Owner == nil {
		return matchState
	}

	if matchState.Game == nil {
		mh.startGame(matchState, dispatcher, logger, matchState.Mode)
	} else {
		// Rejoin: the client lost its view, so send all of it.
		logger.Debug("MatchJoin: Owner %s rejoined, resending view.", matchState.OwnerID)
		mh.sendFullView(matchState, dispatcher, logger)
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave ends the match when its owner leaves.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		if p.GetUserId() == matchState.OwnerID {
			logger.Info("MatchLeave: Owner %s left, terminating match.", matchState.OwnerID)
			return nil
		}
	}
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		if msg.GetUserId() != matchState.OwnerID {
			logger.Warn("MatchLoop: Ignoring opcode %d from non-owner %s", msg.GetOpCode(), msg.GetUserId())
			continue
		}

		switch msg.GetOpCode() {
		case OpNewGame:
			mh.handleNewGame(matchState, dispatcher, logger, msg)
		case OpDraw:
			mh.handleDraw(matchState, dispatcher, logger)
		case OpMove:
			mh.handleMove(matchState, dispatcher, logger, msg)
		case OpReveal:
			mh.handleReveal(matchState, dispatcher, logger, msg)
		case OpSync:
			mh.handleSync(matchState, dispatcher, logger)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	return matchState
}

func (mh *matchHandler) startGame(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, mode domain.Mode) {
	game, events, err := state.App.StartGame(mode, state.Initial)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, ErrCodeBadRequest, err.Error())
		return
	}

	state.Game = game
	state.Mode = mode
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
	logger.Info("StartGame: Game %s started in %s mode for %s.", game.ID, mode, state.OwnerID)
}

func (mh *matchHandler) handleNewGame(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	request := newGameRequest{Mode: state.Mode.String()}
	if len(msg.GetData()) > 0 {
		if err := json.Unmarshal(msg.GetData(), &request); err != nil {
			logger.Warn("handleNewGame: Invalid request from %s: %v", msg.GetUserId(), err)
			mh.sendError(state, dispatcher, logger, ErrCodeBadRequest, "invalid new game request")
			return
		}
	}

	mode, err := domain.ParseMode(request.Mode)
	if err != nil {
		mh.sendError(state, dispatcher, logger, ErrCodeBadRequest, err.Error())
		return
	}

	mh.startGame(state, dispatcher, logger, mode)
	mh.updateLabel(state, dispatcher, logger)
}

func (mh *matchHandler) handleDraw(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Game == nil {
		logger.Warn("handleDraw: Game not started.")
		return
	}

	events, err := state.App.Draw(state.Game)
	if err != nil {
		logger.Warn("handleDraw: Draw failed for %s: %v", state.OwnerID, err)
		mh.sendError(state, dispatcher, logger, errorCode(err), err.Error())
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleMove(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	if state.Game == nil {
		logger.Warn("handleMove: Game not started.")
		return
	}

	var request moveRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handleMove: Failed to unmarshal move request: %v", err)
		mh.sendError(state, dispatcher, logger, ErrCodeBadRequest, "invalid move request")
		return
	}
	from, err := domain.ParseStackID(request.From)
	if err != nil {
		mh.sendError(state, dispatcher, logger, ErrCodeBadRequest, err.Error())
		return
	}
	to, err := domain.ParseStackID(request.To)
	if err != nil {
		mh.sendError(state, dispatcher, logger, ErrCodeBadRequest, err.Error())
		return
	}

	events, err := state.App.Move(state.Game, from, to)
	if err != nil {
		logger.Warn("handleMove: User %s failed to move %s -> %s: %v", state.OwnerID, from, to, err)
		mh.sendError(state, dispatcher, logger, errorCode(err), err.Error())
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleReveal(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	if state.Game == nil {
		logger.Warn("handleReveal: Game not started.")
		return
	}

	var request revealRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		mh.sendError(state, dispatcher, logger, ErrCodeBadRequest, "invalid reveal request")
		return
	}
	id, err := domain.ParseStackID(request.Stack)
	if err != nil {
		mh.sendError(state, dispatcher, logger, ErrCodeBadRequest, err.Error())
		return
	}

	events, err := state.App.Reveal(state.Game, id)
	if err != nil {
		mh.sendError(state, dispatcher, logger, errorCode(err), err.Error())
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

// handleSync answers a client that believes its view is stale. Pending
// changes go out as a normal update; otherwise the whole view is resent.
func (mh *matchHandler) handleSync(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Game == nil {
		logger.Warn("handleSync: Game not started.")
		return
	}

	events := state.App.Sync(state.Game)
	if len(events) == 0 {
		mh.sendFullView(state, dispatcher, logger)
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) sendFullView(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	mh.broadcastEvent(state, dispatcher, logger, app.Event{
		Kind:    app.EventViewUpdated,
		Payload: app.ViewUpdatedPayload{View: app.ClientView(state.Game, nil)},
	})
}

// broadcastEvent converts an app event to its wire message and sends it to
// the owner.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64
	var payload interface{}

	switch ev.Kind {
	case app.EventGameStarted:
		opCode = OpGameStarted
		p := ev.Payload.(app.GameStartedPayload)
		payload = gameStartedMessage{GameID: p.GameID, Mode: p.Mode.String(), View: toWireView(p.View)}
	case app.EventViewUpdated:
		opCode = OpViewUpdated
		p := ev.Payload.(app.ViewUpdatedPayload)
		logger.Debug("Event: view_updated (gen=%d, stacks=%d)", p.View.LastModified, len(p.View.Stacks))
		payload = viewUpdatedMessage{View: toWireView(p.View)}
	case app.EventCardsDrawn:
		opCode = OpCardsDrawn
		payload = cardsDrawnMessage{Count: ev.Payload.(app.CardsDrawnPayload).Count}
	case app.EventDeckRecycled:
		opCode = OpDeckRecycled
		payload = deckRecycledMessage{DeckSize: ev.Payload.(app.DeckRecycledPayload).DeckSize}
	case app.EventCardMoved:
		opCode = OpCardMoved
		p := ev.Payload.(app.CardMovedPayload)
		payload = cardMovedMessage{From: p.From.String(), To: p.To.String(), Card: toWireCard(p.Card), Revealed: p.Revealed}
	case app.EventGameWon:
		opCode = OpGameWon
		p := ev.Payload.(app.GameWonPayload)
		payload = gameWonMessage{GameID: p.GameID, Generation: int64(p.Generation)}
		logger.Info("Event: game %s won at generation %d", p.GameID, p.Generation)
		mh.updateLabel(state, dispatcher, logger)
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}
	mh.sendToOwner(state, dispatcher, logger, opCode, bytes)
}

// sendError sends a game error to the owner.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, code int, message string) {
	bytes, err := json.Marshal(gameErrorMessage{Code: code, Message: message})
	if err != nil {
		logger.Error("Failed to marshal game error: %v", err)
		return
	}
	mh.sendToOwner(state, dispatcher, logger, OpGameError, bytes)
}

func (mh *matchHandler) sendToOwner(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode int64, data []byte) {
	if state.Owner == nil {
		logger.Warn("Cannot send opcode %d: owner presence not found", opCode)
		return
	}
	if err := dispatcher.BroadcastMessage(opCode, data, []runtime.Presence{state.Owner}, nil, true); err != nil {
		logger.Error("Failed to send opcode %d: %v", opCode, err)
	}
}

// errorCode maps app errors to the codes clients receive.
func errorCode(err error) int {
	switch {
	case errors.Is(err, app.ErrNotPlaying):
		return ErrCodeConflict
	case errors.Is(err, app.ErrFaceDown), errors.Is(err, app.ErrIllegalMove):
		return ErrCodeForbidden
	default:
		return ErrCodeBadRequest
	}
}

// buildLabel renders the match label used by RpcNewGame's match listing.
func buildLabel(state *MatchState) (string, error) {
	phase := labelPhaseReady
	if state.Game != nil {
		phase = string(state.Game.Phase)
	}

	label, err := structpb.NewStruct(map[string]interface{}{
		"game":  labelGame,
		"mode":  state.Mode.String(),
		"phase": phase,
		"open":  state.OwnerID == "",
	})
	if err != nil {
		return "", fmt.Errorf("build label: %w", err)
	}
	b, err := protojson.Marshal(label)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := buildLabel(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d grace seconds", graceSeconds)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
