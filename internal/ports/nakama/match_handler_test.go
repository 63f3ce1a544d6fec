package nakama

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"klondike/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode    int64
	data      []byte
	presences []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	sent         []sentMessage
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.sent = append(md.sent, sentMessage{opCode: opCode, data: append([]byte(nil), data...), presences: presences})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) opCodes() []int64 {
	out := make([]int64, 0, len(md.sent))
	for _, m := range md.sent {
		out = append(out, m.opCode)
	}
	return out
}

func (md *mockDispatcher) reset() { md.sent = nil }

type mockPresence struct {
	runtime.Presence
	userID string
}

func (p mockPresence) GetUserId() string { return p.userID }

type mockMatchData struct {
	runtime.MatchData
	userID string
	opCode int64
	data   []byte
}

func (m mockMatchData) GetUserId() string { return m.userID }
func (m mockMatchData) GetOpCode() int64  { return m.opCode }
func (m mockMatchData) GetData() []byte   { return m.data }

// mockNakama implements the NakamaModule calls made by rpcNewGame.
type mockNakama struct {
	runtime.NakamaModule
	createdWith  map[string]interface{}
	createdCount int
}

func (m *mockNakama) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	m.createdCount++
	m.createdWith = params
	return fmt.Sprintf("match-%d", m.createdCount), nil
}

func newJoinedMatch(t *testing.T) (*matchHandler, *MatchState, *mockDispatcher) {
	t.Helper()
	mh := &matchHandler{}
	st, _, _ := mh.MatchInit(context.Background(), noopLogger{}, nil, nil, map[string]interface{}{})
	state := st.(*MatchState)
	dispatcher := &mockDispatcher{}

	mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, []runtime.Presence{mockPresence{userID: "owner"}})
	if state.Game == nil {
		t.Fatalf("expected game to start on join")
	}
	return mh, state, dispatcher
}

func loop(mh *matchHandler, state *MatchState, dispatcher *mockDispatcher, msgs ...runtime.MatchData) {
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, msgs)
}

func decodeView(t *testing.T, data []byte) wireView {
	t.Helper()
	var msg viewUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return msg.View
}

func assertNoHiddenCards(t *testing.T, v wireView) {
	t.Helper()
	for _, s := range v.Stacks {
		for _, c := range s.Cards {
			if c.Kind == "dealt" && !c.FaceUp {
				t.Fatalf("stack %s leaked a face-down card: %+v", s.ID, c)
			}
			if c.Kind == "unknown" && (c.Suit != "" || c.Rank != 0) {
				t.Fatalf("unknown card on %s carries identity: %+v", s.ID, c)
			}
		}
	}
}

func TestMatchLabel_Marshal(t *testing.T) {
	label, err := buildLabel(&MatchState{Mode: domain.ModeThreeCard})
	if err != nil {
		t.Fatalf("build label: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal([]byte(label), &got); err != nil {
		t.Fatalf("decode label %q: %v", label, err)
	}
	if got["game"] != "klondike" || got["mode"] != "three" || got["phase"] != "waiting" || got["open"] != true {
		t.Fatalf("unexpected label: %v", got)
	}
}

func TestMatchInit_ModeSelection(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		params map[string]interface{}
		want   domain.Mode
	}{
		{
			name: "Default",
			ctx:  context.Background(),
			want: domain.ModeClassic,
		},
		{
			name:   "FromParams",
			ctx:    context.Background(),
			params: map[string]interface{}{"mode": "three"},
			want:   domain.ModeThreeCard,
		},
		{
			name: "FromRuntimeEnv",
			ctx:  context.WithValue(context.Background(), runtime.RUNTIME_CTX_ENV, map[string]string{"KLONDIKE_DRAW_MODE": "three"}),
			want: domain.ModeThreeCard,
		},
		{
			name:   "BadParamKeepsConfig",
			ctx:    context.Background(),
			params: map[string]interface{}{"mode": "nine"},
			want:   domain.ModeClassic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mh := &matchHandler{}
			st, tickRate, label := mh.MatchInit(tt.ctx, noopLogger{}, nil, nil, tt.params)
			state := st.(*MatchState)
			if state.Mode != tt.want {
				t.Fatalf("mode = %s, want %s", state.Mode, tt.want)
			}
			if tickRate <= 0 || label == "" {
				t.Fatalf("tick rate %d, label %q", tickRate, label)
			}
		})
	}
}

func TestMatchJoin_StartsGameForOwner(t *testing.T) {
	_, state, dispatcher := newJoinedMatch(t)

	if len(dispatcher.sent) != 1 || dispatcher.sent[0].opCode != OpGameStarted {
		t.Fatalf("sent = %v, want one game started", dispatcher.opCodes())
	}
	if got := dispatcher.sent[0].presences; len(got) != 1 || got[0].GetUserId() != "owner" {
		t.Fatalf("game started not addressed to owner only")
	}

	var msg gameStartedMessage
	if err := json.Unmarshal(dispatcher.sent[0].data, &msg); err != nil {
		t.Fatalf("decode game started: %v", err)
	}
	if msg.GameID != state.Game.ID || !msg.View.Full || len(msg.View.Stacks) != 13 {
		t.Fatalf("unexpected game started: id=%s full=%v stacks=%d", msg.GameID, msg.View.Full, len(msg.View.Stacks))
	}
	assertNoHiddenCards(t, msg.View)

	var label map[string]interface{}
	if err := json.Unmarshal([]byte(dispatcher.lastLabel), &label); err != nil {
		t.Fatalf("decode label: %v", err)
	}
	if label["open"] != false || label["phase"] != "playing" {
		t.Fatalf("label after join = %v", label)
	}
}

func TestMatchJoin_RejoinResendsView(t *testing.T) {
	mh, state, dispatcher := newJoinedMatch(t)
	gameID := state.Game.ID
	dispatcher.reset()

	mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.Presence{mockPresence{userID: "owner"}})

	if state.Game.ID != gameID {
		t.Fatalf("rejoin replaced the game")
	}
	if len(dispatcher.sent) != 1 || dispatcher.sent[0].opCode != OpViewUpdated {
		t.Fatalf("sent = %v, want one view update", dispatcher.opCodes())
	}
	if v := decodeView(t, dispatcher.sent[0].data); !v.Full {
		t.Fatalf("rejoin view is partial")
	}
}

func TestMatchJoinAttempt_OwnerOnly(t *testing.T) {
	mh, state, dispatcher := newJoinedMatch(t)

	_, ok, reason := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, mockPresence{userID: "stranger"}, nil)
	if ok || reason == "" {
		t.Fatalf("stranger admitted")
	}
	if _, ok, _ := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, mockPresence{userID: "owner"}, nil); !ok {
		t.Fatalf("owner rejected")
	}
}

func TestMatchLoop_Draw(t *testing.T) {
	mh, state, dispatcher := newJoinedMatch(t)
	dispatcher.reset()

	loop(mh, state, dispatcher, mockMatchData{userID: "owner", opCode: OpDraw})

	codes := dispatcher.opCodes()
	if len(codes) != 2 || codes[0] != OpCardsDrawn || codes[1] != OpViewUpdated {
		t.Fatalf("sent = %v, want cards drawn then view updated", codes)
	}
	v := decodeView(t, dispatcher.sent[1].data)
	if v.Full || len(v.Stacks) != 2 || v.Stacks[0].ID != "deck" || v.Stacks[1].ID != "waste" {
		t.Fatalf("unexpected draw view: %+v", v.Stacks)
	}
	assertNoHiddenCards(t, v)
}

func TestMatchLoop_IgnoresNonOwner(t *testing.T) {
	mh, state, dispatcher := newJoinedMatch(t)
	dispatcher.reset()
	clock := state.Game.Clock

	loop(mh, state, dispatcher, mockMatchData{userID: "stranger", opCode: OpDraw})

	if len(dispatcher.sent) != 0 || state.Game.Clock != clock {
		t.Fatalf("non-owner message was handled")
	}
}

func TestMatchLoop_MoveErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantCode int
	}{
		{name: "BadJSON", data: `{"from":`, wantCode: ErrCodeBadRequest},
		{name: "BadStack", data: `{"from":"pile:1","to":"tableau:0"}`, wantCode: ErrCodeBadRequest},
		{name: "EmptySource", data: `{"from":"foundation:0","to":"tableau:0"}`, wantCode: ErrCodeBadRequest},
		{name: "OntoDeck", data: `{"from":"tableau:0","to":"deck"}`, wantCode: ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mh, state, dispatcher := newJoinedMatch(t)
			dispatcher.reset()

			loop(mh, state, dispatcher, mockMatchData{userID: "owner", opCode: OpMove, data: []byte(tt.data)})

			if len(dispatcher.sent) != 1 || dispatcher.sent[0].opCode != OpGameError {
				t.Fatalf("sent = %v, want one game error", dispatcher.opCodes())
			}
			var msg gameErrorMessage
			if err := json.Unmarshal(dispatcher.sent[0].data, &msg); err != nil {
				t.Fatalf("decode error message: %v", err)
			}
			if msg.Code != tt.wantCode || msg.Message == "" {
				t.Fatalf("error = %+v, want code %d", msg, tt.wantCode)
			}
		})
	}
}

func TestMatchLoop_MoveToEmptyTableau(t *testing.T) {
	mh, state, dispatcher := newJoinedMatch(t)
	// Free tableau 6 so the top of tableau 0 has somewhere to go.
	state.Game.Shadow.Tableaus[6] = domain.NewStack(domain.TableauCapacity, true, state.Game.Clock)
	dispatcher.reset()

	loop(mh, state, dispatcher, mockMatchData{userID: "owner", opCode: OpMove, data: []byte(`{"from":"tableau:0","to":"tableau:6"}`)})

	codes := dispatcher.opCodes()
	if len(codes) != 2 || codes[0] != OpCardMoved || codes[1] != OpViewUpdated {
		t.Fatalf("sent = %v, want card moved then view updated", codes)
	}
	var moved cardMovedMessage
	if err := json.Unmarshal(dispatcher.sent[0].data, &moved); err != nil {
		t.Fatalf("decode card moved: %v", err)
	}
	if moved.From != "tableau:0" || moved.To != "tableau:6" || moved.Card.Kind != "dealt" || !moved.Card.FaceUp {
		t.Fatalf("unexpected move message: %+v", moved)
	}
	assertNoHiddenCards(t, decodeView(t, dispatcher.sent[1].data))
}

func TestMatchLoop_RevealFaceUpReportsError(t *testing.T) {
	mh, state, dispatcher := newJoinedMatch(t)
	dispatcher.reset()
	clock := state.Game.Clock

	loop(mh, state, dispatcher, mockMatchData{userID: "owner", opCode: OpReveal, data: []byte(`{"stack":"tableau:3"}`)})

	if len(dispatcher.sent) != 1 || dispatcher.sent[0].opCode != OpGameError {
		t.Fatalf("sent = %v, want one game error", dispatcher.opCodes())
	}
	var msg gameErrorMessage
	if err := json.Unmarshal(dispatcher.sent[0].data, &msg); err != nil {
		t.Fatalf("decode error message: %v", err)
	}
	if msg.Code != ErrCodeForbidden {
		t.Fatalf("error code = %d, want %d", msg.Code, ErrCodeForbidden)
	}
	if state.Game.Clock != clock {
		t.Fatalf("failed reveal advanced the clock")
	}
}

func TestMatchLoop_SyncResendsWhenCurrent(t *testing.T) {
	mh, state, dispatcher := newJoinedMatch(t)
	dispatcher.reset()

	loop(mh, state, dispatcher, mockMatchData{userID: "owner", opCode: OpSync})

	if len(dispatcher.sent) != 1 || dispatcher.sent[0].opCode != OpViewUpdated {
		t.Fatalf("sent = %v, want one view update", dispatcher.opCodes())
	}
	v := decodeView(t, dispatcher.sent[0].data)
	if !v.Full || len(v.Stacks) != 13 {
		t.Fatalf("sync view full=%v stacks=%d", v.Full, len(v.Stacks))
	}
}

func TestMatchLoop_NewGame(t *testing.T) {
	mh, state, dispatcher := newJoinedMatch(t)
	first := state.Game
	dispatcher.reset()

	loop(mh, state, dispatcher, mockMatchData{userID: "owner", opCode: OpNewGame, data: []byte(`{"mode":"three"}`)})

	if state.Game == first || state.Game.Mode != domain.ModeThreeCard || state.Mode != domain.ModeThreeCard {
		t.Fatalf("new game not started in three-card mode")
	}
	if len(dispatcher.sent) != 1 || dispatcher.sent[0].opCode != OpGameStarted {
		t.Fatalf("sent = %v, want one game started", dispatcher.opCodes())
	}

	dispatcher.reset()
	loop(mh, state, dispatcher, mockMatchData{userID: "owner", opCode: OpNewGame, data: []byte(`{"mode":"nine"}`)})
	if len(dispatcher.sent) != 1 || dispatcher.sent[0].opCode != OpGameError {
		t.Fatalf("sent = %v, want one game error", dispatcher.opCodes())
	}
}

func TestMatchLeave_OwnerTerminates(t *testing.T) {
	mh, state, dispatcher := newJoinedMatch(t)

	if got := mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 4, state, []runtime.Presence{mockPresence{userID: "stranger"}}); got == nil {
		t.Fatalf("stranger leaving terminated the match")
	}
	if got := mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 4, state, []runtime.Presence{mockPresence{userID: "owner"}}); got != nil {
		t.Fatalf("owner leaving should terminate the match")
	}
}

func TestRpcNewGame(t *testing.T) {
	t.Run("CreatesMatch", func(t *testing.T) {
		nk := &mockNakama{}
		out, err := rpcNewGame(context.Background(), noopLogger{}, nil, nk, `{"mode":"three"}`)
		if err != nil {
			t.Fatalf("rpc error: %v", err)
		}
		var resp NewGameResponse
		if err := json.Unmarshal([]byte(out), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if !resp.IsNew || resp.MatchID != "match-1" || nk.createdWith["mode"] != "three" {
			t.Fatalf("unexpected response %+v (params %v)", resp, nk.createdWith)
		}
	})

	t.Run("EachCallGetsItsOwnMatch", func(t *testing.T) {
		nk := &mockNakama{}
		seen := map[string]bool{}
		for i := 0; i < 2; i++ {
			out, err := rpcNewGame(context.Background(), noopLogger{}, nil, nk, "")
			if err != nil {
				t.Fatalf("rpc error: %v", err)
			}
			var resp NewGameResponse
			if err := json.Unmarshal([]byte(out), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if seen[resp.MatchID] {
				t.Fatalf("match %s handed out twice", resp.MatchID)
			}
			seen[resp.MatchID] = true
		}
		if nk.createdCount != 2 || nk.createdWith["mode"] != "classic" {
			t.Fatalf("created %d matches, last params %v", nk.createdCount, nk.createdWith)
		}
	})

	t.Run("RejectsUnknownMode", func(t *testing.T) {
		nk := &mockNakama{}
		if _, err := rpcNewGame(context.Background(), noopLogger{}, nil, nk, `{"mode":"nine"}`); err == nil {
			t.Fatalf("expected error")
		}
		if nk.createdCount != 0 {
			t.Fatalf("match created for an unknown mode")
		}
	})
}
