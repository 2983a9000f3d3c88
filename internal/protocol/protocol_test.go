package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode_Joined(t *testing.T) {
	frame := []byte(`{"event":"joined","data":{"room":"AB12CD","players":[{"id":"sid-0","nickname":"Egor","localIndex":0}],"is_host":true}}`)

	evt, err := Decode(frame)
	require.NoError(t, err)

	joined, ok := evt.(*Joined)
	require.True(t, ok, "want *Joined, got %T", evt)
	require.Equal(t, "AB12CD", joined.Room)
	require.True(t, joined.IsHost)
	require.Len(t, joined.Players, 1)
	require.Equal(t, "sid-0", joined.Players[0].ID)
	require.Equal(t, 0, joined.Players[0].LocalIndex)
}

func TestDecode_State(t *testing.T) {
	frame := []byte(`{"event":"state","data":{
		"grid_w":60,"grid_h":30,
		"players":[{"id":"p1","nickname":"Egor","score":30,"alive":true,
			"snake":[{"x":5,"y":5},{"x":4,"y":5}],
			"color":{"head":"#7C4DFF","body":"#5A31C9","particle":"hsla(270,100%,60%,1)"}}],
		"foods":[{"x":10,"y":12}],
		"tick":1725000000.5}}`)

	evt, err := Decode(frame)
	require.NoError(t, err)

	state, ok := evt.(*State)
	require.True(t, ok, "want *State, got %T", evt)
	require.Equal(t, 60, state.GridW)
	require.Equal(t, 30, state.GridH)
	require.Len(t, state.Players, 1)
	// Head-first ordering comes straight off the wire.
	require.Equal(t, Vec{X: 5, Y: 5}, state.Players[0].Snake[0])
	require.Equal(t, "#7C4DFF", state.Players[0].Color.Head)
	require.Equal(t, []Vec{{X: 10, Y: 12}}, state.Foods)
}

func TestDecode_RoundEnd(t *testing.T) {
	frame := []byte(`{"event":"round_end","data":{
		"scores":{"p1":{"score":50,"nickname":"Egor"}},
		"winners":[{"id":"p1","nickname":"Egor"}],
		"wins":{"Egor":3}}}`)

	evt, err := Decode(frame)
	require.NoError(t, err)

	end, ok := evt.(*RoundEnd)
	require.True(t, ok, "want *RoundEnd, got %T", evt)
	require.Equal(t, 50, end.Scores["p1"].Score)
	require.Equal(t, "Egor", end.Winners[0].Nickname)
	require.Equal(t, 3, end.Wins["Egor"])
}

func TestDecode_EventKinds(t *testing.T) {
	cases := []struct {
		frame string
		want  Inbound
	}{
		{`{"event":"welcome","data":{"sid":"abc"}}`, &Welcome{SID: "abc"}},
		{`{"event":"join_failed","data":{"reason":"room full"}}`, &JoinFailed{Reason: "room full"}},
		{`{"event":"round_starting","data":{}}`, &RoundStarting{}},
		{`{"event":"round_started","data":{}}`, &RoundStarted{}},
		{`{"event":"ate","data":{"player_id":"p1","pos":{"x":3,"y":4},"color":"hsla(140,100%,40%,1)"}}`, &Ate{PlayerID: "p1", Pos: Vec{X: 3, Y: 4}, Color: "hsla(140,100%,40%,1)"}},
		{`{"event":"stroke_start","data":{"player_id":"p1","duration":4.5}}`, &StrokeStart{PlayerID: "p1", Duration: 4.5}},
		{`{"event":"stroke_end","data":{"player_id":"p1"}}`, &StrokeEnd{PlayerID: "p1"}},
		{`{"event":"error","data":{"message":"room not found"}}`, &ServerError{Message: "room not found"}},
		{`{"event":"players_update","data":{"players":[{"id":"p1","nickname":"Egor","sid":"s1"}],"host_sid":"s1"}}`, &PlayersUpdate{Players: []Member{{ID: "p1", Nickname: "Egor", SID: "s1"}}, HostSID: "s1"}},
	}

	for _, tc := range cases {
		evt, err := Decode([]byte(tc.frame))
		require.NoError(t, err, tc.frame)
		require.Equal(t, tc.want, evt, tc.frame)
	}
}

func TestDecode_UnknownEventFailsLoudly(t *testing.T) {
	_, err := Decode([]byte(`{"event":"teleport","data":{}}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "teleport")
}

func TestDecode_BadJSON(t *testing.T) {
	_, err := Decode([]byte(`{"event":`))
	require.Error(t, err)
}

func TestEncode_WireShape(t *testing.T) {
	frame, err := Encode(CreateRoom{Room: "AB12CD", Nickname: "Egor", DeviceType: "desktop", LocalCount: 2})
	require.NoError(t, err)

	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(frame, &env))
	require.Equal(t, "create_room", env.Event)

	// Field names are the interop contract; check them byte for byte.
	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "AB12CD", data["room"])
	require.Equal(t, "Egor", data["nickname"])
	require.Equal(t, "desktop", data["device_type"])
	require.Equal(t, float64(2), data["local_count"])
}

func TestEncode_InputDir(t *testing.T) {
	frame, err := Encode(InputDir{Room: "AB12CD", PlayerID: "sid-0", Dir: Vec{X: 0, Y: -1}})
	require.NoError(t, err)
	require.JSONEq(t,
		`{"event":"input_dir","data":{"room":"AB12CD","player_id":"sid-0","dir":{"x":0,"y":-1}}}`,
		string(frame))
}
