package protocol

import (
	"encoding/json"
	"fmt"
)

// Wire framing: every message is a JSON text frame {"event": name, "data": payload}.
// Field names must match the server exactly.

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Vec is a grid cell or a cardinal unit direction.
type Vec struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SnakeColor is the server-assigned palette entry for one player.
type SnakeColor struct {
	Head     string `json:"head"`
	Body     string `json:"body"`
	Particle string `json:"particle"`
}

// --- Client -> Server ---

type Outbound interface{ EventName() string }

type CreateRoom struct {
	Room       string `json:"room"`
	Nickname   string `json:"nickname"`
	DeviceType string `json:"device_type"`
	LocalCount int    `json:"local_count"`
}

func (CreateRoom) EventName() string { return "create_room" }

type StartRound struct {
	Room string `json:"room"`
}

func (StartRound) EventName() string { return "start_round" }

type InputDir struct {
	Room     string `json:"room"`
	PlayerID string `json:"player_id"`
	Dir      Vec    `json:"dir"`
}

func (InputDir) EventName() string { return "input_dir" }

func Encode(msg Outbound) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: msg.EventName(), Data: data})
}

// --- Server -> Client ---

// Inbound is the closed set of server events. The transport decodes each
// frame into exactly one of these; handlers dispatch by type switch.
type Inbound interface{ isInbound() }

// Welcome carries the server-assigned connection id. Sent once per
// (re)connect, before any room traffic. Host status is derived by comparing
// PlayersUpdate.HostSID against this id.
type Welcome struct {
	SID string `json:"sid"`
}

type LocalPlayer struct {
	ID         string `json:"id"`
	Nickname   string `json:"nickname"`
	LocalIndex int    `json:"localIndex"`
}

type Joined struct {
	Room    string        `json:"room"`
	Players []LocalPlayer `json:"players"`
	IsHost  bool          `json:"is_host"`
}

type JoinFailed struct {
	Reason string `json:"reason"`
}

type Member struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	SID      string `json:"sid"`
}

type PlayersUpdate struct {
	Players []Member `json:"players"`
	HostSID string   `json:"host_sid"`
}

type RoundStarting struct{}

type RoundStarted struct{}

type PlayerState struct {
	ID       string     `json:"id"`
	Nickname string     `json:"nickname"`
	Snake    []Vec      `json:"snake"`
	Score    int        `json:"score"`
	Alive    bool       `json:"alive"`
	Color    SnakeColor `json:"color"`
}

// State is a full authoritative snapshot. It always replaces the previous
// one wholesale, never merges into it.
type State struct {
	Players []PlayerState `json:"players"`
	Foods   []Vec         `json:"foods"`
	Tick    float64       `json:"tick"`
	GridW   int           `json:"grid_w"`
	GridH   int           `json:"grid_h"`
}

type ScoreEntry struct {
	Score    int    `json:"score"`
	Nickname string `json:"nickname"`
}

type Winner struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

type RoundEnd struct {
	Scores  map[string]ScoreEntry `json:"scores"`
	Winners []Winner              `json:"winners"`
	Wins    map[string]int        `json:"wins,omitempty"`
}

type Ate struct {
	PlayerID string `json:"player_id"`
	Pos      Vec    `json:"pos"`
	Color    string `json:"color"`
}

type StrokeStart struct {
	PlayerID string  `json:"player_id"`
	Duration float64 `json:"duration"`
}

type StrokeEnd struct {
	PlayerID string `json:"player_id"`
}

type ServerError struct {
	Message string `json:"message"`
}

func (Welcome) isInbound()       {}
func (Joined) isInbound()        {}
func (JoinFailed) isInbound()    {}
func (PlayersUpdate) isInbound() {}
func (RoundStarting) isInbound() {}
func (RoundStarted) isInbound()  {}
func (State) isInbound()         {}
func (RoundEnd) isInbound()      {}
func (Ate) isInbound()           {}
func (StrokeStart) isInbound()   {}
func (StrokeEnd) isInbound()     {}
func (ServerError) isInbound()   {}

// Decode parses one wire frame into its Inbound arm. Unknown event names are
// an error so new server events fail loudly instead of being dropped.
func Decode(frame []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("bad frame: %w", err)
	}

	unmarshal := func(v Inbound) (Inbound, error) {
		if len(env.Data) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(env.Data, v); err != nil {
			return nil, fmt.Errorf("bad %s payload: %w", env.Event, err)
		}
		return v, nil
	}

	switch env.Event {
	case "welcome":
		return unmarshal(&Welcome{})
	case "joined":
		return unmarshal(&Joined{})
	case "join_failed":
		return unmarshal(&JoinFailed{})
	case "players_update":
		return unmarshal(&PlayersUpdate{})
	case "round_starting":
		return &RoundStarting{}, nil
	case "round_started":
		return &RoundStarted{}, nil
	case "state":
		return unmarshal(&State{})
	case "round_end":
		return unmarshal(&RoundEnd{})
	case "ate":
		return unmarshal(&Ate{})
	case "stroke_start":
		return unmarshal(&StrokeStart{})
	case "stroke_end":
		return unmarshal(&StrokeEnd{})
	case "error":
		return unmarshal(&ServerError{})
	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
}
