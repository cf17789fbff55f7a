package room

import (
	"capivara-server/pkg/game"
)

// inbound message types
const (
	TypePing         = "PING"
	TypeLobbies      = "LOBBIES"
	TypeJoinLobby    = "JOIN_LOBBY"
	TypeLeaveLobby   = "LEAVE_LOBBY"
	TypeRequestState = "REQUEST_STATE"
	TypeStart        = "START"
	TypeBet          = "BET"
	TypeRestart      = "RESTART"
	TypeReconnect    = "RECONNECT"
)

// outbound message types
const (
	outPong                      = "PONG"
	outLobbies                   = "LOBBIES"
	outJoined                    = "JOINED"
	outLobbyState                = "LOBBY_STATE"
	outPlayerJoined              = "PLAYER_JOINED"
	outPlayerLeft                = "PLAYER_LEFT"
	outGameState                 = "GAME_STATE"
	outReconnected               = "RECONNECTED"
	outReconnectFail             = "RECONNECT_FAIL"
	outOpponentDisconnectedGrace = "OPPONENT_DISCONNECTED_GRACE"
	outOpponentReconnected       = "OPPONENT_RECONNECTED"
	outError                     = "ERROR"
)

// PayloadIn is the format we expect from the client. Fields that do not apply
// to the message type are ignored.
type PayloadIn struct {
	Type       string `json:"type"`
	TableID    string `json:"tableId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`

	// Position is a pointer so a missing position can be told apart from 0
	Position *int   `json:"position,omitempty"`
	Token    string `json:"token,omitempty"`
}

// LobbySummary is one table's entry in the lobby list
type LobbySummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Solo     bool     `json:"solo"`
	Seated   int      `json:"seated"`
	Capacity int      `json:"capacity"`
	Active   bool     `json:"active"`
	Full     bool     `json:"full"`
	Names    []string `json:"names"`
}

type pongMsg struct {
	Type string `json:"type"`
}

type lobbiesMsg struct {
	Type   string         `json:"type"`
	Tables []LobbySummary `json:"tables"`
}

type joinedMsg struct {
	Type    string   `json:"type"`
	Seat    int      `json:"seat"`
	Token   string   `json:"token"`
	TableID string   `json:"tableId"`
	Solo    bool     `json:"solo"`
	Name    string   `json:"name"`
	Table   string   `json:"table"`
	Names   []string `json:"names"`
}

type lobbyStateMsg struct {
	Type   string   `json:"type"`
	Table  string   `json:"table"`
	Names  []string `json:"names"`
	MySeat int      `json:"mySeat"`
}

type playerJoinedMsg struct {
	Type  string `json:"type"`
	Seat  int    `json:"seat"`
	Name  string `json:"name"`
	Table string `json:"table"`
}

type playerLeftMsg struct {
	Type  string `json:"type"`
	Seat  int    `json:"seat"`
	Table string `json:"table"`
}

type gameStateMsg struct {
	Type  string      `json:"type"`
	State *game.State `json:"state"`
}

type reconnectedMsg struct {
	Type     string `json:"type"`
	Seat     int    `json:"seat"`
	GameSeat int    `json:"gameSeat"`
	Name     string `json:"name"`
	Solo     bool   `json:"solo"`
}

type reconnectFailMsg struct {
	Type string `json:"type"`
}

// opponentDisconnectedMsg reports the session seat when a game is active,
// otherwise the table seat
type opponentDisconnectedMsg struct {
	Type    string `json:"type"`
	Seat    int    `json:"seat"`
	Name    string `json:"name"`
	GraceMS int64  `json:"graceMs"`
}

type opponentReconnectedMsg struct {
	Type string `json:"type"`
	Seat int    `json:"seat"`
	Name string `json:"name"`
}

type errorMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func newErrorMsg(text string) errorMsg {
	return errorMsg{Type: outError, Text: text}
}
