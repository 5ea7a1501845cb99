// internal/models/room_status.go
package models

import (
	"encoding/json"
	"fmt"
)

// RoomStatus is the closed set of room lifecycle states.
//
//	LOBBY --start_game--> PLAYING --declare_show--> LOBBY | WINNER
//
// WINNER is terminal for gameplay actions.
type RoomStatus uint8

const (
	StatusLobby RoomStatus = iota
	StatusPlaying
	StatusWinner
)

var roomStatusNames = map[RoomStatus]string{
	StatusLobby:   "LOBBY",
	StatusPlaying: "PLAYING",
	StatusWinner:  "WINNER",
}

func (s RoomStatus) String() string {
	if name, ok := roomStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("RoomStatus(%d)", uint8(s))
}

// ParseRoomStatus converts the wire name back into a RoomStatus.
func ParseRoomStatus(name string) (RoomStatus, error) {
	for s, n := range roomStatusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown room status %q", name)
}

func (s RoomStatus) MarshalJSON() ([]byte, error) {
	name, ok := roomStatusNames[s]
	if !ok {
		return nil, fmt.Errorf("cannot marshal %s", s)
	}
	return json.Marshal(name)
}

func (s *RoomStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseRoomStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
