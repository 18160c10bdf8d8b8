package common

import "fmt"

// Game selects which of the two DS Zelda titles a file belongs to.
// Several formats share magics but differ in entry layout between the games.
type Game int

const (
	PhantomHourglass Game = iota
	SpiritTracks
)

func (g Game) String() string {
	switch g {
	case PhantomHourglass:
		return "ph"
	case SpiritTracks:
		return "st"
	default:
		return fmt.Sprintf("game(%d)", int(g))
	}
}

// ParseGame maps the short names used in configs and CLI flags.
func ParseGame(s string) (Game, error) {
	switch s {
	case "ph", "phantom-hourglass":
		return PhantomHourglass, nil
	case "st", "spirit-tracks":
		return SpiritTracks, nil
	default:
		return 0, fmt.Errorf("common: unknown game %q", s)
	}
}
