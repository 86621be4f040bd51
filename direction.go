package worldmap

type direction int

const (
	north direction = iota + 1
	south
	east
	west
)

func parseDirection(s string) (direction, bool) {
	switch s {
	case "north":
		return north, true
	case "south":
		return south, true
	case "east":
		return east, true
	case "west":
		return west, true
	}
	return 0, false
}

func (d direction) opposite() direction {
	switch d {
	case north:
		return south
	case south:
		return north
	case east:
		return west
	case west:
		return east
	}
	return 0
}

func (d direction) String() string {
	switch d {
	case north:
		return "north"
	case south:
		return "south"
	case east:
		return "east"
	case west:
		return "west"
	}
	return "unknown"
}
