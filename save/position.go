package save

import (
	"fmt"

	"bbsave/readers"
	"bbsave/tables"
	"bbsave/types"
	"bbsave/writers"
)

const (
	LOADED_MAP_OFFSET = 4
	MAP_AREA_OFFSET   = 7
	MAP_BLOCK_OFFSET  = 6
)

// Coordinates are where the character stands.  Offset is the position marker they follow.
type Coordinates struct {
	Offset int     `json:"-"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Z      float32 `json:"z"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", c.X, c.Y, c.Z)
}

type Position struct {
	Coordinates Coordinates `json:"coordinates"`
	Loaded_map  uint32      `json:"loaded_map"`
}

func (f *FileData) position_marker() (int, error) {
	if f.Offsets.Lced < 0 {
		return 0, types.Custom_error("Coordinates could not be found.")
	}
	m := readers.Find(f.Bytes, f.Offsets.Lced, len(f.Bytes), types.POSITION_MARKER)
	if m < 0 || readers.Check(f.Bytes, m+12, 12) != nil {
		return 0, types.Custom_error("Coordinates could not be found.")
	}
	return m, nil
}

func (f *FileData) Coordinates() (Coordinates, error) {
	m, err := f.position_marker()
	if err != nil {
		return Coordinates{}, err
	}
	c := Coordinates{Offset: m}
	c.X, _ = readers.Read_f32_le(f.Bytes, m+12)
	c.Y, _ = readers.Read_f32_le(f.Bytes, m+16)
	c.Z, _ = readers.Read_f32_le(f.Bytes, m+20)
	return c, nil
}

func (f *FileData) Position() (Position, error) {
	c, err := f.Coordinates()
	if err != nil {
		return Position{}, err
	}
	loaded, err := readers.Read_u32_le(f.Bytes, LOADED_MAP_OFFSET)
	if err != nil {
		return Position{}, err
	}
	return Position{Coordinates: c, Loaded_map: loaded}, nil
}

// Edit_coordinates moves the character without changing the loaded map.
func (f *FileData) Edit_coordinates(x, y, z float32) (Coordinates, error) {
	m, err := f.position_marker()
	if err != nil {
		return Coordinates{}, err
	}
	writers.Write_f32_le(f.Bytes, m+12, x)
	writers.Write_f32_le(f.Bytes, m+16, y)
	writers.Write_f32_le(f.Bytes, m+20, z)
	return Coordinates{Offset: m, X: x, Y: y, Z: z}, nil
}

// Teleport moves the character and sets the map to load with them.
func (f *FileData) Teleport(x, y, z float32, area byte, block byte) (Position, error) {
	err := readers.Check(f.Bytes, LOADED_MAP_OFFSET, 4)
	if err != nil {
		return Position{}, err
	}
	c, err := f.Edit_coordinates(x, y, z)
	if err != nil {
		return Position{}, err
	}
	f.Bytes[MAP_AREA_OFFSET] = area
	f.Bytes[MAP_BLOCK_OFFSET] = block
	loaded, _ := readers.Read_u32_le(f.Bytes, LOADED_MAP_OFFSET)
	return Position{Coordinates: c, Loaded_map: loaded}, nil
}

// Teleport_to sends the character to a lamp by name.
func (f *FileData) Teleport_to(name string) (Position, error) {
	loc, err := tables.Find_location(name)
	if err != nil {
		return Position{}, err
	}
	return f.Teleport(loc.X, loc.Y, loc.Z, loc.Area, loc.Block)
}
