package tables

// Location is a lamp a character can be teleported to.
// Area and Block are the two map bytes the game checks on load.
type Location struct {
	Name  string
	X     float32
	Y     float32
	Z     float32
	Area  byte
	Block byte
}

var Locations = []Location{
	{"Hunter's Dream", -8, -6, -18, 21, 0},
	{"1st Floor Sickroom", -199.74, -50.759, 179.42, 24, 1},
	{"Central Yharnam", -193.4, -28.646, 68.5, 24, 1},
	{"Great Bridge", -124.488, -27.021, 64.673, 24, 1},
	{"Tomb of Oedon", -33.811, -40.722, 87.303, 24, 1},
	{"Cathedral Ward", 16.775, -9.511, 103.27, 24, 0},
	{"Grand Cathedral Ward", 67.808, 35.713, 339.689, 24, 0},
	{"Upper Cathedral Ward", -24.643, 40.621, 250.57, 24, 2},
	{"Lumenflower Gardens", 45.335, 51.403, 300.35, 24, 2},
	{"Altar of Despair", 114.86, 4.443, 425.02, 24, 2},
	{"Old Yharnam", 126.4, -65.214, 36, 23, 0},
	{"Church of the Good Chalice", -139.979, -126.664, 57.359, 23, 0},
	{"Graveyard of the Darkbeast", 111.86, -120.783, -65.249, 23, 0},
	{"Hemwick Charnel Lane", -172, -22, 485.5, 22, 0},
	{"Witch's Abode", -336.3, 2.4, 733, 22, 0},
	{"Forbidden Woods", -190, -76.3, 252, 27, 0},
	{"Forbidden Grave", -335, -186.5, 479, 27, 0},
	{"Byrgenwerth", -400.4, -180.8, 414.6, 32, 0},
	{"Yahar'gul, Unseen Village", 257.4, -51.4, 70, 28, 0},
	{"Yahar'gul Chapel", 260.4, -88, -55.6, 28, 0},
	{"Advent Plaza", 418.8, -123.6, -253.4, 28, 0},
	{"Hypogean Gaol", 219.6, -97.6, -78.8, 28, 0},
	{"Forsaken Castle Cainhurst", -4.5, 33.8, -187.9, 25, 0},
	{"Logarius' Seat", 47.8, 111.8, -350.4, 25, 0},
	{"Vileblood Queen's Chamber", 122.4, 129, -455, 25, 0},
	{"Abandoned Old Workshop", 129.8, -19.9, 140.8, 21, 1},
	{"Lecture Building", -472.37, -185.25, 594.9, 32, 0},
	{"Lecture Building 2nd Floor", -444.22, -177.25, 514.19, 32, 0},
	{"Nightmare Frontier", 0.35, 1500, 0, 33, 0},
	{"Nightmare of Mensis", -104.65, 1462.28, -42.65, 33, 0},
	{"Mergo's Loft: Base", 84.58, 986.7, -0.37, 26, 0},
	{"Mergo's Loft: Middle", 136.69, 1061.26, -14.86, 26, 0},
	{"Wet Nurse's Lunarium", 140.72, 1124.3, -37.98, 26, 0},
	{"Hunter's Nightmare", -481.68, 1490.49, -497.73, 34, 0},
	{"Nightmare Church", -434.08, 1503.18, -594.52, 34, 0},
	{"Nightmare Grand Cathedral", -433.09, 1535.71, -261.57, 34, 0},
	{"Underground Corpse Pile", -406.81, 1503.79, -743, 34, 0},
	{"Research Hall", -318.67, 1553.02, -824.22, 35, 0},
	{"Lumenwood Garden", -432.15, 1593, -824.37, 35, 0},
	{"Astral Clocktower", -454.88, 1595.57, -824.44, 35, 0},
	{"Fishing Hamlet", -619.2, 1594.3, -817.2, 36, 0},
	{"Lighthouse Hut", -645.2, 1614.66, -867.2, 36, 0},
	{"Coast", -695.2, 1577.27, -943.2, 36, 0},
}

func Location_names() map[int]string {
	out := map[int]string{}
	for i, l := range Locations {
		out[i] = l.Name
	}
	return out
}

func Find_location(name string) (Location, error) {
	i, _, err := Fuzzy_lookup(Location_names(), name, "location")
	if err != nil {
		return Location{}, err
	}
	return Locations[i], nil
}
