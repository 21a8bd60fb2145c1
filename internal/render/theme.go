package render

// Theme holds colors shared by the graph and table renderers.
type Theme struct {
	Background string
	NodeFill   string
	NodeBorder string
	TextColor  string

	// Block accents.
	EntryBorder string // subroutine entry block
	TermFill    string // blocks with no successors

	// Edge colors.
	EdgeTaken string // conditional branch taken
	EdgeFall  string // conditional branch fallthrough
	EdgePlain string // unconditional flow

	// Table row classes.
	Call         string
	Callee       string
	Branch       string
	BranchTarget string
	Ret          string
}

// NASA is the NASA/Bauhaus theme: geometric, monochrome, sparse color.
var NASA = Theme{
	Background: "#F5F5F5",
	NodeFill:   "white",
	NodeBorder: "#1A1A1A",
	TextColor:  "#1A1A1A",

	EntryBorder: "#0B3D91", // NASA blue
	TermFill:    "#ECEFF1", // blue-gray 50

	EdgeTaken: "#0B3D91",
	EdgeFall:  "#FC3D21", // NASA red
	EdgePlain: "#424242",

	Call:         "#0B3D91",
	Callee:       "#FC3D21",
	Branch:       "#6A1B9A", // purple
	BranchTarget: "#E65100", // deep orange
	Ret:          "#00695C", // teal
}

// Classic uses plain named CSS colors.
var Classic = Theme{
	Background: "white",
	NodeFill:   "white",
	NodeBorder: "black",
	TextColor:  "black",

	EntryBorder: "blue",
	TermFill:    "white",

	EdgeTaken: "green",
	EdgeFall:  "red",
	EdgePlain: "black",

	Call:         "blue",
	Callee:       "red",
	Branch:       "purple",
	BranchTarget: "orange",
	Ret:          "green",
}

// ThemeByName returns the named theme, falling back to NASA.
func ThemeByName(name string) Theme {
	if name == "classic" {
		return Classic
	}
	return NASA
}
