package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// ListingStyle colors listing text in the NASA palette on a dark terminal.
var ListingStyle = styles.Register(chroma.MustNewStyle("notida-listing", chroma.StyleEntries{
	chroma.Text:       "#E0E0E0",
	chroma.Background: "bg:#1A1A1A",
	chroma.Comment:    "#9E9E9E",

	chroma.Keyword:      "#FFFFFF",
	chroma.NameFunction: "#FFFFFF", // mnemonics
	chroma.Name:         "#7C9C9D", // registers
	chroma.NameVariable: "#7C9C9D",
	chroma.NameBuiltin:  "#7C9C9D",
	chroma.NameLabel:    "#FFD700",

	chroma.LiteralNumber:        "#FF5F87",
	chroma.LiteralNumberHex:     "#FF5F87",
	chroma.LiteralNumberInteger: "#FF5F87",

	chroma.Operator:    "#E0E0E0",
	chroma.Punctuation: "#E0E0E0",
}))

func listingLexer() chroma.Lexer {
	for _, name := range []string{"gas", "GAS", "nasm"} {
		if l := lexers.Get(name); l != nil {
			return chroma.Coalesce(l)
		}
	}
	return nil
}

func listingFormatter(trueColor bool) chroma.Formatter {
	candidates := []string{"terminal256", "terminal16m"}
	if trueColor {
		candidates = []string{"terminal16m", "terminal256"}
	}
	for _, name := range candidates {
		if f := formatters.Get(name); f != nil {
			return f
		}
	}
	return formatters.Fallback
}

// Colorize highlights listing text for a terminal. With no assembly lexer
// available the text is returned unchanged.
func Colorize(text string, trueColor bool) (string, error) {
	lexer := listingLexer()
	if lexer == nil {
		return text, nil
	}
	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text, err
	}
	var b strings.Builder
	if err := listingFormatter(trueColor).Format(&b, ListingStyle, it); err != nil {
		return text, err
	}
	return b.String(), nil
}
