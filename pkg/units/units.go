// Package units holds metadata about the measurement units a benchmark
// result may report, in particular whether a smaller value means better
// performance.
package units

// Unit describes a known measurement unit.
type Unit struct {
	Symbol       string
	Name         string
	LessIsBetter bool
}

// known is the set of units accepted at ingest time.
var known = map[string]Unit{
	"s":   {Symbol: "s", Name: "seconds", LessIsBetter: true},
	"ns":  {Symbol: "ns", Name: "nanoseconds", LessIsBetter: true},
	"B/s": {Symbol: "B/s", Name: "bytes per second", LessIsBetter: false},
	"i/s": {Symbol: "i/s", Name: "items per second", LessIsBetter: false},
}

// Valid reports whether the given unit symbol is a known unit.
func Valid(symbol string) bool {
	_, ok := known[symbol]

	return ok
}

// LessIsBetter reports whether a smaller value of the given unit means
// better performance. Unknown units are treated as duration-like.
func LessIsBetter(symbol string) bool {
	if u, ok := known[symbol]; ok {
		return u.LessIsBetter
	}

	return true
}

// Name returns the human-readable name for a unit symbol, or the symbol
// itself when the unit is not known.
func Name(symbol string) string {
	if u, ok := known[symbol]; ok {
		return u.Name
	}

	return symbol
}
