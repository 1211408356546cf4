package core

// NumericStrategy selects how missing values in numeric columns are filled.
type NumericStrategy int

const (
	// NumericNone leaves numeric missing values in place. Absent and
	// unrecognized selections resolve here.
	NumericNone NumericStrategy = iota
	NumericMean
	NumericMedian
	NumericMode
)

var numericStrategies = map[string]NumericStrategy{
	"none":   NumericNone,
	"mean":   NumericMean,
	"median": NumericMedian,
	"mode":   NumericMode,
}

// ParseNumericStrategy maps a form value to a strategy. The second result
// is false when the value was not a known strategy name.
func ParseNumericStrategy(s string) (NumericStrategy, bool) {
	st, ok := numericStrategies[s]
	return st, ok
}

func (s NumericStrategy) String() string {
	switch s {
	case NumericMean:
		return "mean"
	case NumericMedian:
		return "median"
	case NumericMode:
		return "mode"
	default:
		return "none"
	}
}

// CategoricalStrategy selects how missing values in text columns are filled.
type CategoricalStrategy int

const (
	// CategoricalConstant fills with NotAvailable. Absent and unrecognized
	// selections resolve here.
	CategoricalConstant CategoricalStrategy = iota
	CategoricalMode
)

// NotAvailable is the placeholder written into text columns when no
// categorical strategy applies. Normalization later lowercases it.
const NotAvailable = "Not Available"

// ParseCategoricalStrategy maps a form value to a strategy. The second
// result is false when the value was not a known strategy name.
func ParseCategoricalStrategy(s string) (CategoricalStrategy, bool) {
	switch s {
	case "mode":
		return CategoricalMode, true
	case "constant":
		return CategoricalConstant, true
	default:
		return CategoricalConstant, false
	}
}

func (s CategoricalStrategy) String() string {
	if s == CategoricalMode {
		return "mode"
	}
	return "constant"
}
