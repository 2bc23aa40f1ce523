package extraction

// FieldFlag names a single decoded bit of a field's Ff entry
type FieldFlag string

const (
	FlagReadOnly        FieldFlag = "ReadOnly"
	FlagRequired        FieldFlag = "Required"
	FlagPassword        FieldFlag = "Password"
	FlagFileSelect      FieldFlag = "FileSelect"
	FlagDoNotSpellCheck FieldFlag = "DoNotSpellCheck"
	FlagDoNotScroll     FieldFlag = "DoNotScroll"
	FlagComb            FieldFlag = "Comb"
)

// flagTable maps 0-based bit positions to names, in ascending bit order.
var flagTable = []struct {
	bit  uint
	flag FieldFlag
}{
	{0, FlagReadOnly},
	{1, FlagRequired},
	{12, FlagPassword},
	{13, FlagFileSelect},
	{14, FlagDoNotSpellCheck},
	{15, FlagDoNotScroll},
	{17, FlagComb},
}

// FieldFlagSet is the set of flags decoded from one bitmask.
type FieldFlagSet []FieldFlag

// Has reports whether f is in the set
func (s FieldFlagSet) Has(f FieldFlag) bool {
	for _, v := range s {
		if v == f {
			return true
		}
	}
	return false
}

// DecodeFieldFlags returns the named flags whose bits are set in mask.
// Bits without a name are ignored. The result is never nil and is ordered
// by bit position.
func DecodeFieldFlags(mask int64) FieldFlagSet {
	flags := make(FieldFlagSet, 0, len(flagTable))
	for _, entry := range flagTable {
		if mask&(1<<entry.bit) != 0 {
			flags = append(flags, entry.flag)
		}
	}
	return flags
}
