package ast

// MaxFunctions bounds the function table, including specialization clones
// (spec.md §3 Function invariant: "function table size ≤ 1024 including
// clones").
const MaxFunctions = 1024

// MaxConstants bounds the constant table (spec.md §4.4: "constants ≤1024").
const MaxConstants = 1024

// FuncFlags is a bitset of the Function flags from spec.md §3.
type FuncFlags uint8

const (
	FlagHasConstParams FuncFlags = 1 << iota
	FlagIsConstFn
	FlagIsSpecialization
	FlagIsExported
)

func (f FuncFlags) Has(flag FuncFlags) bool { return f&flag != 0 }

// Param is one function parameter.
type Param struct {
	Name    string
	Type    TypeID
	IsConst bool
}

// FuncIndex references an entry in a FuncTable.
type FuncIndex uint32

// Function is the parser/specializer's record for one function (spec.md
// §3 "Function"). Clones produced by the specializer are ordinary entries
// in the same table (FlagIsSpecialization set, OriginFunc pointing back to
// the generic original — a plain index, never an ownership edge, per
// spec.md §3 "Ownership").
type Function struct {
	Name       string
	Module     string
	Params     []Param
	ReturnType TypeID
	Body       ExprIndex
	LocalCount int
	Flags      FuncFlags

	// OriginFunc/ConstKey are only meaningful when FlagIsSpecialization is
	// set: they record which generic function this clone came from and
	// under what const-key, purely for diagnostics and cache bookkeeping.
	OriginFunc FuncIndex
	ConstKey   string

	Line, Col int
}

// FuncTable is the arena table of functions, including specialization
// clones (spec.md §3 Function, §4.5 "Specialization protocol").
type FuncTable struct {
	entries []Function
}

func NewFuncTable() *FuncTable {
	return &FuncTable{entries: make([]Function, 0, MaxFunctions)}
}

func (t *FuncTable) Len() int { return len(t.entries) }

func (t *FuncTable) Append(f Function) (FuncIndex, bool) {
	if len(t.entries) >= MaxFunctions {
		return 0, false
	}
	t.entries = append(t.entries, f)
	return FuncIndex(len(t.entries) - 1), true
}

func (t *FuncTable) Get(i FuncIndex) Function { return t.entries[i] }

func (t *FuncTable) Set(i FuncIndex, f Function) { t.entries[i] = f }

func (t *FuncTable) All() []Function { return t.entries }

// FindByName returns the first function named name declared directly in
// module (not a clone), or ok=false.
func (t *FuncTable) FindByName(module, name string) (FuncIndex, bool) {
	for i, f := range t.entries {
		if f.Module == module && f.Name == name && !f.Flags.Has(FlagIsSpecialization) {
			return FuncIndex(i), true
		}
	}
	return 0, false
}
