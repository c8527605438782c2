package ast

// Program bundles every arena table the pipeline shares from parsing
// through emission: functions, constants, types, expressions, call-sites,
// and composite const values (spec.md §3 "Arena regions").
type Program struct {
	Funcs      *FuncTable
	Consts     *ConstTable
	Types      *TypeTables
	Exprs      *ExprTable
	Calls      *CallTable
	Composites *CompositeTable

	// EntryModule is the module path compileFromPath was invoked with;
	// only its directly-declared functions are export candidates
	// (spec.md §4.7 "All non-specialized non-private functions declared
	// in the entry module are exported").
	EntryModule string
}

func NewProgram(entryModule string, exprCapacity int) *Program {
	return &Program{
		Funcs:       NewFuncTable(),
		Consts:      NewConstTable(),
		Types:       NewTypeTables(),
		Exprs:       NewExprTable(exprCapacity),
		Calls:       NewCallTable(),
		Composites:  NewCompositeTable(),
		EntryModule: entryModule,
	}
}
