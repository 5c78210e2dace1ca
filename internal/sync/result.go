package sync

// ResultRow maps result-table column names to values. Identifier columns use
// the "{provider}_object_id" convention; a row always carries at least one
// non-null identifier.
type ResultRow map[string]any

// ResultTable is the identifier table produced by one Synchronize call. Rows
// keep a deterministic order; Columns fixes the column order for export.
type ResultTable struct {
	Columns []string
	Rows    []ResultRow
}

// ID returns the identifier a row carries for a provider, if any.
func (r ResultRow) ID(provider string) (string, bool) {
	v, ok := r[IDColumn(provider)]
	if !ok || v == nil {
		return "", false
	}
	s := canonValue(v)
	return s, s != ""
}

// hasConflict reports whether merging other into r would overwrite an
// identifier slot that both rows populate. Used by dedup: conflicting rows
// are distinct entities even when their grouping columns agree.
func (r ResultRow) hasConflict(other ResultRow, idColumns []string) bool {
	for _, col := range idColumns {
		a, aok := r[col]
		b, bok := other[col]
		if aok && bok && a != nil && b != nil && canonValue(a) != canonValue(b) {
			return true
		}
	}
	return false
}

// absorb copies other's values into r wherever r is null.
func (r ResultRow) absorb(other ResultRow) {
	for col, v := range other {
		if v == nil {
			continue
		}
		if cur, ok := r[col]; !ok || cur == nil || canonValue(cur) == "" {
			r[col] = v
		}
	}
}
