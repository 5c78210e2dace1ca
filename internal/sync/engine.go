package sync

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Configuration-kind failures. These are not retried internally.
var (
	ErrUnknownEntity     = errors.New("unknown entity type")
	ErrDuplicateProvider = errors.New("duplicate provider tag")
	ErrMissingColumn     = errors.New("missing required column")
)

// Options tune a SyncEngine without changing per-pair stage logic.
type Options struct {
	// UseCompetitionContext partitions records by competition_id/season_id
	// before matching, so stages only ever compare within one partition.
	UseCompetitionContext bool
	// Verbose traces which stage matched which pair and why. It never alters
	// matching outcomes.
	Verbose bool
	Logger  *slog.Logger
}

// Engine synchronizes identifiers for one entity type across providers. It is
// stateless and re-entrant: independent groups may run in parallel on
// separate goroutines.
type Engine struct {
	strategy Strategy
	opts     Options
	log      *slog.Logger
}

// NewEngine builds an engine for the given entity type.
func NewEngine(entity EntityType, opts Options) (*Engine, error) {
	strategy, ok := strategyFor(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{strategy: strategy, opts: opts, log: log}, nil
}

// recref addresses one record: provider position in the input, record
// position within that provider.
type recref struct {
	provider int
	record   int
}

// Synchronize links each provider's identifiers to every other provider's
// identifiers for the same entities. Three layers run per group: a pairwise
// pass over every unordered provider pair, a cross pass pooling all
// leftovers, and a residual pass that keeps genuinely unmatched records as
// single-provider rows. The unioned rows are deduplicated into one row per
// resolved entity.
func (e *Engine) Synchronize(contents []SyncableContent) (*ResultTable, error) {
	if err := e.validate(contents); err != nil {
		return nil, err
	}

	dedupCols := e.dedupColumns(contents)
	columns := e.tableColumns(contents, dedupCols)
	if len(contents) == 0 {
		return &ResultTable{Columns: columns}, nil
	}

	e.trace("starting synchronization",
		"entity", e.strategy.Entity, "providers", len(contents))

	var edges [][2]recref
	for _, part := range e.partition(contents) {
		edges = append(edges, e.matchPartition(contents, part)...)
	}

	rows := e.buildRows(contents, edges, dedupCols)
	rows = e.dedupe(contents, rows, dedupCols)

	e.trace("synchronization finished", "rows", len(rows))
	return &ResultTable{Columns: columns, Rows: rows}, nil
}

func (e *Engine) trace(msg string, args ...any) {
	if e.opts.Verbose {
		e.log.Info(msg, args...)
	}
}

func (e *Engine) validate(contents []SyncableContent) error {
	seen := make(map[string]bool, len(contents))
	for _, c := range contents {
		if c.Provider == "" {
			return fmt.Errorf("%w: empty provider tag", ErrDuplicateProvider)
		}
		if seen[c.Provider] {
			return fmt.Errorf("%w: %q", ErrDuplicateProvider, c.Provider)
		}
		seen[c.Provider] = true
		for i, r := range c.Records {
			for _, col := range e.strategy.RequiredColumns {
				if _, ok := fieldKey(r, col); !ok {
					return fmt.Errorf("%w: %q (provider %q, record %d)",
						ErrMissingColumn, col, c.Provider, i)
				}
			}
		}
	}
	return nil
}

// dedupColumns prunes declared dedup columns that lack full coverage across
// the input (a provider that omits jersey numbers must not fragment the
// grouping), then appends the context columns when context mode is on.
func (e *Engine) dedupColumns(contents []SyncableContent) []string {
	var cols []string
	for _, col := range e.strategy.DedupColumns {
		covered := true
		for _, c := range contents {
			for _, r := range c.Records {
				if _, ok := fieldKey(r, col); !ok {
					covered = false
					break
				}
			}
			if !covered {
				break
			}
		}
		if covered {
			cols = append(cols, col)
		} else {
			e.trace("dropping dedup column without full coverage", "column", col)
		}
	}
	if e.opts.UseCompetitionContext {
		cols = append(cols, e.strategy.ContextColumns...)
	}
	return cols
}

func (e *Engine) tableColumns(contents []SyncableContent, dedupCols []string) []string {
	columns := make([]string, 0, len(contents)+len(dedupCols))
	for _, c := range contents {
		columns = append(columns, IDColumn(c.Provider))
	}
	return append(columns, dedupCols...)
}

// partition splits record references by the canonical values of the context
// columns. Without context mode everything lands in one partition. Records
// with a null context value form their own partition keyed on the empty
// component; they never join another context's comparisons.
func (e *Engine) partition(contents []SyncableContent) [][]recref {
	all := make([]recref, 0)
	for p, c := range contents {
		for i := range c.Records {
			all = append(all, recref{provider: p, record: i})
		}
	}
	if !e.opts.UseCompetitionContext || len(e.strategy.ContextColumns) == 0 {
		if len(all) == 0 {
			return nil
		}
		return [][]recref{all}
	}

	order := make([]string, 0)
	parts := make(map[string][]recref)
	for _, ref := range all {
		r := contents[ref.provider].Records[ref.record]
		keyParts := make([]string, 0, len(e.strategy.ContextColumns))
		for _, col := range e.strategy.ContextColumns {
			k, _ := fieldKey(r, col)
			keyParts = append(keyParts, k)
		}
		key := strings.Join(keyParts, "\x1f")
		if _, ok := parts[key]; !ok {
			order = append(order, key)
		}
		parts[key] = append(parts[key], ref)
	}

	result := make([][]recref, 0, len(order))
	for _, key := range order {
		result = append(result, parts[key])
	}
	return result
}

// matchPartition runs the pairwise and cross passes over one partition and
// returns the committed record pairs.
func (e *Engine) matchPartition(contents []SyncableContent, part []recref) [][2]recref {
	pools := make([][]int, len(contents))
	for _, ref := range part {
		pools[ref.provider] = append(pools[ref.provider], ref.record)
	}

	matched := make(map[recref]bool)
	var edges [][2]recref

	commit := func(left, right int, committed []Candidate, refsL, refsR []int) {
		for _, c := range committed {
			a := recref{provider: left, record: refsL[c.LeftIndex]}
			b := recref{provider: right, record: refsR[c.RightIndex]}
			matched[a] = true
			matched[b] = true
			edges = append(edges, [2]recref{a, b})
		}
	}

	pairTrace := func(left, right string) stageTrace {
		if !e.opts.Verbose {
			return nil
		}
		return func(stage Stage, committed, poolLeft, poolRight int) {
			e.log.Info("stage finished",
				"left", left, "right", right, "stage", stage.Name,
				"committed", committed, "unmatched_left", poolLeft, "unmatched_right", poolRight)
		}
	}

	// Pairwise pass: each unordered provider pair sees its full pools.
	for i := 0; i < len(contents); i++ {
		for j := i + 1; j < len(contents); j++ {
			if len(pools[i]) == 0 || len(pools[j]) == 0 {
				continue
			}
			left := records(contents[i], pools[i])
			right := records(contents[j], pools[j])
			committed := runStages(e.strategy.Stages, left, right,
				pairTrace(contents[i].Provider, contents[j].Provider))
			commit(i, j, committed, pools[i], pools[j])
		}
	}

	// Cross pass: pool leftovers from all providers and retry, shrinking the
	// pools as new pairs commit.
	leftovers := make([][]int, len(contents))
	for p := range contents {
		for _, idx := range pools[p] {
			if !matched[recref{provider: p, record: idx}] {
				leftovers[p] = append(leftovers[p], idx)
			}
		}
	}
	for i := 0; i < len(contents); i++ {
		for j := i + 1; j < len(contents); j++ {
			li := unmatchedOnly(leftovers[i], i, matched)
			lj := unmatchedOnly(leftovers[j], j, matched)
			if len(li) == 0 || len(lj) == 0 {
				continue
			}
			left := records(contents[i], li)
			right := records(contents[j], lj)
			committed := runStages(e.strategy.Stages, left, right,
				pairTrace(contents[i].Provider, contents[j].Provider))
			commit(i, j, committed, li, lj)
		}
	}

	return edges
}

func records(c SyncableContent, idx []int) []Record {
	out := make([]Record, len(idx))
	for n, i := range idx {
		out[n] = c.Records[i]
	}
	return out
}

func unmatchedOnly(idx []int, provider int, matched map[recref]bool) []int {
	var out []int
	for _, i := range idx {
		if !matched[recref{provider: provider, record: i}] {
			out = append(out, i)
		}
	}
	return out
}

// buildRows turns committed pairs into result rows. Pairs are merged
// transitively: records connected through any chain of commits belong to the
// same entity and share one row. Every record left unconnected becomes its
// own residual row.
func (e *Engine) buildRows(contents []SyncableContent, edges [][2]recref, dedupCols []string) []ResultRow {
	parent := make(map[recref]recref)
	var find func(r recref) recref
	find = func(r recref) recref {
		p, ok := parent[r]
		if !ok || p == r {
			return r
		}
		root := find(p)
		parent[r] = root
		return root
	}
	union := func(a, b recref) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}
	for _, edge := range edges {
		if _, ok := parent[edge[0]]; !ok {
			parent[edge[0]] = edge[0]
		}
		if _, ok := parent[edge[1]]; !ok {
			parent[edge[1]] = edge[1]
		}
		union(edge[0], edge[1])
	}

	// Deterministic member order: provider position, then record position.
	components := make(map[recref][]recref)
	var componentOrder []recref
	var residuals []recref
	for p, c := range contents {
		for i := range c.Records {
			ref := recref{provider: p, record: i}
			if _, ok := parent[ref]; !ok {
				residuals = append(residuals, ref)
				continue
			}
			root := find(ref)
			if _, ok := components[root]; !ok {
				componentOrder = append(componentOrder, root)
			}
			components[root] = append(components[root], ref)
		}
	}

	var rows []ResultRow
	carryColumns := dedupCols
	newRow := func() ResultRow {
		row := make(ResultRow, len(contents)+len(carryColumns))
		for _, c := range contents {
			row[IDColumn(c.Provider)] = nil
		}
		for _, col := range carryColumns {
			row[col] = nil
		}
		return row
	}
	fill := func(row ResultRow, ref recref) bool {
		c := contents[ref.provider]
		r := c.Records[ref.record]
		id, _ := recordID(r)
		idCol := IDColumn(c.Provider)
		if cur := row[idCol]; cur != nil {
			// A second record of the same provider in one component: keep the
			// first commit, the extra record falls through to its own row.
			return false
		}
		row[idCol] = id
		for _, col := range carryColumns {
			if v, ok := r[col]; ok && v != nil && canonValue(v) != "" {
				if cur := row[col]; cur == nil {
					row[col] = v
				}
			}
		}
		return true
	}

	for _, root := range componentOrder {
		row := newRow()
		for _, ref := range components[root] {
			if !fill(row, ref) {
				residuals = append(residuals, ref)
			}
		}
		rows = append(rows, row)
	}

	for _, ref := range residuals {
		row := newRow()
		fill(row, ref)
		rows = append(rows, row)
	}
	return rows
}

// dedupe collapses rows resolved through multiple routes. Rows group by the
// canonical values of the dedup columns; a null in any grouping column is a
// non-joining wildcard, so the row stays its own group. Within a group, the
// first non-null identifier per provider wins; rows carrying a conflicting
// identifier for the same provider are distinct entities and stay separate.
func (e *Engine) dedupe(contents []SyncableContent, rows []ResultRow, dedupCols []string) []ResultRow {
	if len(dedupCols) == 0 {
		return rows
	}
	idCols := make([]string, 0, len(contents))
	for _, c := range contents {
		idCols = append(idCols, IDColumn(c.Provider))
	}

	var out []ResultRow
	groups := make(map[string][]int) // group key -> indices into out
	for _, row := range rows {
		key, grouped := dedupeKey(row, dedupCols)
		if !grouped {
			out = append(out, row)
			continue
		}
		mergedInto := -1
		for _, idx := range groups[key] {
			if !out[idx].hasConflict(row, idCols) {
				out[idx].absorb(row)
				mergedInto = idx
				break
			}
		}
		if mergedInto == -1 {
			out = append(out, row)
			groups[key] = append(groups[key], len(out)-1)
		}
	}
	return out
}

func dedupeKey(row ResultRow, dedupCols []string) (string, bool) {
	parts := make([]string, 0, len(dedupCols))
	for _, col := range dedupCols {
		v, ok := row[col]
		if !ok || v == nil {
			return "", false
		}
		k := canonValue(v)
		if k == "" {
			return "", false
		}
		parts = append(parts, k)
	}
	return strings.Join(parts, "\x1f"), true
}
