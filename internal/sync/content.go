package sync

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EntityType selects which matching strategy a SyncEngine runs.
type EntityType string

const (
	EntityMatch  EntityType = "match"
	EntityTeam   EntityType = "team"
	EntityPlayer EntityType = "player"
)

// Column names read by the matching strategies. Providers may carry any extra
// columns; they are ignored.
const (
	ColObjectID       = "object_id"
	ColMatchDate      = "match_date"
	ColMatchday       = "matchday"
	ColHomeTeamID     = "home_team_id"
	ColAwayTeamID     = "away_team_id"
	ColCompetitionID  = "competition_id"
	ColSeasonID       = "season_id"
	ColTeamName       = "team_name"
	ColTeamID         = "team_id"
	ColJerseyNumber   = "jersey_number"
	ColPlayerName     = "player_name"
	ColPlayerNickname = "player_nickname"
	ColBirthDate      = "birth_date"
)

// Record is one entity instance as reported by one provider. Values are
// strings, numbers (int/float64) or dates (time.Time); a missing key or a nil
// value means the provider did not supply the field.
type Record map[string]any

// Str returns the string form of a column value. The second return is false
// when the column is null or empty.
func (r Record) Str(col string) (string, bool) {
	v, ok := r[col]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		s = canonValue(v)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Date returns a column value as a date. Accepts time.Time values as well as
// "2006-01-02" and RFC3339 strings.
func (r Record) Date(col string) (time.Time, bool) {
	v, ok := r[col]
	if !ok || v == nil {
		return time.Time{}, false
	}
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		return parseDate(t)
	}
	return time.Time{}, false
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// canonValue renders a value in a canonical string form used for key equality
// and for grouping during deduplication. Empty string means null.
func canonValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02")
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// fieldKey returns the canonical key of a column and whether it is non-null.
func fieldKey(r Record, col string) (string, bool) {
	v, ok := r[col]
	if !ok || v == nil {
		return "", false
	}
	k := canonValue(v)
	return k, k != ""
}

// fieldsEqual reports equality of a column across two records. Null on either
// side is not equality.
func fieldsEqual(a, b Record, col string) bool {
	ka, oka := fieldKey(a, col)
	kb, okb := fieldKey(b, col)
	return oka && okb && ka == kb
}

// SyncableContent is one provider's record set for one group: the engine's
// unit of input. Records are read-only to the engine.
type SyncableContent struct {
	Provider string
	Records  []Record
}

// IDColumn is the result-table column that carries a provider's identifiers.
func IDColumn(provider string) string {
	return provider + "_object_id"
}

// ID returns the record's own identifier as reported by its provider.
func recordID(r Record) (string, bool) {
	return fieldKey(r, ColObjectID)
}
