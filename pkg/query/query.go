// Package query filters stored events with JMESPath expressions.
//
// Each event is searched as the document
//
//	{"id": 1, "log_id": 1, "timestamp": "2024-10-02T17:34:00.153", "fields": ["ZONE_CHANGE", ...]}
//
// and matches when the expression yields a truthy result, so both
// `fields[0] == 'SPELL_DAMAGE'` and `fields[?contains(@, 'Thrall')]` work.
package query

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jmespath/go-jmespath"

	"github.com/ccollicutt/combatlog/pkg/parser"
	"github.com/ccollicutt/combatlog/pkg/store"
)

// Filter is a compiled event filter.
type Filter struct {
	expr string
	jp   *jmespath.JMESPath
}

// Compile parses expr. An invalid expression is reported here rather than
// on the first Match.
func Compile(expr string) (*Filter, error) {
	jp, err := jmespath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling filter %q: %w", expr, err)
	}
	return &Filter{expr: expr, jp: jp}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expr
}

// Match reports whether e satisfies the filter.
func (f *Filter) Match(e store.Event) (bool, error) {
	res, err := f.jp.Search(document(e))
	if err != nil {
		return false, fmt.Errorf("evaluating filter on event %d: %w", e.ID, err)
	}
	return truthy(res), nil
}

// Apply returns the events that match, keeping their order.
func (f *Filter) Apply(events []store.Event) ([]store.Event, error) {
	out := make([]store.Event, 0, len(events))
	for _, e := range events {
		ok, err := f.Match(e)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// EventLister pages through the stored events of a log.
type EventLister interface {
	ListEvents(ctx context.Context, logID int64, q store.EventQuery) ([]store.Event, error)
}

// Select returns a page of the events of a log. Without a filter it is a
// plain ListEvents. With one, the whole log is scanned and q pages over the
// matching events only.
func Select(ctx context.Context, src EventLister, logID int64, q store.EventQuery, f *Filter) ([]store.Event, error) {
	if f == nil {
		return src.ListEvents(ctx, logID, q)
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("offset must not be negative, got %d", q.Offset)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = store.DefaultEventLimit
	}

	out := []store.Event{}
	skipped := 0
	for offset := 0; ; offset += store.DefaultEventLimit {
		page, err := src.ListEvents(ctx, logID, store.EventQuery{Offset: offset, Limit: store.DefaultEventLimit})
		if err != nil {
			return nil, err
		}

		for _, e := range page {
			ok, err := f.Match(e)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if skipped < q.Offset {
				skipped++
				continue
			}
			out = append(out, e)
			if len(out) == limit {
				return out, nil
			}
		}

		if len(page) < store.DefaultEventLimit {
			return out, nil
		}
	}
}

// document builds the value searched for e. JMESPath compares numbers as
// float64, so the ids are converted.
func document(e store.Event) map[string]any {
	fields := make([]any, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = f
	}
	return map[string]any{
		"id":        float64(e.ID),
		"log_id":    float64(e.LogID),
		"timestamp": e.Timestamp.Format(parser.NaiveLayout),
		"fields":    fields,
	}
}

func truthy(v any) bool {
	if v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	}
	return true
}
