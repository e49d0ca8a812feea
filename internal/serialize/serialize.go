// Package serialize turns ReadQueryResult trees into response values.
//
// Only explicitly selected scalars are emitted; fields pulled in for
// resolution (typically "id") are dropped. List fields are attached to the
// record whose id they were read for. Nested results are regrouped under their
// parent records by parent link: to-many relations render as lists (empty when
// a parent has no children), to-one relations as an object or null.
//
// A top-level single result renders as an object, or null when nothing
// matched. A top-level collection renders as a list.
package serialize

import (
	"fmt"

	"github.com/roach88/qres/internal/queryir"
	"github.com/roach88/qres/internal/record"
	"github.com/roach88/qres/internal/result"
	"github.com/roach88/qres/internal/value"
)

// Serialize converts a result tree into a response value.
func Serialize(r result.ReadQueryResult) (value.Value, error) {
	if r == nil {
		return nil, fmt.Errorf("serialize: nil result")
	}
	s := &serializer{groups: make(map[result.ReadQueryResult]map[value.ID][]record.Record)}

	v := viewOf(r)
	switch res := r.(type) {
	case *result.SingleReadQueryResult:
		if !res.Found() {
			return value.Null{}, nil
		}
		return s.object(v, res.Scalars().Record)
	case *result.ManyReadQueryResults:
		list := make(value.List, 0, res.Len())
		for _, rec := range res.Scalars().Records {
			obj, err := s.object(v, rec)
			if err != nil {
				return nil, err
			}
			list = append(list, obj)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("serialize: unsupported result type %T", r)
	}
}

// Encode serializes a result tree to canonical JSON.
func Encode(r result.ReadQueryResult) ([]byte, error) {
	v, err := Serialize(r)
	if err != nil {
		return nil, err
	}
	return value.MarshalCanonical(v)
}

// view is the shape-independent part of a result.
type view struct {
	name     string
	fields   []string
	selected queryir.SelectedFields
	lists    []record.ListResult
	nested   []result.ReadQueryResult
	records  []record.Record
}

func viewOf(r result.ReadQueryResult) view {
	switch res := r.(type) {
	case *result.SingleReadQueryResult:
		v := view{
			name:     res.Name(),
			fields:   res.Fields(),
			selected: res.SelectedFields(),
			lists:    res.Lists(),
			nested:   res.Nested(),
		}
		if res.Found() {
			v.records = []record.Record{res.Scalars().Record}
		}
		return v
	case *result.ManyReadQueryResults:
		return view{
			name:     res.Name(),
			fields:   res.Fields(),
			selected: res.SelectedFields(),
			lists:    res.Lists(),
			nested:   res.Nested(),
			records:  res.Scalars().Records,
		}
	default:
		return view{}
	}
}

type serializer struct {
	// Child records by parent id, per nested result
	groups map[result.ReadQueryResult]map[value.ID][]record.Record
}

// object renders one record of v with its lists and relations.
func (s *serializer) object(v view, rec record.Record) (value.Object, error) {
	obj := make(value.Object, len(v.fields)+len(v.lists)+len(v.nested))
	for i, f := range v.fields {
		if !v.selected.IsExplicit(f) {
			continue
		}
		val, ok := rec.Get(i)
		if !ok {
			return nil, fmt.Errorf("serialize %s: record has no value for %q", v.name, f)
		}
		obj[f] = val
	}

	if len(v.lists) == 0 && len(v.nested) == 0 {
		return obj, nil
	}

	id, ok := recordID(v.fields, rec)
	if !ok {
		return nil, fmt.Errorf("serialize %s: record has no id to attach lists and relations to", v.name)
	}

	for _, l := range v.lists {
		obj[l.Field] = value.NewList(l.ValuesFor(id)...)
	}

	for _, child := range v.nested {
		rel, ok := v.selected.Relation(child.Name())
		if !ok {
			return nil, fmt.Errorf("serialize %s: relation %q was not selected", v.name, child.Name())
		}
		rendered, err := s.relation(child, rel, id)
		if err != nil {
			return nil, err
		}
		obj[rel.Field] = rendered
	}
	return obj, nil
}

// relation renders the records of child that belong to the parent record id.
func (s *serializer) relation(child result.ReadQueryResult, rel queryir.SelectedRelation, parent value.ID) (value.Value, error) {
	cv := viewOf(child)
	recs := s.group(child, cv)[parent]

	if !rel.Many {
		if len(recs) == 0 {
			return value.Null{}, nil
		}
		return s.object(cv, recs[0])
	}

	list := make(value.List, 0, len(recs))
	for _, rec := range recs {
		obj, err := s.object(cv, rec)
		if err != nil {
			return nil, err
		}
		list = append(list, obj)
	}
	return list, nil
}

// group indexes a nested result's records by parent link, keeping record
// order within each parent.
func (s *serializer) group(child result.ReadQueryResult, cv view) map[value.ID][]record.Record {
	if g, ok := s.groups[child]; ok {
		return g
	}
	g := make(map[value.ID][]record.Record)
	for _, rec := range cv.records {
		if rec.ParentID == nil {
			continue
		}
		g[rec.ParentID] = append(g[rec.ParentID], rec)
	}
	s.groups[child] = g
	return g
}

func recordID(fields []string, rec record.Record) (value.ID, bool) {
	pos := record.FieldIndex(fields, result.IDField)
	if pos < 0 {
		return nil, false
	}
	v, ok := rec.Get(pos)
	if !ok {
		return nil, false
	}
	return value.IsID(v)
}
