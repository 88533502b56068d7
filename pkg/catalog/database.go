// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Database is the full set of catalog objects scraped from, or read back
// out of, one PostgreSQL database. It excludes the public schema, which is
// already present in every fresh database; objects owned by an extension
// are not excluded.
type Database struct {
	Schemas     []*Schema
	Extensions  []*Extension
	Udts        []*Udt
	Tables      []*Table
	Constraints []*Constraint
	Indexes     []*Index
	Triggers    []*Trigger
	Policies    []*Policy
	Views       []*View
	Sequences   []*Sequence
	Functions   []*Function
}

// kindGroups returns every kind's objects in the dependency-ordering
// precedence from SPEC_FULL.md 4.4: schemas, extensions, udts, tables,
// constraints, indexes, triggers, policies, views, sequences, functions.
func (d *Database) kindGroups() [][]Object {
	toObjects := func(objs any) []Object {
		switch v := objs.(type) {
		case []*Schema:
			out := make([]Object, len(v))
			for i, o := range v {
				out[i] = o
			}
			return out
		case []*Extension:
			out := make([]Object, len(v))
			for i, o := range v {
				out[i] = o
			}
			return out
		case []*Udt:
			out := make([]Object, len(v))
			for i, o := range v {
				out[i] = o
			}
			return out
		case []*Table:
			out := make([]Object, len(v))
			for i, o := range v {
				out[i] = o
			}
			return out
		case []*Constraint:
			out := make([]Object, len(v))
			for i, o := range v {
				out[i] = o
			}
			return out
		case []*Index:
			out := make([]Object, len(v))
			for i, o := range v {
				out[i] = o
			}
			return out
		case []*Trigger:
			out := make([]Object, len(v))
			for i, o := range v {
				out[i] = o
			}
			return out
		case []*Policy:
			out := make([]Object, len(v))
			for i, o := range v {
				out[i] = o
			}
			return out
		case []*View:
			out := make([]Object, len(v))
			for i, o := range v {
				out[i] = o
			}
			return out
		case []*Sequence:
			out := make([]Object, len(v))
			for i, o := range v {
				out[i] = o
			}
			return out
		case []*Function:
			out := make([]Object, len(v))
			for i, o := range v {
				out[i] = o
			}
			return out
		default:
			return nil
		}
	}
	return [][]Object{
		toObjects(d.Schemas),
		toObjects(d.Extensions),
		toObjects(d.Udts),
		toObjects(d.Tables),
		toObjects(d.Constraints),
		toObjects(d.Indexes),
		toObjects(d.Triggers),
		toObjects(d.Policies),
		toObjects(d.Views),
		toObjects(d.Sequences),
		toObjects(d.Functions),
	}
}

// dbIter walks a Database's objects in an order that respects both kind
// precedence and each object's own Dependencies: within a call to next, the
// earliest kind with at least one object whose dependencies are already
// satisfied wins, even if later objects of an earlier kind are still
// blocked (mirroring the reference implementation's per-kind fallthrough).
type dbIter struct {
	groups          [][]Object
	completedCounts []int
	completedNames  map[string]bool
}

func newDbIter(d *Database) *dbIter {
	groups := d.kindGroups()
	return &dbIter{
		groups:          groups,
		completedCounts: make([]int, len(groups)),
		completedNames:  make(map[string]bool),
	}
}

func depsMet(obj Object, completed map[string]bool) bool {
	for _, dep := range obj.Dependencies() {
		if !completed[dep.String()] {
			return false
		}
	}
	return true
}

// next returns the next object to yield along with the index of the kind
// group it came from, or ok=false once every group is exhausted.
func (it *dbIter) next() (obj Object, groupIndex int, ok bool) {
	for gi, group := range it.groups {
		if it.completedCounts[gi] >= len(group) {
			continue
		}
		for _, candidate := range group {
			name := candidate.Name().String()
			if it.completedNames[name] {
				continue
			}
			if !depsMet(candidate, it.completedNames) {
				continue
			}
			it.completedCounts[gi]++
			it.completedNames[name] = true
			return candidate, gi, true
		}
	}
	return nil, -1, false
}

func (it *dbIter) markCompleted(obj Object, groupIndex int) {
	it.completedCounts[groupIndex]++
	it.completedNames[obj.Name().String()] = true
}

// CompareAction is the closed set of outcomes the differ can produce for a
// single catalog object.
type CompareAction string

const (
	ActionCreate CompareAction = "create"
	ActionAlter  CompareAction = "alter"
	ActionDrop   CompareAction = "drop"
)

// CompareResult is one step of a migration plan: a create, an alter (with
// both the old and new states), or a drop.
type CompareResult struct {
	Action CompareAction
	Old    Object
	New    Object
}

// Compare walks old (the current database state) against new (the desired
// state, typically scraped from the staging database after applying every
// source control file) and produces the ordered sequence of creates,
// alters, and drops needed to migrate old into new. A name-matched pair
// whose Alter renders no statements (nothing actually differs) is omitted,
// so comparing two databases already in sync yields an empty result.
func Compare(old, new *Database) ([]CompareResult, error) {
	oldIter := newDbIter(old)
	newIter := newDbIter(new)
	var results []CompareResult
	isDoneOld := false
	for {
		if isDoneOld {
			obj, _, ok := newIter.next()
			if !ok {
				break
			}
			results = append(results, CompareResult{Action: ActionCreate, New: obj})
			continue
		}
		obj, gi, ok := oldIter.next()
		if !ok {
			isDoneOld = true
			continue
		}
		var match Object
		for _, candidate := range newIter.groups[gi] {
			if candidate.Name() == obj.Name() {
				match = candidate
				break
			}
		}
		if match != nil {
			newIter.markCompleted(match, gi)
			var buf bytes.Buffer
			if err := obj.Alter(match, &buf); err != nil {
				return nil, err
			} else if buf.Len() > 0 {
				results = append(results, CompareResult{Action: ActionAlter, Old: obj, New: match})
			}
			continue
		}
		results = append(results, CompareResult{Action: ActionDrop, Old: obj})
	}
	return results, nil
}

// WriteMigrationScript renders every CompareResult as its corresponding
// CREATE/ALTER/DROP statement(s), in order, into w.
func WriteMigrationScript(results []CompareResult, w *bytes.Buffer) error {
	for _, r := range results {
		switch r.Action {
		case ActionCreate:
			if err := r.New.Create(w); err != nil {
				return err
			}
		case ActionAlter:
			if err := r.Old.Alter(r.New, w); err != nil {
				return err
			}
		case ActionDrop:
			if err := r.Old.Drop(w); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown compare action %q", r.Action)
		}
	}
	return nil
}

// ScriptOut writes one file per scraped object under outputPath, organized
// into a subdirectory per lowercased kind label. Constraints, indexes,
// triggers and policies owned by a table are appended to that table's file
// instead of getting a file of their own; a sequence OWNED BY a column is
// appended to its owning table's file the same way.
func (d *Database) ScriptOut(outputPath string) error {
	for _, schema := range d.Schemas {
		if err := writeObjectFile(schema, outputPath); err != nil {
			return err
		}
	}
	for _, extension := range d.Extensions {
		if err := writeObjectFile(extension, outputPath); err != nil {
			return err
		}
	}
	for _, udt := range d.Udts {
		if err := writeObjectFile(udt, outputPath); err != nil {
			return err
		}
	}
	for _, table := range d.Tables {
		if err := writeObjectFile(table, outputPath); err != nil {
			return err
		}
		for _, c := range d.Constraints {
			if c.OwnerTableName != table.QName {
				continue
			}
			if err := appendObjectFile(c, table.QName, outputPath); err != nil {
				return err
			}
		}
		for _, idx := range d.Indexes {
			if idx.OwnerTableName != table.QName {
				continue
			}
			if err := appendObjectFile(idx, table.QName, outputPath); err != nil {
				return err
			}
		}
		for _, t := range d.Triggers {
			if t.OwnerTableName != table.QName {
				continue
			}
			if err := appendObjectFile(t, table.QName, outputPath); err != nil {
				return err
			}
		}
		for _, p := range d.Policies {
			if p.OwnerTableName != table.QName {
				continue
			}
			if err := appendObjectFile(p, table.QName, outputPath); err != nil {
				return err
			}
		}
	}
	for _, view := range d.Views {
		if err := writeObjectFile(view, outputPath); err != nil {
			return err
		}
	}
	for _, seq := range d.Sequences {
		if seq.Owner != nil {
			if err := appendObjectFile(seq, seq.Owner.Table, outputPath); err != nil {
				return err
			}
			continue
		}
		if err := writeObjectFile(seq, outputPath); err != nil {
			return err
		}
	}
	for _, fn := range d.Functions {
		if err := writeObjectFile(fn, outputPath); err != nil {
			return err
		}
	}
	return nil
}

func objectFilePath(outputPath string, kindLabel string, name QualifiedName) string {
	dir := filepath.Join(outputPath, strings.ToLower(kindLabel))
	file := name.Local
	if name.Schema != "" && name.Local != "" {
		file = name.Schema + "." + name.Local
	} else if name.Local == "" {
		file = name.Schema
	}
	return filepath.Join(dir, file+".pgsql")
}

func writeObjectFile(object Object, outputPath string) error {
	path := objectFilePath(outputPath, object.KindLabel(), object.Name())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := object.Create(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func appendObjectFile(object Object, ownerTable QualifiedName, outputPath string) error {
	path := objectFilePath(outputPath, "table", ownerTable)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString("\n")
	if err := object.Create(&buf); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(buf.Bytes())
	return err
}
