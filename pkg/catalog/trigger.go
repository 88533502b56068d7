// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/ClasicRando/pgdiff/pkg/pgdifferr"
)

// TriggerTiming is the closed set of trigger firing times.
type TriggerTiming string

const (
	TriggerBefore    TriggerTiming = "BEFORE"
	TriggerAfter     TriggerTiming = "AFTER"
	TriggerInsteadOf TriggerTiming = "INSTEAD OF"
)

// TriggerEventKind is the closed set of events a trigger can fire on.
type TriggerEventKind string

const (
	TriggerEventInsert   TriggerEventKind = "insert"
	TriggerEventUpdate   TriggerEventKind = "update"
	TriggerEventDelete   TriggerEventKind = "delete"
	TriggerEventTruncate TriggerEventKind = "truncate"
)

// TriggerEvent is one UPDATE/INSERT/DELETE/TRUNCATE clause of a trigger's
// firing condition. Columns is only meaningful for TriggerEventUpdate.
type TriggerEvent struct {
	Kind    TriggerEventKind
	Columns []string
}

func (e TriggerEvent) String() string {
	switch e.Kind {
	case TriggerEventInsert:
		return "INSERT"
	case TriggerEventUpdate:
		if len(e.Columns) > 0 {
			return "UPDATE OF " + strings.Join(e.Columns, ",")
		}
		return "UPDATE"
	case TriggerEventDelete:
		return "DELETE"
	case TriggerEventTruncate:
		return "TRUNCATE"
	default:
		return string(e.Kind)
	}
}

// Trigger is the catalog representation of a table trigger.
type Trigger struct {
	TriggerName         string
	QName                QualifiedName
	OwnerTableName        QualifiedName
	Timing                TriggerTiming
	Events                []TriggerEvent
	OldTransitionName     *string
	NewTransitionName     *string
	IsRowLevel            bool
	WhenExpression        *string
	FunctionName          QualifiedName
	FunctionArgs          []string
	Deps                  []QualifiedName
}

var _ Object = (*Trigger)(nil)

func (t *Trigger) Name() QualifiedName          { return t.QName }
func (t *Trigger) KindLabel() string            { return "TRIGGER" }
func (t *Trigger) Dependencies() []QualifiedName { return t.Deps }

// Create emits the trigger's CREATE statement.
func (t *Trigger) Create(w io.Writer) error {
	events := make([]string, len(t.Events))
	for i, e := range t.Events {
		events[i] = e.String()
	}
	if _, err := fmt.Fprintf(w, "CREATE TRIGGER %s %s %s\nON %s", t.TriggerName, t.Timing, strings.Join(events, " "), t.OwnerTableName.QuotedString()); err != nil {
		return err
	}
	if t.OldTransitionName != nil || t.NewTransitionName != nil {
		if _, err := io.WriteString(w, "\nREFERENCING"); err != nil {
			return err
		}
	}
	if t.OldTransitionName != nil {
		if _, err := fmt.Fprintf(w, " OLD TABLE AS %s", *t.OldTransitionName); err != nil {
			return err
		}
	}
	if t.NewTransitionName != nil {
		if _, err := fmt.Fprintf(w, " NEW TABLE AS %s", *t.NewTransitionName); err != nil {
			return err
		}
	}
	level := "STATEMENT"
	if t.IsRowLevel {
		level = "ROW"
	}
	if _, err := fmt.Fprintf(w, "\nFOR EACH %s", level); err != nil {
		return err
	}
	if t.WhenExpression != nil {
		if _, err := fmt.Fprintf(w, "\nWHEN %s", *t.WhenExpression); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\nEXECUTE FUNCTION %s(", t.FunctionName); err != nil {
		return err
	}
	if len(t.FunctionArgs) > 0 {
		quoted := make([]string, len(t.FunctionArgs))
		for i, a := range t.FunctionArgs {
			quoted[i] = a
		}
		if _, err := fmt.Fprintf(w, "'%s'", strings.Join(quoted, "','")); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, ");\n")
	return err
}

// Alter recreates the trigger: any difference between two trigger
// definitions requires a drop and re-create. Identical definitions emit
// nothing.
func (t *Trigger) Alter(newObject Object, w io.Writer) error {
	newTrigger, ok := newObject.(*Trigger)
	if !ok {
		return pgdifferr.InvalidMigrationError{ObjectName: t.QName, Reason: "cannot alter a trigger into a non-trigger object"}
	}
	var oldDef, newDef strings.Builder
	if err := t.Create(&oldDef); err != nil {
		return err
	}
	if err := newTrigger.Create(&newDef); err != nil {
		return err
	}
	if oldDef.String() == newDef.String() {
		return nil
	}
	if err := t.Drop(w); err != nil {
		return err
	}
	return newTrigger.Create(w)
}

// Drop emits the trigger's DROP statement.
func (t *Trigger) Drop(w io.Writer) error {
	_, err := fmt.Fprintf(w, "DROP TRIGGER %s ON %s;\n", t.TriggerName, t.OwnerTableName.QuotedString())
	return err
}
