// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/ClasicRando/pgdiff/pkg/pgdifferr"
)

// SequenceOptions holds the numeric/boolean clauses of a sequence
// definition, common to CREATE SEQUENCE and identity-column sequences.
type SequenceOptions struct {
	Increment  int64
	MinValue   int64
	MaxValue   int64
	StartValue int64
	Cache      int64
	Cycle      bool
}

func (o SequenceOptions) String() string {
	cycle := "NO"
	if o.Cycle {
		cycle = ""
	}
	return fmt.Sprintf("INCREMENT %d MINVALUE %d MAXVALUE %d START %d CACHE %d %s CYCLE",
		o.Increment, o.MinValue, o.MaxValue, o.StartValue, o.Cache, cycle)
}

func (o SequenceOptions) writeAlterClauses(w io.Writer) error {
	cycle := "NO"
	if o.Cycle {
		cycle = ""
	}
	_, err := fmt.Fprintf(w, "SET INCREMENT %d SET MINVALUE %d SET MAXVALUE %d SET START %d SET CACHE %d SET %s CYCLE",
		o.Increment, o.MinValue, o.MaxValue, o.StartValue, o.Cache, cycle)
	return err
}

// SequenceOwner is the (table, column) pair a sequence is OWNED BY.
type SequenceOwner struct {
	Table  QualifiedName
	Column string
}

func (o SequenceOwner) String() string {
	return fmt.Sprintf("OWNED BY %s.%s", o.Table, o.Column)
}

// Sequence is the catalog representation of a standalone or identity-backed
// sequence.
type Sequence struct {
	QName    QualifiedName
	DataType string
	Owner    *SequenceOwner
	Options  SequenceOptions
	Deps     []QualifiedName
}

var _ Object = (*Sequence)(nil)

func (s *Sequence) Name() QualifiedName          { return s.QName }
func (s *Sequence) KindLabel() string            { return "SEQUENCE" }
func (s *Sequence) Dependencies() []QualifiedName { return s.Deps }

// Create emits the sequence's CREATE statement.
func (s *Sequence) Create(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "CREATE SEQUENCE %s AS %s %s", s.QName.QuotedString(), s.DataType, s.Options); err != nil {
		return err
	}
	if s.Owner != nil {
		_, err := fmt.Fprintf(w, " %s;\n", *s.Owner)
		return err
	}
	_, err := io.WriteString(w, " OWNED BY NONE;\n")
	return err
}

// Alter emits only the ALTER SEQUENCE clauses for fields that actually
// changed, per SPEC_FULL.md 4.1.1.
func (s *Sequence) Alter(newObject Object, w io.Writer) error {
	newSeq, ok := newObject.(*Sequence)
	if !ok {
		return pgdifferr.InvalidMigrationError{ObjectName: s.QName, Reason: "cannot alter a sequence into a non-sequence object"}
	}

	var clauses strings.Builder
	emit := func(format string, args ...any) error {
		fmt.Fprintf(&clauses, format, args...)
		return nil
	}
	if s.DataType != newSeq.DataType {
		if err := emit(" AS %s", newSeq.DataType); err != nil {
			return err
		}
	}
	if s.Options.Increment != newSeq.Options.Increment {
		if err := emit(" INCREMENT %d", newSeq.Options.Increment); err != nil {
			return err
		}
	}
	if s.Options.MinValue != newSeq.Options.MinValue {
		if err := emit(" MINVALUE %d", newSeq.Options.MinValue); err != nil {
			return err
		}
	}
	if s.Options.MaxValue != newSeq.Options.MaxValue {
		if err := emit(" MAXVALUE %d", newSeq.Options.MaxValue); err != nil {
			return err
		}
	}
	if s.Options.StartValue != newSeq.Options.StartValue {
		if err := emit(" START WITH %d", newSeq.Options.StartValue); err != nil {
			return err
		}
	}
	if s.Options.Cache != newSeq.Options.Cache {
		if err := emit(" CACHE %d", newSeq.Options.Cache); err != nil {
			return err
		}
	}
	if s.Options.Cycle != newSeq.Options.Cycle {
		no := "NO "
		if newSeq.Options.Cycle {
			no = ""
		}
		if err := emit(" %sCYCLE", no); err != nil {
			return err
		}
	}
	switch {
	case s.Owner != nil && newSeq.Owner != nil && *s.Owner != *newSeq.Owner:
		if err := emit(" %s", *newSeq.Owner); err != nil {
			return err
		}
	case s.Owner != nil && newSeq.Owner == nil:
		if err := emit(" OWNED BY NONE"); err != nil {
			return err
		}
	case s.Owner == nil && newSeq.Owner != nil:
		if err := emit(" %s", *newSeq.Owner); err != nil {
			return err
		}
	}
	if clauses.Len() == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "ALTER SEQUENCE %s%s;\n", s.QName.QuotedString(), clauses.String())
	return err
}

// Drop emits the sequence's DROP statement.
func (s *Sequence) Drop(w io.Writer) error {
	_, err := fmt.Fprintf(w, "DROP SEQUENCE %s;\n", s.QName.QuotedString())
	return err
}
