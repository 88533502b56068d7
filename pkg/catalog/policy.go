// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/ClasicRando/pgdiff/pkg/pgdifferr"
)

// PolicyCommand is the closed set of commands a row-level security policy
// can apply to.
type PolicyCommand string

const (
	PolicySelect PolicyCommand = "SELECT"
	PolicyInsert PolicyCommand = "INSERT"
	PolicyUpdate PolicyCommand = "UPDATE"
	PolicyDelete PolicyCommand = "DELETE"
	PolicyAll    PolicyCommand = "ALL"
)

// Policy is the catalog representation of a row-level security policy.
type Policy struct {
	PolicyName       string
	QName            QualifiedName
	OwnerTableName   QualifiedName
	IsPermissive     bool
	AppliesTo        []string
	Command          PolicyCommand
	CheckExpression  *string
	UsingExpression  *string
	Columns          []string
	Deps             []QualifiedName
}

var _ Object = (*Policy)(nil)

func (p *Policy) Name() QualifiedName          { return p.QName }
func (p *Policy) KindLabel() string            { return "POLICY" }
func (p *Policy) Dependencies() []QualifiedName { return p.Deps }

// Create emits the policy's CREATE statement.
func (p *Policy) Create(w io.Writer) error {
	permissive := "PERMISSIVE"
	if !p.IsPermissive {
		permissive = "RESTRICTIVE"
	}
	if _, err := fmt.Fprintf(w, "CREATE POLICY %s\n    ON %s\n    AS %s\n    FOR %s\n    TO %s",
		p.PolicyName, p.OwnerTableName.QuotedString(), permissive, p.Command, strings.Join(p.AppliesTo, " ")); err != nil {
		return err
	}
	if p.UsingExpression != nil {
		if _, err := fmt.Fprintf(w, "\n    USING (%s)", *p.UsingExpression); err != nil {
			return err
		}
	}
	if p.CheckExpression != nil {
		if _, err := fmt.Fprintf(w, "\n    WITH CHECK (%s)", *p.CheckExpression); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, ";\n")
	return err
}

// Alter recreates the policy if its permissive flag or command kind
// changed; emits an in-place ALTER POLICY if AppliesTo/using/check actually
// differ; and writes nothing at all when the policy is unchanged.
func (p *Policy) Alter(newObject Object, w io.Writer) error {
	newPolicy, ok := newObject.(*Policy)
	if !ok {
		return pgdifferr.InvalidMigrationError{ObjectName: p.QName, Reason: "cannot alter a policy into a non-policy object"}
	}
	if p.IsPermissive != newPolicy.IsPermissive || p.Command != newPolicy.Command {
		if err := p.Drop(w); err != nil {
			return err
		}
		return newPolicy.Create(w)
	}
	if stringSlicesEqual(p.AppliesTo, newPolicy.AppliesTo) &&
		stringPtrsEqual(p.UsingExpression, newPolicy.UsingExpression) &&
		stringPtrsEqual(p.CheckExpression, newPolicy.CheckExpression) {
		return nil
	}
	if _, err := fmt.Fprintf(w, "ALTER POLICY %s\n    ON %s\n    TO %s",
		p.PolicyName, p.OwnerTableName.QuotedString(), strings.Join(newPolicy.AppliesTo, " ")); err != nil {
		return err
	}
	if newPolicy.UsingExpression != nil {
		if _, err := fmt.Fprintf(w, "\n    USING (%s)", *newPolicy.UsingExpression); err != nil {
			return err
		}
	}
	if newPolicy.CheckExpression != nil {
		if _, err := fmt.Fprintf(w, "\n    WITH CHECK (%s)", *newPolicy.CheckExpression); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, ";\n")
	return err
}

func stringPtrsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Drop emits the policy's DROP statement.
func (p *Policy) Drop(w io.Writer) error {
	_, err := fmt.Fprintf(w, "DROP POLICY %s ON %s;\n", p.PolicyName, p.OwnerTableName.QuotedString())
	return err
}
