// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
)

func name(raw string) catalog.QualifiedName {
	return catalog.NewQualifiedName(raw)
}

func TestStatementIterOrdersByDependency(t *testing.T) {
	orders := &Statement{Text: "create table orders", Object: name("public.orders"), Dependencies: []catalog.QualifiedName{name("public.customers")}}
	customers := &Statement{Text: "create table customers", Object: name("public.customers")}
	fk := &Statement{Text: "alter table orders add constraint fk", Object: name("public.orders.fk_customer"), Dependencies: []catalog.QualifiedName{name("public.orders"), name("public.customers")}}

	iter := newStatementIter([]*Statement{orders, fk, customers})

	var applied []string
	for {
		s, ok := iter.next()
		if !ok {
			break
		}
		applied = append(applied, s.Object.String())
	}

	assert.Equal(t, []string{"public.customers", "public.orders", "public.orders.fk_customer"}, applied)
}

func TestStatementIterRetriesFailedStatements(t *testing.T) {
	a := &Statement{Text: "create view v as select * from t", Object: name("public.v"), Dependencies: []catalog.QualifiedName{name("public.t")}}
	b := &Statement{Text: "create table t", Object: name("public.t")}

	iter := newStatementIter([]*Statement{a, b})

	first, ok := iter.next()
	assert.True(t, ok)
	assert.Equal(t, "public.t", first.Object.String())

	second, ok := iter.next()
	assert.True(t, ok)
	assert.Equal(t, "public.v", second.Object.String())

	// simulate the second statement failing to apply: park it back and make
	// sure the iterator still eventually hands it back out instead of
	// dropping it.
	iter.addBackFailed(second)
	assert.True(t, iter.hasRemaining())

	third, ok := iter.next()
	assert.True(t, ok)
	assert.Equal(t, "public.v", third.Object.String())
	assert.False(t, iter.hasRemaining())
}

func TestStatementIterGivesUpOnAStatementThatNeverSucceeds(t *testing.T) {
	broken := &Statement{Text: "create trigger t on missing_table", Object: name("public.t")}

	iter := newStatementIter([]*Statement{broken})

	first, ok := iter.next()
	assert.True(t, ok)
	assert.Equal(t, "public.t", first.Object.String())
	iter.addBackFailed(first)

	// A lone statement that keeps failing never makes progress, so a full
	// rotation of the failed queue should terminate rather than loop
	// forever retrying it.
	rotations := 0
	for {
		s, ok := iter.next()
		if !ok {
			break
		}
		iter.addBackFailed(s)
		rotations++
		if rotations > 10 {
			t.Fatal("statementIter did not terminate on a permanently failing statement")
		}
	}

	remaining := iter.takeRemaining()
	assert.Len(t, remaining, 1)
	assert.False(t, iter.hasRemaining())
}
