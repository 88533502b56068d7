// SPDX-License-Identifier: Apache-2.0

package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
)

func TestDecodeTriggerType(t *testing.T) {
	cases := []struct {
		name       string
		tgtype     int16
		isRowLevel bool
		timing     catalog.TriggerTiming
		events     []catalog.TriggerEventKind
	}{
		{
			name:       "row-level before insert or update",
			tgtype:     1<<0 | 1<<1 | 1<<2 | 1<<4,
			isRowLevel: true,
			timing:     catalog.TriggerBefore,
			events:     []catalog.TriggerEventKind{catalog.TriggerEventInsert, catalog.TriggerEventUpdate},
		},
		{
			name:       "statement-level after delete",
			tgtype:     1 << 3,
			isRowLevel: false,
			timing:     catalog.TriggerAfter,
			events:     []catalog.TriggerEventKind{catalog.TriggerEventDelete},
		},
		{
			name:       "instead of on a view",
			tgtype:     1<<0 | 1<<6 | 1<<2,
			isRowLevel: true,
			timing:     catalog.TriggerInsteadOf,
			events:     []catalog.TriggerEventKind{catalog.TriggerEventInsert},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trigger := &catalog.Trigger{}
			decodeTriggerType(tc.tgtype, trigger)
			assert.Equal(t, tc.isRowLevel, trigger.IsRowLevel)
			assert.Equal(t, tc.timing, trigger.Timing)
			var kinds []catalog.TriggerEventKind
			for _, e := range trigger.Events {
				kinds = append(kinds, e.Kind)
			}
			assert.Equal(t, tc.events, kinds)
		})
	}
}

func TestPolicyCommand(t *testing.T) {
	assert.Equal(t, catalog.PolicySelect, policyCommand("r"))
	assert.Equal(t, catalog.PolicyInsert, policyCommand("a"))
	assert.Equal(t, catalog.PolicyUpdate, policyCommand("w"))
	assert.Equal(t, catalog.PolicyDelete, policyCommand("d"))
	assert.Equal(t, catalog.PolicyAll, policyCommand("*"))
}

func TestForeignKeyMatch(t *testing.T) {
	assert.Equal(t, catalog.ForeignKeyMatchFull, foreignKeyMatch("f"))
	assert.Equal(t, catalog.ForeignKeyMatchPartial, foreignKeyMatch("p"))
	assert.Equal(t, catalog.ForeignKeyMatchSimple, foreignKeyMatch("s"))
}

func TestForeignKeyAction(t *testing.T) {
	assert.Equal(t, catalog.ForeignKeyActionRestrict, foreignKeyAction("r"))
	assert.Equal(t, catalog.ForeignKeyActionCascade, foreignKeyAction("c"))
	assert.Equal(t, catalog.ForeignKeyActionSetNull, foreignKeyAction("n"))
	assert.Equal(t, catalog.ForeignKeyActionSetDefault, foreignKeyAction("d"))
	assert.Equal(t, catalog.ForeignKeyActionNoAction, foreignKeyAction("a"))
}

func TestIndexParameters(t *testing.T) {
	p := indexParameters(nil, nil)
	assert.Nil(t, p.Include)
	assert.Nil(t, p.Tablespace)

	tablespace := "pg_default"
	p = indexParameters([]string{"region"}, &tablespace)
	assert.Equal(t, []string{"region"}, p.Include)
	assert.Equal(t, catalog.TableSpace("pg_default"), *p.Tablespace)
}
