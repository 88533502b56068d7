// SPDX-License-Identifier: Apache-2.0

package scrape

import (
	"context"

	"github.com/ClasicRando/pgdiff/pkg/catalog"
	"github.com/ClasicRando/pgdiff/pkg/pgdb"
)

func scrapeTriggers(ctx context.Context, db pgdb.DB) ([]*catalog.Trigger, error) {
	const query = `
SELECT n.nspname, c.relname, tg.tgname,
       tg.tgtype, tg.tgoldtable, tg.tgnewtable,
       pg_get_triggerdef(tg.oid),
       fn.nspname, fp.proname
FROM pg_catalog.pg_trigger tg
JOIN pg_catalog.pg_class c ON c.oid = tg.tgrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
JOIN pg_catalog.pg_proc fp ON fp.oid = tg.tgfoid
JOIN pg_catalog.pg_namespace fn ON fn.oid = fp.pronamespace
WHERE NOT tg.tgisinternal
  AND n.nspname NOT IN ('pg_catalog', 'information_schema')`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, sqlErr(err)
	}
	defer rows.Close()

	var triggers []*catalog.Trigger
	for rows.Next() {
		t := &catalog.Trigger{}
		var ownerTable string
		var tgtype int16
		var oldTransition, newTransition *string
		var def string
		if err := rows.Scan(
			&t.QName.Schema, &ownerTable, &t.TriggerName,
			&tgtype, &oldTransition, &newTransition,
			&def, &t.FunctionName.Schema, &t.FunctionName.Local,
		); err != nil {
			return nil, sqlErr(err)
		}
		t.OwnerTableName = catalog.QualifiedName{Schema: t.QName.Schema, Local: ownerTable}
		t.QName = catalog.QualifiedName{Schema: t.QName.Schema, Local: ownerTable + "." + t.TriggerName}
		t.OldTransitionName = oldTransition
		t.NewTransitionName = newTransition
		decodeTriggerType(tgtype, t)
		t.Deps = []catalog.QualifiedName{t.OwnerTableName, t.FunctionName}
		triggers = append(triggers, t)
	}
	return triggers, sqlErr(rows.Err())
}

// decodeTriggerType decodes the pg_trigger.tgtype bitmask (TRIGGER_TYPE_*
// from postgres' trigger.h) into the Timing/Events/IsRowLevel fields.
func decodeTriggerType(tgtype int16, t *catalog.Trigger) {
	const (
		row       = 1 << 0
		before    = 1 << 1
		insert    = 1 << 2
		del       = 1 << 3
		update    = 1 << 4
		truncate  = 1 << 5
		instead   = 1 << 6
	)
	t.IsRowLevel = tgtype&row != 0
	switch {
	case tgtype&instead != 0:
		t.Timing = catalog.TriggerInsteadOf
	case tgtype&before != 0:
		t.Timing = catalog.TriggerBefore
	default:
		t.Timing = catalog.TriggerAfter
	}
	if tgtype&insert != 0 {
		t.Events = append(t.Events, catalog.TriggerEvent{Kind: catalog.TriggerEventInsert})
	}
	if tgtype&update != 0 {
		t.Events = append(t.Events, catalog.TriggerEvent{Kind: catalog.TriggerEventUpdate})
	}
	if tgtype&del != 0 {
		t.Events = append(t.Events, catalog.TriggerEvent{Kind: catalog.TriggerEventDelete})
	}
	if tgtype&truncate != 0 {
		t.Events = append(t.Events, catalog.TriggerEvent{Kind: catalog.TriggerEventTruncate})
	}
}
