package backup

import (
	"github.com/rs/zerolog/log"
)

// Replay upserts the captured rows into the post-migration schema. Conflicts
// on the table's conflict column are ignored, so replaying the same snapshot
// twice yields the same row count. A failure on one table is logged and does
// not stop the remaining tables.
func Replay(db DB, tables []Table, snap *Snapshot) (resList []TableResult) {
	for _, t := range tables {
		res := TableResult{Table: t.Name}

		rows := snap.Tables[t.Name]
		if len(rows) == 0 {
			res.Skipped = true
			resList = append(resList, res)
			continue
		}

		n, err := db.UpsertIgnore(t.Name, t.ConflictColumn, rows)
		res.Rows = n
		if err != nil {
			res.Err = err.Error()
			log.Warn().Err(err).Msgf("data replay for %s stopped after %d rows", t.Name, n)
			resList = append(resList, res)
			continue
		}

		log.Info().Msgf("migrated %d records into %s", n, t.Name)
		resList = append(resList, res)
	}

	return resList
}
