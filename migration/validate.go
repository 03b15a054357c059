package migration

import (
	"github.com/labinsight/dbops/migration/model"
	"github.com/rs/zerolog/log"
)

// The validation checklist is fixed: the tables, functions and index naming
// convention the schema migration files are expected to produce, plus the
// subset of tables that must carry row level security policies.
var (
	ExpectedTables = []string{
		"rag_documents",
		"rag_query_logs",
		"rag_feedback",
		"user_sessions",
		"conversation_messages",
		"memory_summaries",
		"user_context",
	}

	ExpectedFunctions = []string{
		"search_rag_documents",
		"search_conversation_memory",
		"get_user_context_similarity",
		"log_rag_query",
	}

	EmbeddingIndexTables = []string{
		"rag_documents",
		"conversation_messages",
		"memory_summaries",
	}

	PolicyTables = []string{
		"rag_documents",
		"user_sessions",
		"conversation_messages",
	}
)

// EmbeddingIndexFilter the substring expected in every vector index name
const EmbeddingIndexFilter = "embedding"

// Validate runs the fixed checklist of catalog queries and returns the
// aggregate report. Missing tables, functions, indexes or policies are
// advisory; each check error is logged as a warning and the remaining
// checks still run. Reads only, no side effects.
func Validate(db DB) (rpt *model.Report) {
	rpt = &model.Report{
		RowCounts: map[string]int{},
	}

	installed, err := db.ExtensionInstalled(VectorExtension)
	if err != nil {
		log.Warn().Err(err).Msg("could not check vector extension")
	}
	rpt.VectorEnabled = installed

	for _, table := range ExpectedTables {
		exists, err := db.TableExists(table)
		if err != nil {
			log.Warn().Err(err).Msgf("could not check table %s", table)
			continue
		}
		if !exists {
			log.Warn().Msgf("expected table %s is missing", table)
			continue
		}

		rpt.Tables = append(rpt.Tables, table)

		count, err := db.TableRowCount(table)
		if err != nil {
			log.Warn().Err(err).Msgf("could not count rows in %s", table)
			continue
		}
		rpt.RowCounts[table] = count
	}

	for _, fn := range ExpectedFunctions {
		exists, err := db.FunctionExists(fn)
		if err != nil {
			log.Warn().Err(err).Msgf("could not check function %s", fn)
			continue
		}
		if !exists {
			log.Warn().Msgf("expected function %s is missing", fn)
			continue
		}
		rpt.Functions = append(rpt.Functions, fn)
	}

	indexes, err := db.IndexNames(EmbeddingIndexTables, EmbeddingIndexFilter)
	if err != nil {
		log.Warn().Err(err).Msg("could not list embedding indexes")
	}
	rpt.Indexes = indexes

	policies, err := db.PolicyNames(PolicyTables)
	if err != nil {
		log.Warn().Err(err).Msg("could not list RLS policies")
	}
	rpt.Policies = policies

	return rpt
}
