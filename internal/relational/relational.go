// Package relational implements the Postgres/pgvector-backed
// RelationalStore: a schema mirror of the knowledge graph plus the chunk
// embedding column and fallback SQL surface (spec.md §4.6).
package relational

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wk-archive/meetingmind/internal/apperr"
	"github.com/wk-archive/meetingmind/internal/types"
)

// chunkRow mirrors types.Chunk with an added pgvector embedding column;
// the domain type's []float32 embedding is tagged gorm:"-" and so is not
// stored by GORM, so the store keeps its own row shape for that column.
type chunkRow struct {
	types.Chunk
	Embedding pgvector.Vector `gorm:"type:vector"`
}

func (chunkRow) TableName() string { return "chunks" }

// Store implements interfaces.RelationalStore over a *gorm.DB.
type Store struct {
	db *gorm.DB
}

// New wraps an already-migrated *gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// UpsertSource upserts one Source row, keyed by id, bumping last_seen.
func (s *Store) UpsertSource(ctx context.Context, source types.Source) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "content_hash", "confidentiality_level", "document_status", "tags", "raw_payload", "last_seen"}),
	}).Create(&source).Error
	if err != nil {
		return fmt.Errorf("%w: upsert source %s: %v", apperr.ErrTransientExternal, source.ID, err)
	}
	return nil
}

// UpsertChunks upserts Chunk rows, writing the pgvector embedding column
// when the chunk's Embedding is non-nil (spec.md §4.5).
func (s *Store) UpsertChunks(ctx context.Context, chunks []types.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]chunkRow, 0, len(chunks))
	for _, c := range chunks {
		row := chunkRow{Chunk: c}
		if c.Embedding != nil {
			row.Embedding = pgvector.NewVector(c.Embedding)
		}
		rows = append(rows, row)
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sequence_number", "speakers", "kind", "text", "importance_score", "embedding"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("%w: upsert chunks: %v", apperr.ErrTransientExternal, err)
	}
	return nil
}

// UpsertEntities upserts Entity rows. effectiveDate is the source's
// EffectiveDate, not wall-clock time: first_mentioned/last_mentioned are
// recomputed as a min/max against it in the conflict clause's raw SQL, so
// the MENTIONS invariant first_mentioned <= source.date <= last_mentioned
// holds regardless of ingestion order, and mention_count is a set-union
// sum rather than an overwrite.
func (s *Store) UpsertEntities(ctx context.Context, entities []types.Entity, effectiveDate time.Time) error {
	if len(entities) == 0 {
		return nil
	}
	for _, e := range entities {
		err := s.db.WithContext(ctx).Exec(`
			INSERT INTO entities (id, normalized_name, canonical_name, type, first_mentioned, last_mentioned, mention_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				first_mentioned = LEAST(entities.first_mentioned, EXCLUDED.first_mentioned),
				last_mentioned = GREATEST(entities.last_mentioned, EXCLUDED.last_mentioned),
				mention_count = entities.mention_count + EXCLUDED.mention_count
		`, e.ID, e.NormalizedName, e.CanonicalName, string(e.Type), effectiveDate, effectiveDate, e.MentionCount).Error
		if err != nil {
			return fmt.Errorf("%w: upsert entity %s: %v", apperr.ErrTransientExternal, e.ID, err)
		}
	}
	return nil
}

// UpsertDecisions upserts Decision rows.
func (s *Store) UpsertDecisions(ctx context.Context, decisions []types.Decision) error {
	if len(decisions) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "rationale", "status", "source_chunk_ids"}),
	}).Create(&decisions).Error
	if err != nil {
		return fmt.Errorf("%w: upsert decisions: %v", apperr.ErrTransientExternal, err)
	}
	return nil
}

// UpsertActions upserts Action rows.
func (s *Store) UpsertActions(ctx context.Context, actions []types.Action) error {
	if len(actions) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "owner_entity_id", "priority", "status", "source_chunk_ids"}),
	}).Create(&actions).Error
	if err != nil {
		return fmt.Errorf("%w: upsert actions: %v", apperr.ErrTransientExternal, err)
	}
	return nil
}

// SearchByVector runs an ivfflat-backed nearest-neighbor search, filtering
// out chunks belonging to sources more confidential than
// minConfidentiality's caller-resolved ceiling.
func (s *Store) SearchByVector(ctx context.Context, embedding []float32, topK int, minConfidentiality types.ConfidentialityLevel) ([]types.Chunk, error) {
	rankCase := `CASE sources.confidentiality_level
		WHEN 'PUBLIC' THEN 0 WHEN 'INTERNAL' THEN 1 WHEN 'CONFIDENTIAL' THEN 2 WHEN 'RESTRICTED' THEN 3 ELSE 1 END`
	maxRank := map[types.ConfidentialityLevel]int{
		types.ConfidentialityPublic: 0, types.ConfidentialityInternal: 1,
		types.ConfidentialityConfidential: 2, types.ConfidentialityRestricted: 3,
	}[minConfidentiality]

	var rows []chunkRow
	err := s.db.WithContext(ctx).
		Table("chunks").
		Joins("JOIN sources ON sources.id = chunks.source_id").
		Where(rankCase+" <= ?", maxRank).
		Order(gorm.Expr("chunks.embedding <-> ?", pgvector.NewVector(embedding))).
		Limit(topK).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %v", apperr.ErrTransientExternal, err)
	}
	out := make([]types.Chunk, len(rows))
	for i, r := range rows {
		out[i] = r.Chunk
	}
	return out, nil
}

// ExecuteReadOnlySQL runs a caller-supplied, pre-validated SELECT statement
// (validation lives in the search_content tool's pg_query_go-backed
// checker, not here) and returns the result rows as generic maps.
func (s *Store) ExecuteReadOnlySQL(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("%w: execute read-only sql: %v", apperr.ErrTransientExternal, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		pointers := make([]any, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, nil
}

// UpsertTelemetrySession mirrors one session_end summary row, keyed by
// session id, so success rates can be queried with SQL alongside the
// append-only JSONL log.
func (s *Store) UpsertTelemetrySession(ctx context.Context, summary types.TelemetrySessionSummary) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"outcome", "duration_ms", "ended_at"}),
	}).Create(&summary).Error
	if err != nil {
		return fmt.Errorf("%w: upsert telemetry session %s: %v", apperr.ErrTransientExternal, summary.SessionID, err)
	}
	return nil
}

// Ping verifies the underlying connection pool can reach Postgres.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: obtain sql.DB: %v", apperr.ErrInternalInvariant, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: postgres ping: %v", apperr.ErrTransientExternal, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
