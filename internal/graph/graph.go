// Package graph implements the Neo4j-backed GraphStore: idempotent
// MERGE-based upserts for Source/Chunk/Entity/Decision/Action and their
// edges (spec.md §4.5).
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"

	"github.com/wk-archive/meetingmind/internal/apperr"
	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/types"
)

// Store implements interfaces.GraphStore over a neo4j.Driver.
type Store struct {
	driver   neo4j.Driver
	database string
}

// New wraps an already-configured Neo4j driver, targeting the given
// database name (empty string means the driver default).
func New(driver neo4j.Driver, database string) *Store {
	return &Store{driver: driver, database: database}
}

func (s *Store) session(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
}

// UpsertSource merges one Source node keyed by id, never clobbering
// created_at on re-ingest.
func (s *Store) UpsertSource(ctx context.Context, source types.Source) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (s:Source {id: $id})
			ON CREATE SET s.created_at = $now
			SET s.external_file_id = $external_file_id,
			    s.content_hash = $content_hash,
			    s.kind = $kind,
			    s.title = $title,
			    s.effective_date = $effective_date,
			    s.confidentiality_level = $confidentiality_level,
			    s.document_status = $document_status,
			    s.tags = $tags,
			    s.last_seen = $now
		`, map[string]any{
			"id":                     source.ID,
			"external_file_id":       source.ExternalFileID,
			"content_hash":           source.ContentHash,
			"kind":                   string(source.Kind),
			"title":                  source.Title,
			"effective_date":         source.EffectiveDate.Format("2006-01-02"),
			"confidentiality_level":  string(source.ConfidentialityLevel),
			"document_status":        string(source.DocumentStatus),
			"tags":                   source.Tags,
			"now":                    source.LastSeen.Format("2006-01-02T15:04:05Z"),
		})
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("%w: upsert source %s: %v", apperr.ErrTransientExternal, source.ID, err)
	}
	return nil
}

// UpsertChunks merges Chunk nodes and their PART_OF edge to the Source, plus
// NEXT edges between sequential chunks.
func (s *Store) UpsertChunks(ctx context.Context, sourceID string, chunks []types.Chunk) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, c := range chunks {
			_, err := tx.Run(ctx, `
				MATCH (s:Source {id: $source_id})
				MERGE (c:Chunk {id: $id})
				SET c.sequence_number = $sequence_number,
				    c.speakers = $speakers,
				    c.kind = $kind,
				    c.text = $text,
				    c.importance_score = $importance_score
				MERGE (c)-[:PART_OF]->(s)
			`, map[string]any{
				"source_id":        sourceID,
				"id":               c.ID,
				"sequence_number":  c.SequenceNumber,
				"speakers":         c.Speakers,
				"kind":             string(c.Kind),
				"text":             c.Text,
				"importance_score": c.ImportanceScore,
			})
			if err != nil {
				return nil, err
			}
		}
		for i := 0; i < len(chunks)-1; i++ {
			if !chunks[i].NextSequence(chunks[i+1]) {
				continue
			}
			_, err := tx.Run(ctx, `
				MATCH (a:Chunk {id: $a}), (b:Chunk {id: $b})
				MERGE (a)-[:NEXT]->(b)
			`, map[string]any{"a": chunks[i].ID, "b": chunks[i+1].ID})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: upsert chunks for source %s: %v", apperr.ErrTransientExternal, sourceID, err)
	}
	return nil
}

// UpsertEntities merges Entity nodes keyed by (normalized_name, type),
// recomputing mention_count/first_mentioned/last_mentioned as a
// set-union/min/max against effectiveDate (the source's EffectiveDate, not
// wall-clock time) rather than overwriting with older values, so the
// MENTIONS invariant first_mentioned <= source.date <= last_mentioned holds
// regardless of ingestion order.
func (s *Store) UpsertEntities(ctx context.Context, entities []types.Entity, effectiveDate time.Time) error {
	if len(entities) == 0 {
		return nil
	}
	session := s.session(ctx)
	defer session.Close(ctx)

	at := stamp(effectiveDate)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, e := range entities {
			_, err := tx.Run(ctx, `
				MERGE (n:Entity {id: $id})
				ON CREATE SET n.first_mentioned = $at, n.last_mentioned = $at, n.mention_count = 0
				SET n.normalized_name = $normalized_name,
				    n.canonical_name = $canonical_name,
				    n.type = $type,
				    n.first_mentioned = CASE WHEN n.first_mentioned > $at THEN $at ELSE n.first_mentioned END,
				    n.last_mentioned = CASE WHEN n.last_mentioned < $at THEN $at ELSE n.last_mentioned END,
				    n.mention_count = coalesce(n.mention_count, 0) + $mention_count
			`, map[string]any{
				"id":              e.ID,
				"normalized_name": e.NormalizedName,
				"canonical_name":  e.CanonicalName,
				"type":            string(e.Type),
				"mention_count":   e.MentionCount,
				"at":              at,
			})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: upsert entities: %v", apperr.ErrTransientExternal, err)
	}
	return nil
}

// UpsertDecisions merges Decision nodes and RESULTED_IN edges from their
// source chunks.
func (s *Store) UpsertDecisions(ctx context.Context, decisions []types.Decision) error {
	if len(decisions) == 0 {
		return nil
	}
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, d := range decisions {
			if d.ID == "" {
				d.ID = decisionID(d)
			}
			_, err := tx.Run(ctx, `
				MERGE (n:Decision {id: $id})
				SET n.description = $description, n.rationale = $rationale, n.status = $status
				WITH n
				UNWIND $chunk_ids AS cid
				MATCH (c:Chunk {id: cid})
				MERGE (c)-[:RESULTED_IN]->(n)
			`, map[string]any{
				"id": d.ID, "description": d.Description, "rationale": d.Rationale,
				"status": string(d.Status), "chunk_ids": d.SourceChunkIDs,
			})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: upsert decisions: %v", apperr.ErrTransientExternal, err)
	}
	return nil
}

// UpsertActions merges Action nodes, RESULTED_IN edges from source chunks,
// and PARTICIPATES_IN edges to their owner Entity when known.
func (s *Store) UpsertActions(ctx context.Context, actions []types.Action) error {
	if len(actions) == 0 {
		return nil
	}
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, a := range actions {
			if a.ID == "" {
				a.ID = actionID(a)
			}
			_, err := tx.Run(ctx, `
				MERGE (n:Action {id: $id})
				SET n.description = $description, n.priority = $priority, n.status = $status
				WITH n
				UNWIND $chunk_ids AS cid
				MATCH (c:Chunk {id: cid})
				MERGE (c)-[:RESULTED_IN]->(n)
			`, map[string]any{
				"id": a.ID, "description": a.Description, "priority": a.Priority,
				"status": string(a.Status), "chunk_ids": a.SourceChunkIDs,
			})
			if err != nil {
				return nil, err
			}
			if a.OwnerEntityID == "" {
				continue
			}
			if _, err := tx.Run(ctx, `
				MATCH (n:Action {id: $action_id}), (e:Entity {id: $entity_id})
				MERGE (e)-[:PARTICIPATES_IN]->(n)
			`, map[string]any{"action_id": a.ID, "entity_id": a.OwnerEntityID}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: upsert actions: %v", apperr.ErrTransientExternal, err)
	}
	return nil
}

// LinkMentions merges MENTIONS edges from each chunk to the entities it
// references, keyed by entity id (spec.md §4.2's Mentions map).
func (s *Store) LinkMentions(ctx context.Context, mentions map[string][]string) error {
	if len(mentions) == 0 {
		return nil
	}
	session := s.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for chunkID, entityIDs := range mentions {
			_, err := tx.Run(ctx, `
				MATCH (c:Chunk {id: $chunk_id})
				UNWIND $entity_ids AS eid
				MATCH (e:Entity {id: eid})
				MERGE (c)-[:MENTIONS]->(e)
			`, map[string]any{"chunk_id": chunkID, "entity_ids": entityIDs})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: link mentions: %v", apperr.ErrTransientExternal, err)
	}
	return nil
}

// ExecuteCypher runs an arbitrary read query, used by QuerySubAgent's
// execute_graph_query tool.
func (s *Store) ExecuteCypher(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: s.database})
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		var out []map[string]any
		for result.Next(ctx) {
			record := result.Record()
			row := make(map[string]any, len(record.Keys))
			for _, key := range record.Keys {
				v, _ := record.Get(key)
				row[key] = v
			}
			out = append(out, row)
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: execute cypher: %v", apperr.ErrTransientExternal, err)
	}
	return rows.([]map[string]any), nil
}

// Ping verifies connectivity to the Neo4j server.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		logger.GetLogger(ctx).Warnf("neo4j connectivity check failed: %v", err)
		return fmt.Errorf("%w: neo4j ping: %v", apperr.ErrTransientExternal, err)
	}
	return nil
}

// Close releases the underlying driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func decisionID(d types.Decision) string {
	return "decision:" + d.Description
}

func actionID(a types.Action) string {
	return "action:" + a.Description
}

func stamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
