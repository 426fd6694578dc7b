package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"trendpulse/internal/models"
)

// writeColumns is the writer's column set under the active schema.
func (d *DB) writeColumns() []string {
	cols := []string{"keyword", "score", "topic", "source", "timestamp"}
	if d.schema.DayBucket {
		cols = append(cols, "day_bucket")
	}
	if d.schema.ExtendedFields {
		cols = append(cols, "topic_cluster", "intent", "keyword_hash")
	}
	return cols
}

// recordArgs orders a record's values to match cols.
func recordArgs(rec models.KeywordRecord, cols []string) []any {
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		switch col {
		case "keyword":
			args = append(args, rec.Keyword)
		case "score":
			args = append(args, rec.Score)
		case "topic":
			args = append(args, rec.Topic)
		case "source":
			args = append(args, rec.Source)
		case "timestamp":
			args = append(args, rec.Timestamp)
		case "day_bucket":
			day, err := time.Parse("2006-01-02", rec.DayBucket)
			if err != nil {
				day = rec.Timestamp.UTC().Truncate(24 * time.Hour)
			}
			args = append(args, day)
		case "topic_cluster":
			args = append(args, rec.TopicCluster)
		case "intent":
			args = append(args, rec.Intent)
		case "keyword_hash":
			args = append(args, rec.KeywordHash)
		}
	}
	return args
}

// buildInsert assembles a multi-row INSERT for n records over cols, with an
// optional ON CONFLICT suffix.
func buildInsert(cols []string, n int, suffix string) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO trend_keywords (")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(") VALUES ")

	idx := 1
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range cols {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(idx))
			idx++
		}
		sb.WriteByte(')')
	}
	if suffix != "" {
		sb.WriteByte(' ')
		sb.WriteString(suffix)
	}
	return sb.String()
}

// flattenArgs concatenates per-record args for a multi-row statement.
func flattenArgs(records []models.KeywordRecord, cols []string) []any {
	args := make([]any, 0, len(records)*len(cols))
	for _, rec := range records {
		args = append(args, recordArgs(rec, cols)...)
	}
	return args
}

// InsertKeywords writes records with plain inserts. A conflict on the
// dedupe key fails the whole statement; the caller retries via
// UpsertKeywords.
func (d *DB) InsertKeywords(ctx context.Context, records []models.KeywordRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	cols := d.writeColumns()
	query := buildInsert(cols, len(records), "")

	tag, err := d.Pool.Exec(ctx, query, flattenArgs(records, cols)...)
	if err != nil {
		return 0, fmt.Errorf("insert keywords: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// UpsertKeywords writes records, replacing score, source and timestamp on
// dedupe-key conflicts. The conflict target is the unique index on
// (topic, keyword, day_bucket); when the writer omits day_bucket the
// column default keys the row to the current day.
func (d *DB) UpsertKeywords(ctx context.Context, records []models.KeywordRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	set := []string{
		"score = EXCLUDED.score",
		"source = EXCLUDED.source",
		"timestamp = EXCLUDED.timestamp",
	}
	if d.schema.ExtendedFields {
		set = append(set,
			"topic_cluster = EXCLUDED.topic_cluster",
			"intent = EXCLUDED.intent",
			"keyword_hash = EXCLUDED.keyword_hash",
		)
	}
	suffix := "ON CONFLICT (topic, keyword, day_bucket) DO UPDATE SET " + strings.Join(set, ", ")

	cols := d.writeColumns()
	query := buildInsert(cols, len(records), suffix)

	tag, err := d.Pool.Exec(ctx, query, flattenArgs(records, cols)...)
	if err != nil {
		return 0, fmt.Errorf("upsert keywords: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// RecentKeywords returns rows for topic newer than since, newest first.
func (d *DB) RecentKeywords(ctx context.Context, topic string, since time.Time, limit int) ([]models.KeywordRecord, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, keyword, score, topic, source, timestamp,
			day_bucket::text,
			COALESCE(topic_cluster, ''), COALESCE(intent, ''), COALESCE(keyword_hash, '')
		FROM trend_keywords
		WHERE topic = $1 AND timestamp >= $2
		ORDER BY timestamp DESC
		LIMIT $3
	`, topic, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent keywords: %w", err)
	}
	defer rows.Close()

	var records []models.KeywordRecord
	for rows.Next() {
		var rec models.KeywordRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Keyword,
			&rec.Score,
			&rec.Topic,
			&rec.Source,
			&rec.Timestamp,
			&rec.DayBucket,
			&rec.TopicCluster,
			&rec.Intent,
			&rec.KeywordHash,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteKeywordsBefore removes rows with a timestamp older than cutoff and
// returns the number of deleted rows.
func (d *DB) DeleteKeywordsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := d.Pool.Exec(ctx, `DELETE FROM trend_keywords WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete aged keywords: %w", err)
	}
	return tag.RowsAffected(), nil
}
