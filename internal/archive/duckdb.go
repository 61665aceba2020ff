// Package archive mirrors prediction results into a DuckDB file so the result
// store can be rehydrated after a restart.
package archive

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cerebroscan/backend/internal/models"
	"github.com/marcboeker/go-duckdb"
	log "github.com/sirupsen/logrus"
)

// DuckArchive is an append-only results table in a DuckDB file.
type DuckArchive struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
	seq    int64
}

// Open opens or creates the archive at dbPath.
func Open(dbPath string) (*DuckArchive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	log.Infof("[Archive] Opening database at: %s", dbPath)

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='256MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				log.Warnf("[Archive] Pragma warning: %v", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			seq        BIGINT PRIMARY KEY,
			id         VARCHAR NOT NULL,
			batch_id   VARCHAR NOT NULL,
			filename   VARCHAR NOT NULL,
			prediction VARCHAR NOT NULL,
			confidence DOUBLE NOT NULL,
			size       BIGINT NOT NULL,
			ts         BIGINT NOT NULL,
			scores     VARCHAR,
			heatmap    BLOB
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	var seq int64
	if err := db.QueryRow("SELECT COALESCE(MAX(seq) + 1, 0) FROM results").Scan(&seq); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read sequence: %w", err)
	}

	return &DuckArchive{db: db, dbPath: dbPath, seq: seq}, nil
}

// SaveBatch appends results in order using the DuckDB appender.
func (a *DuckArchive) SaveBatch(ctx context.Context, results []models.PredictionResult) error {
	if len(results) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()

	conn, err := a.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "results")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		for i, r := range results {
			scores, err := encodeScores(r.Scores)
			if err != nil {
				return fmt.Errorf("encoding scores for %s: %w", r.Filename, err)
			}
			heatmap := r.Heatmap
			if heatmap == nil {
				heatmap = []byte{}
			}

			err = appender.AppendRow(
				a.seq+int64(i),
				r.ID,
				r.BatchID,
				r.Filename,
				r.Prediction,
				r.Confidence,
				r.Size,
				r.Timestamp.UnixMicro(),
				scores,
				heatmap,
			)
			if err != nil {
				return fmt.Errorf("failed to append row %d: %w", i, err)
			}
		}

		return appender.Flush()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}

	a.seq += int64(len(results))
	log.Debugf("[Archive] Stored %d result(s) in %v", len(results), time.Since(start))
	return nil
}

// Load returns every archived result in append order.
func (a *DuckArchive) Load(ctx context.Context) ([]models.PredictionResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, batch_id, filename, prediction, confidence, size, ts, scores, heatmap
		FROM results
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var results []models.PredictionResult
	for rows.Next() {
		var (
			r       models.PredictionResult
			ts      int64
			scores  sql.NullString
			heatmap []byte
		)
		if err := rows.Scan(&r.ID, &r.BatchID, &r.Filename, &r.Prediction, &r.Confidence, &r.Size, &ts, &scores, &heatmap); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		r.Timestamp = time.UnixMicro(ts).UTC()
		if scores.Valid && scores.String != "" {
			if err := json.Unmarshal([]byte(scores.String), &r.Scores); err != nil {
				return nil, fmt.Errorf("decoding scores for %s: %w", r.Filename, err)
			}
		}
		if len(heatmap) > 0 {
			r.Heatmap = heatmap
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// Len returns the number of archived results.
func (a *DuckArchive) Len() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seq
}

// Close closes the database.
func (a *DuckArchive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func encodeScores(scores map[string]float64) (string, error) {
	if len(scores) == 0 {
		return "", nil
	}
	data, err := json.Marshal(scores)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
