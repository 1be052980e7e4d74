package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/banshee-data/mocap.rigidity/internal/rigidity"
	"github.com/banshee-data/mocap.rigidity/internal/skeleton"
	"github.com/banshee-data/mocap.rigidity/internal/timeutil"
)

// ErrRunNotFound is returned by Get for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted normalisation run.
type Run struct {
	RunID       string `json:"run_id"`
	SourcePath  string `json:"source_path"`
	Skeleton    string `json:"skeleton"`
	FrameCount  int    `json:"frame_count"`
	MarkerCount int    `json:"marker_count"`

	// GoodFrame is nil when no good frame was selected.
	GoodFrame *int `json:"good_frame,omitempty"`

	// Dimensions is nil when they could not be estimated.
	Dimensions *rigidity.BodyDimensions `json:"dimensions,omitempty"`

	ConfigJSON json.RawMessage `json:"config_json,omitempty"`
	CreatedAt  int64           `json:"created_at"`

	// Bones is written by Insert. Get and List leave it empty; use
	// BoneStatsForRun to read them back.
	Bones []BoneRecord `json:"bones,omitempty"`
}

// BoneRecord holds one bone's length statistics before and after
// enforcement. Statistics that could not be computed are NaN: after values
// for skipped bones, and before values too when the bone had fewer than two
// defined samples.
type BoneRecord struct {
	Bone         string  `json:"bone"`
	Head         string  `json:"head"`
	Tail         string  `json:"tail"`
	Defined      int     `json:"defined"`
	MedianBefore float64 `json:"median_before"`
	StdevBefore  float64 `json:"stdev_before"`
	MedianAfter  float64 `json:"median_after"`
	StdevAfter   float64 `json:"stdev_after"`
	Skipped      bool    `json:"skipped"`
}

// BoneRecords builds one record per bone of defs, in table order, pairing
// before and after statistics. Bones in skipped get a record even though
// ComputeStatistics left them out, with the defined sample count taken from
// the error.
func BoneRecords(defs skeleton.Definitions, before, after *rigidity.Statistics, skipped []*rigidity.InsufficientDataError) []BoneRecord {
	skip := make(map[string]*rigidity.InsufficientDataError, len(skipped))
	for _, s := range skipped {
		skip[s.Bone] = s
	}

	out := make([]BoneRecord, 0, len(defs))
	for _, def := range defs {
		r := BoneRecord{
			Bone:         def.Name,
			Head:         def.Head,
			Tail:         def.Tail,
			MedianBefore: math.NaN(),
			StdevBefore:  math.NaN(),
			MedianAfter:  math.NaN(),
			StdevAfter:   math.NaN(),
		}
		if b, ok := before.Get(def.Name); ok {
			r.Defined = b.Defined
			r.MedianBefore = b.Median
			r.StdevBefore = b.Stdev
		}
		if e, ok := skip[def.Name]; ok {
			r.Skipped = true
			r.Defined = e.Defined
		} else if a, ok := after.Get(def.Name); ok {
			r.MedianAfter = a.Median
			r.StdevAfter = a.Stdev
		}
		out = append(out, r)
	}
	return out
}

// RunStore provides persistence for normalisation runs.
type RunStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewRunStore creates a RunStore backed by db, which must already be
// migrated (see Open).
func NewRunStore(db *sql.DB) *RunStore {
	return NewRunStoreWithClock(db, timeutil.RealClock{})
}

// NewRunStoreWithClock is NewRunStore with an explicit clock for creation
// timestamps and busy backoff.
func NewRunStoreWithClock(db *sql.DB, clock timeutil.Clock) *RunStore {
	return &RunStore{db: db, clock: clock}
}

// nullable maps NaN to SQL NULL.
func nullable(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// Insert persists run and its bone records in one transaction. If RunID is
// empty a UUID is generated; if CreatedAt is zero the current time is used.
func (s *RunStore) Insert(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = s.clock.Now().UnixNano()
	}

	var dims interface{}
	if run.Dimensions != nil {
		b, err := json.Marshal(run.Dimensions)
		if err != nil {
			return fmt.Errorf("marshal dimensions: %w", err)
		}
		dims = string(b)
	}
	var cfg interface{}
	if len(run.ConfigJSON) > 0 {
		cfg = string(run.ConfigJSON)
	}
	var goodFrame interface{}
	if run.GoodFrame != nil {
		goodFrame = *run.GoodFrame
	}

	return retryOnBusy(s.clock, func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`
			INSERT INTO rigidity_runs (
				run_id, source_path, skeleton, frame_count, marker_count,
				good_frame, dimensions_json, config_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.SourcePath, run.Skeleton, run.FrameCount, run.MarkerCount,
			goodFrame, dims, cfg, run.CreatedAt,
		); err != nil {
			return err
		}

		for i, b := range run.Bones {
			if _, err := tx.Exec(`
				INSERT INTO rigidity_run_bones (
					run_id, position, bone, head_marker, tail_marker, defined,
					median_before, stdev_before, median_after, stdev_after, skipped
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				run.RunID, i, b.Bone, b.Head, b.Tail, b.Defined,
				nullable(b.MedianBefore), nullable(b.StdevBefore), nullable(b.MedianAfter), nullable(b.StdevAfter), b.Skipped,
			); err != nil {
				return fmt.Errorf("insert bone %q: %w", b.Bone, err)
			}
		}
		return tx.Commit()
	})
}

const runColumns = `run_id, source_path, skeleton, frame_count, marker_count,
	good_frame, dimensions_json, config_json, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r         Run
		goodFrame sql.NullInt64
		dims, cfg sql.NullString
	)
	if err := row.Scan(&r.RunID, &r.SourcePath, &r.Skeleton, &r.FrameCount, &r.MarkerCount,
		&goodFrame, &dims, &cfg, &r.CreatedAt); err != nil {
		return nil, err
	}
	if goodFrame.Valid {
		f := int(goodFrame.Int64)
		r.GoodFrame = &f
	}
	if dims.Valid {
		r.Dimensions = &rigidity.BodyDimensions{}
		if err := json.Unmarshal([]byte(dims.String), r.Dimensions); err != nil {
			return nil, fmt.Errorf("run %s: decode dimensions: %w", r.RunID, err)
		}
	}
	if cfg.Valid {
		r.ConfigJSON = json.RawMessage(cfg.String)
	}
	return &r, nil
}

// Get returns the run with the given ID, without bone records.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM rigidity_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return r, nil
}

// List returns up to limit runs, newest first. limit <= 0 means no limit.
func (s *RunStore) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM rigidity_runs
		ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// BoneStatsForRun returns the bone records of a run in their stored order.
func (s *RunStore) BoneStatsForRun(runID string) ([]BoneRecord, error) {
	rows, err := s.db.Query(`
		SELECT bone, head_marker, tail_marker, defined,
			median_before, stdev_before, median_after, stdev_after, skipped
		FROM rigidity_run_bones WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("bone stats for run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []BoneRecord
	for rows.Next() {
		var (
			b     BoneRecord
			stats [4]sql.NullFloat64
		)
		if err := rows.Scan(&b.Bone, &b.Head, &b.Tail, &b.Defined,
			&stats[0], &stats[1], &stats[2], &stats[3], &b.Skipped); err != nil {
			return nil, err
		}
		b.MedianBefore = orNaN(stats[0])
		b.StdevBefore = orNaN(stats[1])
		b.MedianAfter = orNaN(stats[2])
		b.StdevAfter = orNaN(stats[3])
		out = append(out, b)
	}
	return out, rows.Err()
}

// Delete removes a run and its bone records.
func (s *RunStore) Delete(runID string) error {
	return retryOnBusy(s.clock, func() error {
		res, err := s.db.Exec(`DELETE FROM rigidity_runs WHERE run_id = ?`, runID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}
