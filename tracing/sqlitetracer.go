package tracing

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/sarchlab/soclib/sim"
	"github.com/tebeka/atexit"
)

// SQLiteTracer stores completed tasks and their steps into a SQLite database.
type SQLiteTracer struct {
	timeTeller sim.TimeTeller

	lock     sync.Mutex
	db       *sql.DB
	taskStmt *sql.Stmt
	stepStmt *sql.Stmt
	dbName   string

	inflight  map[string]Task
	toWrite   []Task
	batchSize int
}

// NewSQLiteTracer creates a tracer that writes to <path>.sqlite3. When path
// is empty, a unique name is generated.
func NewSQLiteTracer(timeTeller sim.TimeTeller, path string) *SQLiteTracer {
	t := &SQLiteTracer{
		timeTeller: timeTeller,
		dbName:     path,
		inflight:   make(map[string]Task),
		batchSize:  10000,
	}

	atexit.Register(func() {
		if err := t.Flush(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	})

	return t
}

// FileName returns the name of the database file.
func (t *SQLiteTracer) FileName() string {
	return t.dbName + ".sqlite3"
}

// Init creates the database and the tables.
func (t *SQLiteTracer) Init() error {
	if t.dbName == "" {
		t.dbName = "soclib_trace_" + xid.New().String()
	}

	filename := t.FileName()
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return fmt.Errorf("open trace database: %w", err)
	}

	t.db = db

	err = t.createTables()
	if err != nil {
		return err
	}

	return t.prepareStatements()
}

func (t *SQLiteTracer) createTables() error {
	stmts := []string{
		`create table trace
		(
			task_id    varchar(200) not null,
			parent_id  varchar(200),
			kind       varchar(100),
			what       varchar(100),
			location   varchar(100),
			start_time float not null,
			end_time   float default 0
		);`,
		`create index trace_task_id_index on trace (task_id);`,
		`create index trace_kind_index on trace (kind);`,
		`create index trace_location_index on trace (location);`,
		`create table trace_step
		(
			task_id varchar(200) not null,
			time    float not null,
			what    varchar(100)
		);`,
		`create index trace_step_task_id_index on trace_step (task_id);`,
	}

	for _, s := range stmts {
		if _, err := t.db.Exec(s); err != nil {
			return fmt.Errorf("create trace tables: %w", err)
		}
	}

	return nil
}

func (t *SQLiteTracer) prepareStatements() error {
	var err error

	t.taskStmt, err = t.db.Prepare(
		`INSERT INTO trace VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare task insert: %w", err)
	}

	t.stepStmt, err = t.db.Prepare(`INSERT INTO trace_step VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare step insert: %w", err)
	}

	return nil
}

// StartTask records the start time of the task.
func (t *SQLiteTracer) StartTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	task.StartTime = t.timeTeller.CurrentTime()
	t.inflight[task.ID] = task
}

// StepTask records a step of an in-flight task.
func (t *SQLiteTracer) StepTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	original, ok := t.inflight[task.ID]
	if !ok {
		return
	}

	step := task.Steps[0]
	step.Time = t.timeTeller.CurrentTime()
	original.Steps = append(original.Steps, step)
	t.inflight[task.ID] = original
}

// EndTask queues the completed task for writing.
func (t *SQLiteTracer) EndTask(task Task) {
	t.lock.Lock()

	original, ok := t.inflight[task.ID]
	if !ok {
		t.lock.Unlock()
		return
	}

	delete(t.inflight, task.ID)
	original.EndTime = t.timeTeller.CurrentTime()
	t.toWrite = append(t.toWrite, original)
	full := len(t.toWrite) >= t.batchSize
	t.lock.Unlock()

	if full {
		if err := t.Flush(); err != nil {
			panic(err)
		}
	}
}

// Flush writes all the completed tasks to the database.
func (t *SQLiteTracer) Flush() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.db == nil || len(t.toWrite) == 0 {
		return nil
	}

	tx, err := t.db.Begin()
	if err != nil {
		return err
	}

	taskStmt := tx.Stmt(t.taskStmt)
	stepStmt := tx.Stmt(t.stepStmt)

	for _, task := range t.toWrite {
		_, err = taskStmt.Exec(task.ID, task.ParentID, task.Kind, task.What,
			task.Where, float64(task.StartTime), float64(task.EndTime))
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert task %s: %w", task.ID, err)
		}

		for _, step := range task.Steps {
			_, err = stepStmt.Exec(task.ID, float64(step.Time), step.What)
			if err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert step of %s: %w", task.ID, err)
			}
		}
	}

	t.toWrite = nil

	return tx.Commit()
}

// Close flushes and closes the database.
func (t *SQLiteTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}

	if t.db == nil {
		return nil
	}

	return t.db.Close()
}
