package main

import (
	"errors"
	"os"

	"lukechampine.com/uint128"
	"zombiezen.com/go/sqlite"
)

// SqliteBuildLog is a BuildLog backed by a zombiezen.com/go/sqlite
// connection: a single-file database, one row per output, upserted on every recorded
// command. It intentionally uses a different sqlite binding than DepsLog
// (see deps_log.go) so both halves of the pack's sqlite stack get
// exercised.
type SqliteBuildLog struct {
	conn         *sqlite.Conn
	stmtUpsert   *sqlite.Stmt
	stmtLookup   *sqlite.Stmt
	stmtLoadAll  *sqlite.Stmt
	inMemory     map[string]*LogEntry
}

func NewSqliteBuildLog(path string) (*SqliteBuildLog, error) {
	needCreate := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		needCreate = true
	}

	flags := sqlite.OpenReadWrite
	if needCreate {
		flags |= sqlite.OpenCreate
	}
	conn, err := sqlite.OpenConn(path, flags)
	if err != nil {
		return nil, err
	}

	this := &SqliteBuildLog{conn: conn, inMemory: map[string]*LogEntry{}}
	if needCreate {
		stmt, err := conn.Prepare(
			"CREATE TABLE IF NOT EXISTS build_log (" +
				"`output` TEXT PRIMARY KEY, `command_hash_hi` INTEGER, `command_hash_lo` INTEGER, " +
				"`start_time` INTEGER, `end_time` INTEGER, `mtime` INTEGER);")
		if err != nil {
			return nil, err
		}
		if _, err := stmt.Step(); err != nil {
			return nil, err
		}
	}

	this.stmtUpsert, err = conn.Prepare(
		"INSERT INTO build_log (`output`, `command_hash_hi`, `command_hash_lo`, `start_time`, `end_time`, `mtime`) " +
			"VALUES ($output, $hi, $lo, $start_time, $end_time, $mtime) " +
			"ON CONFLICT(`output`) DO UPDATE SET " +
			"`command_hash_hi`=$hi, `command_hash_lo`=$lo, `start_time`=$start_time, `end_time`=$end_time, `mtime`=$mtime;")
	if err != nil {
		return nil, err
	}
	this.stmtLookup, err = conn.Prepare(
		"SELECT `command_hash_hi`, `command_hash_lo`, `start_time`, `end_time`, `mtime` FROM build_log WHERE `output` = $output;")
	if err != nil {
		return nil, err
	}
	this.stmtLoadAll, err = conn.Prepare("SELECT `output`, `command_hash_hi`, `command_hash_lo`, `start_time`, `end_time`, `mtime` FROM build_log;")
	if err != nil {
		return nil, err
	}
	if err := this.loadIntoMemory(); err != nil {
		return nil, err
	}
	return this, nil
}

func (this *SqliteBuildLog) loadIntoMemory() error {
	defer this.stmtLoadAll.Reset()
	for {
		hasRow, err := this.stmtLoadAll.Step()
		if err != nil {
			return err
		}
		if !hasRow {
			break
		}
		output := this.stmtLoadAll.GetText("output")
		hi := uint64(this.stmtLoadAll.GetInt64("command_hash_hi"))
		lo := uint64(this.stmtLoadAll.GetInt64("command_hash_lo"))
		this.inMemory[output] = &LogEntry{
			Output:      output,
			CommandHash: uint128.New(lo, hi),
			StartTime:   int(this.stmtLoadAll.GetInt64("start_time")),
			EndTime:     int(this.stmtLoadAll.GetInt64("end_time")),
			Mtime:       TimeStamp(this.stmtLoadAll.GetInt64("mtime")),
		}
	}
	return nil
}

// LookupByOutput serves from the in-memory mirror kept warm since Open, so
// DependencyScan's hot RecomputeDirty path never touches sqlite directly.
func (this *SqliteBuildLog) LookupByOutput(path string) *LogEntry {
	return this.inMemory[path]
}

func (this *SqliteBuildLog) RecordCommand(edge *Edge, startTimeMillis, endTimeMillis int, mtime TimeStamp) error {
	command := edge.EvaluateCommand(true)
	hash := HashCommand(command)
	for _, out := range edge.outputs_ {
		entry := &LogEntry{Output: out.path(), CommandHash: hash, StartTime: startTimeMillis, EndTime: endTimeMillis, Mtime: mtime}
		this.inMemory[entry.Output] = entry

		defer this.stmtUpsert.Reset()
		this.stmtUpsert.SetText("$output", entry.Output)
		this.stmtUpsert.SetInt64("$hi", int64(hash.Hi))
		this.stmtUpsert.SetInt64("$lo", int64(hash.Lo))
		this.stmtUpsert.SetInt64("$start_time", int64(startTimeMillis))
		this.stmtUpsert.SetInt64("$end_time", int64(endTimeMillis))
		this.stmtUpsert.SetInt64("$mtime", int64(mtime))
		if _, err := this.stmtUpsert.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (this *SqliteBuildLog) Close() error {
	return this.conn.Close()
}
