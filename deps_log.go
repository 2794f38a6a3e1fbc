package main

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// depsLogOutput and depsLogInput are the gorm-mapped tables backing
// GormDepsLog, laid out the same way the archival service lays out
// model.RbeLogEntry/model.DepsEntry (a parent row plus a child table of
// dependency paths keyed by parent id) but scoped to this process's own
// deps rather than the RBE cache's cross-machine schema.
type depsLogOutput struct {
	ID     uint   `gorm:"primarykey"`
	Output string `gorm:"uniqueIndex"`
	Mtime  int64
}

func (depsLogOutput) TableName() string { return "deps_log_output" }

type depsLogInput struct {
	ID       uint `gorm:"primarykey"`
	OutputID uint `gorm:"index:idx_output_id"`
	Seq      int
	Path     string
}

func (depsLogInput) TableName() string { return "deps_log_input" }

// GormDepsLog is a DepsLog backed by gorm.io/gorm over glebarez/sqlite, the
// pure-Go sqlite driver the archival service's sqlitedb_init.go already
// wires through gorm. Rows are mirrored into an in-memory map keyed by
// output path so DependencyScan's per-node lookups never hit sqlite.
type GormDepsLog struct {
	db    *gorm.DB
	state *State
	cache map[string]*Deps
	ids   map[string]uint
}

func NewGormDepsLog(path string, state *State) (*GormDepsLog, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&depsLogOutput{}, &depsLogInput{}); err != nil {
		return nil, err
	}

	this := &GormDepsLog{db: db, state: state, cache: map[string]*Deps{}, ids: map[string]uint{}}
	if err := this.loadIntoMemory(); err != nil {
		return nil, err
	}
	return this, nil
}

func (this *GormDepsLog) loadIntoMemory() error {
	var outputs []depsLogOutput
	if err := this.db.Find(&outputs).Error; err != nil {
		return err
	}
	for _, out := range outputs {
		this.ids[out.Output] = out.ID

		var inputs []depsLogInput
		if err := this.db.Where("output_id = ?", out.ID).Order("seq asc").Find(&inputs).Error; err != nil {
			return err
		}
		nodes := make([]*Node, 0, len(inputs))
		for _, in := range inputs {
			path, slashBits := CanonicalizePath(in.Path)
			nodes = append(nodes, this.state.GetNode(path, slashBits))
		}
		this.cache[out.Output] = &Deps{Mtime: TimeStamp(out.Mtime), Nodes: nodes}
	}
	return nil
}

func (this *GormDepsLog) GetDeps(node *Node) *Deps {
	return this.cache[node.path()]
}

func (this *GormDepsLog) RecordDeps(node *Node, mtime TimeStamp, nodes []*Node) error {
	paths := make([]string, len(nodes))
	for i, n := range nodes {
		paths[i] = n.path()
	}
	this.cache[node.path()] = &Deps{Mtime: mtime, Nodes: append([]*Node{}, nodes...)}

	return this.db.Transaction(func(tx *gorm.DB) error {
		row := depsLogOutput{Output: node.path(), Mtime: int64(mtime)}
		if id, ok := this.ids[node.path()]; ok {
			row.ID = id
			if err := tx.Save(&row).Error; err != nil {
				return err
			}
			if err := tx.Where("output_id = ?", id).Delete(&depsLogInput{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			this.ids[node.path()] = row.ID
		}
		for i, path := range paths {
			if err := tx.Create(&depsLogInput{OutputID: row.ID, Seq: i, Path: path}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (this *GormDepsLog) Close() error {
	sqlDB, err := this.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
