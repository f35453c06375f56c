// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ranges

import (
	"github.com/grailbio/granges/table"
	"github.com/pkg/errors"
)

// Mandatory and conventional column names.
const (
	ChromosomeCol = "Chromosome"
	StartCol      = "Start"
	EndCol        = "End"
	StrandCol     = "Strand"
)

// Width is the integer width of the Start and End columns.
type Width int

const (
	// WidthAuto keeps 32-bit coordinates if Start and End are both already
	// 32-bit, and uses 64-bit coordinates otherwise.
	WidthAuto Width = iota
	// Narrow selects 32-bit coordinates.
	Narrow
	// Wide selects 64-bit coordinates.
	Wide
)

func (w Width) String() string {
	switch w {
	case WidthAuto:
		return "auto"
	case Narrow:
		return "int32"
	case Wide:
		return "int64"
	}
	return "invalid"
}

// checkMandatory verifies that t has Chromosome, Start and End.
func checkMandatory(t *table.Table) error {
	for _, name := range []string{ChromosomeCol, StartCol, EndCol} {
		if !t.Has(name) {
			return errors.Wrapf(ErrSchema, "missing column %s (have %v)", name, t.Columns())
		}
	}
	return nil
}

// widthOf returns Narrow if both Start and End are 32-bit, and Wide
// otherwise.
func widthOf(t *table.Table) Width {
	for _, name := range []string{StartCol, EndCol} {
		if c := t.Col(name); c == nil || c.Kind() != table.Int32 {
			return Wide
		}
	}
	return Narrow
}

// Normalize casts Start and End to the integer width w, and Chromosome and
// Strand (if present) to categorical columns.  Columns that already have the
// target representation are left alone, so Normalize is idempotent and
// cheap on normalized input.
func Normalize(t *table.Table, w Width) (*table.Table, error) {
	if err := checkMandatory(t); err != nil {
		return nil, err
	}
	if w == WidthAuto {
		w = widthOf(t)
	}
	var err error
	for _, name := range []string{StartCol, EndCol} {
		c := t.Col(name)
		if !table.IsInteger(c) {
			return nil, errors.Wrapf(ErrSchema, "column %s has kind %v, want an integer", name, c.Kind())
		}
		var nc table.Column
		switch {
		case w == Narrow && c.Kind() != table.Int32:
			if nc, err = table.ToInt32(c); err != nil {
				return nil, errors.Wrapf(ErrSchema, "column %s: %v", name, err)
			}
		case w == Wide && c.Kind() != table.Int64:
			nc, _ = table.ToInt64(c)
		default:
			continue
		}
		if t, err = t.With(name, nc); err != nil {
			return nil, err
		}
	}
	for _, name := range []string{ChromosomeCol, StrandCol} {
		c := t.Col(name)
		if c == nil || c.Kind() == table.Categorical {
			continue
		}
		cat, err := table.ToCategorical(c)
		if err != nil {
			return nil, errors.Wrapf(ErrSchema, "column %s: %v", name, err)
		}
		if t, err = t.With(name, cat); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// dropUnusedCategories removes unused levels from the Chromosome and Strand
// columns of a partition table.
func dropUnusedCategories(t *table.Table) *table.Table {
	for _, name := range []string{ChromosomeCol, StrandCol} {
		cat, ok := t.Col(name).(*table.CategoricalColumn)
		if !ok {
			continue
		}
		if r := cat.RemoveUnused(); r != cat {
			// Same length, so With cannot fail.
			t, _ = t.With(name, r)
		}
	}
	return t
}
