// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*Package table implements a small immutable columnar record batch.

  A Table is an ordered set of named, equal-length columns.  Columns are
  never modified after construction; every operation that changes the shape
  of a table (adding or removing a column, selecting rows, concatenating)
  returns a new Table that may share column storage with its inputs.

  Low-cardinality string columns such as chromosome names and strands are
  represented by CategoricalColumn, which stores one int32 code per row plus a
  table of levels.  Group-by over categorical columns only ever produces
  groups for codes that are actually observed, so slicing a table never
  creates phantom empty groups.

  Mask is a boolean row selector backed by a roaring bitmap.
*/
package table
