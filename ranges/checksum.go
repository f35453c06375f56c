// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ranges

import (
	"encoding/binary"
	"math"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/unsafe"
	"github.com/grailbio/granges/table"
)

// Checksum digests the contents of a collection: keys, column names and
// values, in key order and row order.  Values are hashed by content, so
// collections that differ only in Start/End width or in categorical level
// order have the same checksum.
func Checksum(c *Collection) uint64 {
	h := seahash.New()
	var buf [8]byte
	writeString := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		h.Write(buf[:])
		h.Write(unsafe.StringToBytes(s))
	}
	writeUint64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	for _, it := range c.Items() {
		writeString(it.Key.Chromosome)
		writeString(it.Key.Strand)
		t := it.Table
		writeUint64(uint64(t.NumRows()))
		for _, name := range t.Columns() {
			writeString(name)
			col := t.Col(name)
			for i := 0; i < t.NumRows(); i++ {
				switch col := col.(type) {
				case table.Int32Column, table.Int64Column:
					writeUint64(uint64(table.Int64At(col, i)))
				case table.Float64Column:
					writeUint64(math.Float64bits(col[i]))
				default:
					writeString(col.Format(i))
				}
			}
		}
	}
	return h.Sum64()
}
