// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ranges

import (
	"github.com/pkg/errors"
)

// Each failure mode of the package has its own sentinel.  Returned errors
// wrap a sentinel with context; test for them with errors.Is.
var (
	// ErrLengthMismatch is returned when parallel construction arrays differ
	// in length.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrSchema is returned when a table lacks a mandatory column or holds a
	// column of the wrong kind.
	ErrSchema = errors.New("schema error")
	// ErrAlreadyPartitioned is returned when Build is handed a Collection.
	ErrAlreadyPartitioned = errors.New("already partitioned")
	// ErrInvalidIndex is returned for an unsupported index expression.
	ErrInvalidIndex = errors.New("invalid index")
	// ErrStrandRequired is returned when a strand-sensitive operation is
	// requested on an unstranded collection.
	ErrStrandRequired = errors.New("strand required")
	// ErrInvalidOption is returned for an unrecognized option value.
	ErrInvalidOption = errors.New("invalid option")
	// ErrNoOperator is returned when an Engine operation has no operator
	// registered.
	ErrNoOperator = errors.New("no operator")
)
