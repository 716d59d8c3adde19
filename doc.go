// Copyright (c) 2019 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package irlower lowers JIT compilation units from mid-level IR to virtual
// assembly.
//
// # Errors
//
// Errors returned by Lower implement the errors.UnitError interface when the
// unit is malformed: an instruction has the wrong shape, refers to a block
// outside of the unit, or combines types which lowering cannot handle.  Such
// an error aborts only the unit at hand.  Runtime errors are not converted;
// they indicate a bug in the compiler.
//
// # Concurrency
//
// Units may be lowered concurrently with a shared Runtime.  See LowerUnits.
package irlower
