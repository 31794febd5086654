// Copyright 2022 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

// Package executedops implements the slot-indexed set of operation ids that
// have already been executed, used to reject replay/reuse. It maintains an
// XOR accumulator hash over the set incrementally and supports chunked
// streaming of its contents for bootstrap.
package executedops

import "github.com/massa-labs/go-massa/codec"

// StepKind tags a StreamingStep as not yet started, part-way through
// (carrying the last slot seen), or finished.
type StepKind int

const (
	StepStarted StepKind = iota
	StepOngoing
	StepFinished
)

// StreamingStep is a resumable cursor used to chunk a large state across
// multiple bootstrap requests.
type StreamingStep struct {
	Kind StepKind
	Slot codec.Slot // only meaningful when Kind == StepOngoing
}

// Started is the cursor a bootstrap client starts a transfer with.
func Started() StreamingStep { return StreamingStep{Kind: StepStarted} }

// Ongoing resumes a transfer strictly after the given slot.
func Ongoing(slot codec.Slot) StreamingStep { return StreamingStep{Kind: StepOngoing, Slot: slot} }

// Finished signals that the transfer has no more data.
func Finished() StreamingStep { return StreamingStep{Kind: StepFinished} }
