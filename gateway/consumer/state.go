// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package consumer

import (
	"errors"
	"fmt"
)

// ErrNotAllowed returned on illegal state transition
var ErrNotAllowed = errors.New("State transition is not allowed")

// State of the consumer loop.
type State int

const (
	// Idle: blocked waiting for data.
	Idle State = iota
	// Processing: performing the output effect of the current item.
	Processing
	// Stopping: cancellation observed, finishing up.
	Stopping
	// Stopped is terminal.
	Stopped
)

// Names are exposed through the status API.
const (
	IdleStateName       = "Idle"
	ProcessingStateName = "Processing"
	StoppingStateName   = "Stopping"
	StoppedStateName    = "Stopped"
)

func (s State) String() string {
	switch s {
	case Idle:
		return IdleStateName
	case Processing:
		return ProcessingStateName
	case Stopping:
		return StoppingStateName
	case Stopped:
		return StoppedStateName
	}
	return fmt.Sprintf("Cannot stringify consumer.State.%d", int(s))
}

var allowedTransitions = map[State][]State{
	Idle:       {Processing, Stopping},
	Processing: {Idle, Stopping},
	Stopping:   {Stopped},
	Stopped:    {},
}

func canTransition(from, to State) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
