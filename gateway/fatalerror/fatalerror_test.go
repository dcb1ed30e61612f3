// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package fatalerror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf(t *testing.T) {
	cause := errors.New("address already in use")
	err := fmt.Errorf("udp producer: %w", New(ListenError, cause))

	assert.Equal(t, ListenError, TypeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "udp producer: Gateway.ListenError: address already in use", err.Error())
}

func TestTypeOfPlainError(t *testing.T) {
	assert.Equal(t, Unknown, TypeOf(errors.New("plain")))
	assert.Equal(t, Unknown, TypeOf(nil))
}
