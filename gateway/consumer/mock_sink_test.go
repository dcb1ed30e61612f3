// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package consumer

import (
	context "context"

	mock "github.com/stretchr/testify/mock"
)

type mockSink struct {
	mock.Mock
}

func (_m *mockSink) Write(ctx context.Context, item string) error {
	ret := _m.Called(ctx, item)

	if len(ret) == 0 {
		panic("no return value specified for Write")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string) error); ok {
		r0 = rf(ctx, item)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func newMockSink(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockSink {
	m := &mockSink{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
