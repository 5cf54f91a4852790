// Package mocks provides testify mocks for the engine interfaces in package platform.
package mocks

import (
	"context"

	"github.com/robbyt/go-polygrade/engines/types"
	"github.com/robbyt/go-polygrade/platform"
	"github.com/stretchr/testify/mock"
)

// Engine is a mock implementation of platform.Engine.
type Engine struct {
	mock.Mock
}

func (m *Engine) Compile(source string) (platform.Program, error) {
	args := m.Called(source)
	prog, _ := args.Get(0).(platform.Program)
	return prog, args.Error(1)
}

func (m *Engine) Type() types.Type {
	return m.Called().Get(0).(types.Type)
}

// Program is a mock implementation of platform.Program.
type Program struct {
	mock.Mock
}

func (m *Program) ID() string {
	return m.Called().String(0)
}

func (m *Program) Source() string {
	return m.Called().String(0)
}

func (m *Program) Instantiate(ctx context.Context, env platform.Env) (platform.Namespace, error) {
	args := m.Called(ctx, env)
	ns, _ := args.Get(0).(platform.Namespace)
	return ns, args.Error(1)
}

// Namespace is a mock implementation of platform.Namespace.
type Namespace struct {
	mock.Mock
}

func (m *Namespace) Submission() (platform.Callable, error) {
	args := m.Called()
	fn, _ := args.Get(0).(platform.Callable)
	return fn, args.Error(1)
}

// Callable is a mock implementation of platform.Callable.
type Callable struct {
	mock.Mock
}

func (m *Callable) Name() string {
	return m.Called().String(0)
}

func (m *Callable) Signature() platform.Signature {
	return m.Called().Get(0).(platform.Signature)
}

func (m *Callable) Call(ctx context.Context, args []any) (platform.Value, error) {
	ret := m.Called(ctx, args)
	v, _ := ret.Get(0).(platform.Value)
	return v, ret.Error(1)
}

// Value is a mock implementation of platform.Value.
type Value struct {
	mock.Mock
}

func (m *Value) Interface() (any, error) {
	args := m.Called()
	return args.Get(0), args.Error(1)
}

func (m *Value) Inspect() string {
	return m.Called().String(0)
}

func (m *Value) IsNone() bool {
	return m.Called().Bool(0)
}

// Checker is a mock implementation of platform.Checker.
type Checker struct {
	mock.Mock
}

func (m *Checker) Check(ctx context.Context, expected, actual any) (bool, error) {
	args := m.Called(ctx, expected, actual)
	return args.Bool(0), args.Error(1)
}
