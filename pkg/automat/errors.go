package automat

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTransition 同一 (状态, 输入) 已存在转换
	ErrDuplicateTransition = errors.New("duplicate transition")

	// ErrNoTransition 当前状态下没有该输入的转换，也没有默认转换
	ErrNoTransition = errors.New("no transition")

	// ErrAlreadyInitialized 初始状态只能设置一次
	ErrAlreadyInitialized = errors.New("initial state already set")

	// ErrAlreadySealed 转换表构建完成后不可再修改
	ErrAlreadySealed = errors.New("already sealed")

	// ErrReentrancy 重入调用需要同步返回值
	ErrReentrancy = errors.New("reentrant call requires a result")

	// ErrUnknownInput 输入未在构建时声明
	ErrUnknownInput = errors.New("unknown input")

	// ErrDuplicateInput 输入重复声明
	ErrDuplicateInput = errors.New("duplicate input")

	// ErrIncompleteTransition 转换声明后没有提供实现
	ErrIncompleteTransition = errors.New("incomplete transition")

	// ErrInitialStateData 初始状态不能携带状态数据
	ErrInitialStateData = errors.New("initial state cannot require data")

	// ErrNoInitialState 没有声明任何无数据状态
	ErrNoInitialState = errors.New("no initial state")

	// ErrForeignState 状态不属于当前构建器
	ErrForeignState = errors.New("state belongs to another builder")
)

// DuplicateTransitionError 重复注册同一 (状态, 输入) 的转换
type DuplicateTransitionError struct {
	State any
	Input any
}

func (e *DuplicateTransitionError) Error() string {
	return fmt.Sprintf("already have transition from %v via %v", e.State, e.Input)
}

func (e *DuplicateTransitionError) Unwrap() error { return ErrDuplicateTransition }

// NoTransitionError 状态 State 下输入 Input 没有对应转换
type NoTransitionError struct {
	State any
	Input any
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("no transition for %v in %v", e.Input, e.State)
}

func (e *NoTransitionError) Unwrap() error { return ErrNoTransition }

// ReentrancyError 派发进行中对有返回值输入的重入调用
type ReentrancyError struct {
	Input Input
}

func (e *ReentrancyError) Error() string {
	return fmt.Sprintf("attempting to reentrantly run %s but it returns a value", e.Input)
}

func (e *ReentrancyError) Unwrap() error { return ErrReentrancy }

// UnknownInputError 调用了未声明的输入
type UnknownInputError struct {
	Input Input
}

func (e *UnknownInputError) Error() string {
	return fmt.Sprintf("unknown input %q", string(e.Input))
}

func (e *UnknownInputError) Unwrap() error { return ErrUnknownInput }

func IsNoTransitionError(err error) bool {
	var e *NoTransitionError
	return errors.As(err, &e)
}

func IsReentrancyError(err error) bool {
	var e *ReentrancyError
	return errors.As(err, &e)
}

func IsDuplicateTransitionError(err error) bool {
	var e *DuplicateTransitionError
	return errors.As(err, &e)
}
