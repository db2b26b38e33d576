package scenario

import "errors"

var (
	// ErrUnknownOp indicates a step whose op is not one of the supported verbs.
	ErrUnknownOp = errors.New("scenario: unknown op")

	// ErrUnknownName indicates a step referring to a block name that is not live.
	ErrUnknownName = errors.New("scenario: unknown block name")

	// ErrUnknownAllocator indicates an allocator kind other than run or must-replace.
	ErrUnknownAllocator = errors.New("scenario: unknown allocator")

	// ErrExpectation indicates a step whose address differs from its expect field.
	ErrExpectation = errors.New("scenario: unexpected address")

	// ErrWriteBounds indicates a write that does not fit inside its block.
	ErrWriteBounds = errors.New("scenario: write outside block")
)
