package execution

import (
	"context"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/memory"
)

type Context struct {
	Context   context.Context
	Allocator memory.Allocator
}

func (ctx Context) GetAllocator() memory.Allocator {
	if ctx.Allocator == nil {
		return memory.DefaultAllocator
	}
	return ctx.Allocator
}

type ProduceContext struct {
	Context
}

type Node interface {
	Run(ctx Context, produce ProduceFunc) error
}

type NodeWithMeta struct {
	Node   Node
	Schema *arrow.Schema
}

type ProduceFunc func(produceCtx ProduceContext, record Record) error

type Record struct {
	arrow.Record
}
