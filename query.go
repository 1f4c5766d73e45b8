// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// query.go — fluent Query builder for record listings, consumed by List,
// Count and WarmCache.

package jsl

// queryBuilder is the fluent builder for Query.
type queryBuilder struct{ q Query }

// Q returns a new fluent query builder.
func Q() *queryBuilder { return &queryBuilder{} }

func (b *queryBuilder) Kind(kind string) *queryBuilder     { b.q.Kind = kind; return b }
func (b *queryBuilder) Prefix(prefix string) *queryBuilder { b.q.IDPrefix = prefix; return b }
func (b *queryBuilder) OrderBy(col string) *queryBuilder   { b.q.OrderBy = col; return b }
func (b *queryBuilder) Desc() *queryBuilder                { b.q.Desc = true; return b }
func (b *queryBuilder) Limit(n int) *queryBuilder          { b.q.Limit = n; return b }
func (b *queryBuilder) Offset(n int) *queryBuilder         { b.q.Offset = n; return b }

// All removes the default row limit.
func (b *queryBuilder) All() *queryBuilder { b.q.Limit = -1; return b }

func (b *queryBuilder) Build() Query { return b.q }
