// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slice holds generic helpers the standard [slices] package lacks,
// used when converting role lists between layers.
package slice

// Map returns transform applied to each element. A nil input stays nil.
func Map[T, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	mapped := make([]U, 0, len(input))
	for _, element := range input {
		mapped = append(mapped, transform(element))
	}
	return mapped
}

// Filter returns the elements that satisfy keep, in order. A nil input stays nil.
func Filter[T any](input []T, keep func(T) bool) []T {
	if input == nil {
		return nil
	}

	kept := make([]T, 0, len(input))
	for _, element := range input {
		if keep(element) {
			kept = append(kept, element)
		}
	}
	return kept
}
