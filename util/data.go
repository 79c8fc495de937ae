package util

import (
	"slices"

	"golang.org/x/exp/constraints"
)

func Filter[T any](ss []T, test func(T) bool) (ret []T) {
	for _, s := range ss {
		if test(s) {
			ret = append(ret, s)
		}
	}
	return
}

func Map[T1 any, T2 any](ss []T1, mapper func(T1) T2) (ret []T2) {
	for _, s := range ss {
		ret = append(ret, mapper(s))
	}
	return
}

// UniqueSlice keeps the first occurrence of each element.
func UniqueSlice[T comparable](slice []T) []T {
	keys := map[T]bool{}
	list := []T{}
	for _, entry := range slice {
		if !keys[entry] {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}

// Sorted keys of a map.
func MapKeys[T constraints.Ordered, TV any](input map[T]TV) []T {
	keys := make([]T, 0, len(input))
	for key := range input {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
