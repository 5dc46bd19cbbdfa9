package model

import "strconv"

type Model[T any] interface {
	DTO() *T
}

func DTOList[N Model[T], T any](l []N) []*T {
	res := make([]*T, len(l))

	for i, x := range l {
		res[i] = x.DTO()
	}

	return res
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
