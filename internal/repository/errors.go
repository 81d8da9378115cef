package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// 一意制約違反（同じオーナー×商品、同じ冪等キーなど）
	ErrDuplicate = errors.New("duplicate")
)
