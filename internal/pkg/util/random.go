package util

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const base36Upper = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// 隨機
func GetRandomInt(max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}
	i, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(i.Int64()), nil
}

// RandomString 大寫英數字
func RandomString(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := GetRandomInt(len(base36Upper))
		if err != nil {
			return "", err
		}
		b.WriteByte(base36Upper[idx])
	}
	return b.String(), nil
}
