package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// StringToInt converts string to int, returns 0 if error
func StringToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

const pidChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateRandomCode 生成 n 位随机短码（用于产品 Pid）
func GenerateRandomCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(pidChars))))
		if err != nil {
			// crypto/rand 基本不会失败，兜底用固定字符
			b[i] = pidChars[0]
			continue
		}
		b[i] = pidChars[idx.Int64()]
	}
	return string(b)
}
