package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const (
	saltBytes      = 16
	hashIterations = 100_000
)

func GenerateSaltHex() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashPassword 多轮 SHA256(salt || password || prev)。
// 存量账号数据就是这个格式，换算法要带迁移。
func HashPassword(password, saltHex string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is empty")
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return "", fmt.Errorf("invalid salt: %w", err)
	}

	digest := make([]byte, 0, sha256.Size)
	buf := make([]byte, 0, len(salt)+len(password)+sha256.Size)
	for i := 0; i < hashIterations; i++ {
		buf = buf[:0]
		buf = append(buf, salt...)
		buf = append(buf, password...)
		buf = append(buf, digest...)
		sum := sha256.Sum256(buf)
		digest = append(digest[:0], sum[:]...)
	}
	return hex.EncodeToString(digest), nil
}

func VerifyPassword(password, saltHex, wantHashHex string) bool {
	got, err := HashPassword(password, saltHex)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(wantHashHex)) == 1
}
