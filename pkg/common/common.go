package common

import (
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"golang.org/x/crypto/bcrypt"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"

	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

var (
	snowflakeNode *snowflake.Node
	snowflakeOnce sync.Once
)

// UUIDint64 returns a new snowflake id. The node id is derived from the
// SWEETSHOP_NODE_ID environment variable when running multiple instances.
func UUIDint64() int64 {
	snowflakeOnce.Do(func() {
		nodeID := int64(rand.New(rand.NewSource(time.Now().UnixNano())).Intn(1024))
		if v := os.Getenv("SWEETSHOP_NODE_ID"); v != "" {
			for _, ch := range v {
				nodeID = (nodeID*31 + int64(ch)) % 1024
			}
		}
		node, err := snowflake.NewNode(nodeID)
		if err != nil {
			node, _ = snowflake.NewNode(0)
		}
		snowflakeNode = node
	})
	return snowflakeNode.Generate().Int64()
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext candidate.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
