package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateEventID returns an id for an audit event, e.g. evt_1725000000_042913.
func GenerateEventID() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999))
	return fmt.Sprintf("evt_%d_%06d", timestamp, randomNum.Int64())
}
