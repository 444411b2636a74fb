package postgresadapter

import (
	"context"
	"time"

	"livevote/contexts/elections/voting-engine/ports"

	"github.com/google/uuid"
)

// SystemClock stamps votes and outbox rows in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator issues candidate and event ids.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var _ ports.Clock = SystemClock{}
var _ ports.IDGenerator = UUIDGenerator{}
