package history

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPublishIsNoOpWithoutClient(t *testing.T) {
	Rdb = nil

	err := PublishAction(context.Background(), ActionRecord{
		GameID: uuid.New(),
		Action: "stich",
	})
	assert.NoError(t, err)

	err = PublishMatchResult(context.Background(), MatchRecord{
		SessionID:  uuid.New(),
		WinnerTeam: "Team 1",
	})
	assert.NoError(t, err)
}
