package docs

import (
	"encoding/json"
	"fmt"
	"testing"

	"splitboard/internal/ranking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardLimitMatchesEngine(t *testing.T) {
	var doc struct {
		Paths map[string]map[string]struct {
			Parameters []struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			} `json:"parameters"`
		} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc))

	op, ok := doc.Paths["/leaderboard"]["get"]
	require.True(t, ok, "leaderboard operation missing from the document")

	var found bool
	for _, p := range op.Parameters {
		if p.Name == "limit" {
			found = true
			assert.Contains(t, p.Description, fmt.Sprintf("max %d", ranking.MaxLimit))
			assert.Contains(t, p.Description, fmt.Sprintf("default %d", ranking.DefaultLimit))
		}
	}
	assert.True(t, found)
}
