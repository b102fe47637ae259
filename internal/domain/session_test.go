package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_DecodeAuthPayload(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"email":"a@b.c","username":"ann","type":"user","history":""}`), &u))

	assert.Equal(t, UserID("3"), u.ID)
	assert.True(t, u.History.Absent())

	out, err := json.Marshal(u)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"id":3`)
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Minute)}

	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Minute)))
	assert.False(t, (&Session{}).Expired(now))
}

func TestSession_HistoryNilSafe(t *testing.T) {
	var s *Session
	assert.True(t, s.History().Absent())

	s = &Session{User: User{History: "9"}}
	assert.Equal(t, HistoryRef("9"), s.History())
}
