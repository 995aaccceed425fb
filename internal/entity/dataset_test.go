package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordCounts_DecodeObject(t *testing.T) {
	var pa PasswordAnalysis
	err := json.Unmarshal([]byte(`{"top_passwords":{"123456":5,"root":2,"admin":2}}`), &pa)

	require.NoError(t, err)
	assert.Equal(t, PasswordCounts{
		{Password: "123456", Count: 5},
		{Password: "root", Count: 2},
		{Password: "admin", Count: 2},
	}, pa.TopPasswords)
}

func TestPasswordCounts_EncodeKeepsOrder(t *testing.T) {
	counts := PasswordCounts{
		{Password: "root", Count: 2},
		{Password: "admin", Count: 2},
		{Password: `a"b`, Count: 1},
	}

	data, err := json.Marshal(counts)

	require.NoError(t, err)
	assert.Equal(t, `{"root":2,"admin":2,"a\"b":1}`, string(data))

	var back PasswordCounts
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, counts, back)
}

func TestPasswordCounts_Empty(t *testing.T) {
	data, err := json.Marshal(PasswordCounts{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	var pa PasswordAnalysis
	require.NoError(t, json.Unmarshal([]byte(`{"top_passwords":null}`), &pa))
	assert.Nil(t, pa.TopPasswords)
}

func TestPasswordCounts_RejectsArray(t *testing.T) {
	var counts PasswordCounts
	assert.Error(t, json.Unmarshal([]byte(`[{"password":"root","count":1}]`), &counts))
}

func TestLoginTally(t *testing.T) {
	ds := &Dataset{Sessions: []Session{
		{LoginStatus: LoginSuccess},
		{LoginStatus: LoginFailed},
		{LoginStatus: LoginFailed},
		{},
	}}

	tally := ds.LoginTally()

	assert.Equal(t, 1, tally[LoginSuccess])
	assert.Equal(t, 2, tally[LoginFailed])
	assert.Equal(t, 1, tally[LoginUnknown])
}
