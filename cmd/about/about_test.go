package about

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rclone/dbxclient/dropbox/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShow(t *testing.T) {
	account := &api.FullAccount{
		AccountID:   "dbid:1",
		Name:        api.Name{DisplayName: "Jane Doe"},
		Email:       "jane@example.com",
		AccountType: api.Tagged{Tag: "basic"},
		RootInfo:    api.RootInfo{Tag: "user", RootNamespaceID: "7"},
	}

	var out bytes.Buffer
	require.NoError(t, show(&out, account, false))
	assert.Equal(t, "Name:      Jane Doe\nEmail:     jane@example.com\nAccount:   dbid:1\nType:      basic\nNamespace: 7\n", out.String())

	out.Reset()
	require.NoError(t, show(&out, account, true))
	var got api.FullAccount
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, *account, got)
}
