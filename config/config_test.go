package config

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetters(t *testing.T) {
	cfg := map[string]string{
		"PORT":      "9000",
		"BAD_INT":   "nine",
		"FLAG_ON":   "yes",
		"FLAG_OFF":  "0",
		"TIMEOUT":   "45",
		"ORIGINS":   "https://a.test, ,https://b.test",
		"EMPTY_VAL": "",
	}

	assert.Equal(t, 9000, GetInt(cfg, "PORT", 8080))
	assert.Equal(t, 8080, GetInt(cfg, "BAD_INT", 8080))
	assert.Equal(t, 8080, GetInt(nil, "PORT", 8080))
	assert.True(t, GetBool(cfg, "FLAG_ON", false))
	assert.False(t, GetBool(cfg, "FLAG_OFF", true))
	assert.True(t, GetBool(cfg, "MISSING", true))
	assert.Equal(t, 45*time.Second, GetSeconds(cfg, "TIMEOUT", time.Second))
	assert.Equal(t, time.Second, GetSeconds(cfg, "MISSING", time.Second))
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, GetList(cfg, "ORIGINS"))
	assert.Equal(t, "fallback", GetString(cfg, "EMPTY_VAL", "fallback"))
}

func TestSplit(t *testing.T) {
	key, value := split("DSN=host=db user=blog")
	assert.Equal(t, "DSN", key)
	assert.Equal(t, "host=db user=blog", value)

	key, value = split("LONELY")
	assert.Equal(t, "LONELY", key)
	assert.Empty(t, value)
}

type fakeParameterStore struct {
	pages [][]types.Parameter
	calls int
}

func (f *fakeParameterStore) GetParametersByPath(ctx context.Context, in *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	out := &ssm.GetParametersByPathOutput{Parameters: f.pages[f.calls]}
	f.calls++
	if f.calls < len(f.pages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func TestMergeParameters(t *testing.T) {
	store := &fakeParameterStore{pages: [][]types.Parameter{
		{
			{Name: aws.String("/myblog/prod/jwt-secret"), Value: aws.String("from-ssm")},
			{Name: aws.String("/myblog/prod/port"), Value: aws.String("7000")},
		},
		{
			{Name: aws.String("/myblog/prod/object_storage_bucket"), Value: aws.String("media")},
		},
	}}
	cfg := map[string]string{"PORT": "9000"}

	added, err := MergeParameters(context.Background(), store, "/myblog/prod", cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, added)
	assert.Equal(t, 2, store.calls)
	assert.Equal(t, "from-ssm", cfg["JWT_SECRET"])
	assert.Equal(t, "9000", cfg["PORT"], "environment wins over stored parameters")
	assert.Equal(t, "media", cfg["OBJECT_STORAGE_BUCKET"])
}
