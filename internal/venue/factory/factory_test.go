package factory

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/mdcollector/internal/errs"
)

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("deribit"))
	assert.True(t, IsSupported("DERIBIT"))
	assert.False(t, IsSupported("okx"))
	assert.False(t, IsSupported(""))
}

func TestCreate_UnsupportedVenue_Errors(t *testing.T) {
	_, err := Create(context.Background(), "okx", []string{"BTC-USDT"}, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfig))
}
