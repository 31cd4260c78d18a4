package serve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/civicvoice/hearing-go/internal/conf"
	"github.com/civicvoice/hearing-go/internal/errors"
)

func TestRunRespectsWebServerDisabled(t *testing.T) {
	settings := conf.DefaultSettings()
	settings.WebServer.Enabled = false

	err := run(context.Background(), settings)
	assert.Error(t, err)
	assert.Equal(t, errors.CategoryConfiguration, errors.CategoryOf(err))
}
