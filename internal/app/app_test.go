package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
)

func TestGraphsValidate(t *testing.T) {
	for name, opts := range map[string]fx.Option{"http": HTTP, "worker": Worker} {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, fx.ValidateApp(opts, fx.NopLogger))
		})
	}
}
