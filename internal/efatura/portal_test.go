package efatura_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/efatura"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/gib"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/store/storetest"
)

func TestPortalConfig_TestMode(t *testing.T) {
	base := gib.Config{Username: "global", Password: "gp"}

	st := storetest.Settings(businessID)
	st.GIBTestMode = true
	cfg := efatura.PortalConfig(base, st)
	assert.True(t, cfg.TestMode)
	assert.Equal(t, "global", cfg.Username)
	assert.Equal(t, gib.TestPortalURL, cfg.ServiceURL())

	st.GIBTestMode = false
	assert.False(t, efatura.PortalConfig(base, st).TestMode)
}
